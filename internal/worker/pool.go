// Package worker содержит пул воркеров для параллельного применения пресета.
package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/artemshloyda/imagepresets/internal/preset"
	"github.com/artemshloyda/imagepresets/internal/progress"
)

// Stats содержит статистику обработки.
type Stats struct {
	// Applied - количество изображений, к которым применён пресет.
	Applied int64

	// Failed - количество изображений с ошибками.
	Failed int64

	// Total - общее количество изображений.
	Total int64
}

// Opener открывает изображение по пути.
type Opener func(path string) (preset.Image, error)

// Pool применяет пресет к изображениям из канала в несколько горутин.
// Пресет во время обработки только читается.
type Pool struct {
	workers  int
	open     Opener
	logger   *zap.Logger
	progress *progress.Bar
	stats    Stats
}

// New создаёт новый пул воркеров.
func New(workers int, open Opener, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{workers: workers, open: open, logger: logger}
}

// SetProgressBar устанавливает прогресс-бар для отображения прогресса.
func (p *Pool) SetProgressBar(bar *progress.Bar) {
	p.progress = bar
}

// Process применяет pr ко всем путям из канала и возвращает статистику.
func (p *Pool) Process(ctx context.Context, pr *preset.Preset, paths <-chan string) Stats {
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, pr, paths)
		}()
	}

	wg.Wait()
	return p.GetStats()
}

func (p *Pool) worker(ctx context.Context, pr *preset.Preset, paths <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			p.applyFile(pr, path)
		}
	}
}

func (p *Pool) applyFile(pr *preset.Preset, path string) {
	atomic.AddInt64(&p.stats.Total, 1)

	img, err := p.open(path)
	if err == nil {
		err = pr.ApplyToImage(img)
	}
	if err != nil {
		p.logError(path, err)
		if p.progress != nil {
			p.progress.Failed()
		}
		atomic.AddInt64(&p.stats.Failed, 1)
		return
	}

	p.logger.Debug("пресет применён", zap.String("preset", pr.Name()), zap.String("image", path))
	if p.progress != nil {
		p.progress.Applied()
	}
	atomic.AddInt64(&p.stats.Applied, 1)
}

func (p *Pool) logError(path string, err error) {
	p.logger.Warn("не удалось применить пресет", zap.String("image", path), zap.Error(err))
	if p.progress != nil {
		p.progress.WriteMessage("❌ %s: %v\n", path, err)
	} else {
		fmt.Fprintf(os.Stderr, "❌ %s: %v\n", path, err)
	}
}

// GetStats возвращает текущую статистику.
func (p *Pool) GetStats() Stats {
	return Stats{
		Applied: atomic.LoadInt64(&p.stats.Applied),
		Failed:  atomic.LoadInt64(&p.stats.Failed),
		Total:   atomic.LoadInt64(&p.stats.Total),
	}
}

// Feed отправляет пути в канал и закрывает его. Останавливается при отмене ctx.
func Feed(ctx context.Context, paths []string) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, path := range paths {
			select {
			case ch <- path:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

/*
Возможные расширения:
- Добавить retry для файлов, занятых другим процессом
*/
