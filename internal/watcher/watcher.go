// Package watcher следит за файлом базы пресетов и сообщает о внешних изменениях.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce - время тишины перед сигналом.
const DefaultDebounce = 500 * time.Millisecond

// Watcher следит за директорией базы и отправляет сигнал после изменения файлов базы.
type Watcher struct {
	// dir - директория базы.
	dir string

	// names - базовые имена файлов базы, включая -wal и -journal.
	names map[string]struct{}

	// watcher - fsnotify watcher.
	watcher *fsnotify.Watcher

	// debounceTime - время ожидания после последнего события.
	// SQLite пишет базу и журнал несколькими операциями подряд.
	debounceTime time.Duration

	logger *zap.Logger

	// pending - время последнего события, нулевое если событий нет.
	pending time.Time
	mu      sync.Mutex
}

// New создаёт новый Watcher для файла базы dbPath.
func New(dbPath string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать watcher: %w", err)
	}

	base := filepath.Base(dbPath)
	names := make(map[string]struct{})
	for _, suffix := range []string{"", "-wal", "-journal"} {
		names[base+suffix] = struct{}{}
	}

	return &Watcher{
		dir:          filepath.Dir(dbPath),
		names:        names,
		watcher:      w,
		debounceTime: DefaultDebounce,
		logger:       logger,
	}, nil
}

// SetDebounceTime устанавливает время debounce.
func (w *Watcher) SetDebounceTime(d time.Duration) {
	if d > 0 {
		w.debounceTime = d
	}
}

// Watch запускает слежение и возвращает канал сигналов.
// Несколько изменений подряд дают один сигнал. Канал закрывается при отмене ctx.
func (w *Watcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := w.watcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("не удалось добавить директорию %s: %w", w.dir, err)
	}

	changes := make(chan struct{}, 1)
	go w.run(ctx, changes)
	return changes, nil
}

func (w *Watcher) run(ctx context.Context, changes chan<- struct{}) {
	defer close(changes)
	defer w.watcher.Close()

	ticker := time.NewTicker(w.debounceTime / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if _, ok := w.names[filepath.Base(event.Name)]; !ok {
				continue
			}
			w.logger.Debug("изменение базы", zap.String("file", event.Name), zap.String("op", event.Op.String()))

			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ошибка watcher", zap.Error(err))

		case <-ticker.C:
			if w.ready() {
				select {
				case changes <- struct{}{}:
				default:
					// Предыдущий сигнал ещё не прочитан
				}
			}
		}
	}
}

// ready сбрасывает pending, если с последнего события прошло debounceTime.
func (w *Watcher) ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.IsZero() || time.Since(w.pending) < w.debounceTime {
		return false
	}
	w.pending = time.Time{}
	return true
}

// Close закрывает watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

/*
Возможные расширения:
- Следить за переименованием директории базы
- Передавать в сигнале список изменённых файлов
*/
