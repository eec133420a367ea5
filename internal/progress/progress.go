// Package progress показывает прогресс применения пресета к набору изображений.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar - прогресс-бар со счётчиками применённых и неудачных файлов.
type Bar struct {
	bar *progressbar.ProgressBar

	// mu защищает счётчики и bar.
	mu sync.Mutex

	disabled bool
	total    int64
	applied  int64
	failed   int64

	startTime time.Time

	// writer - куда выводить (по умолчанию os.Stderr).
	writer io.Writer
}

// Options содержит настройки для прогресс-бара.
type Options struct {
	// Total - количество изображений.
	Total int64

	// Description - описание задачи.
	Description string

	// Disabled - не рисовать бар, только считать.
	Disabled bool

	// Writer - куда выводить (по умолчанию os.Stderr).
	Writer io.Writer
}

// New создаёт новый прогресс-бар.
func New(opts Options) *Bar {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	b := &Bar{
		disabled:  opts.Disabled,
		total:     opts.Total,
		startTime: time.Now(),
		writer:    writer,
	}

	if !opts.Disabled && opts.Total > 0 {
		description := opts.Description
		if description == "" {
			description = "Применение пресета"
		}

		b.bar = progressbar.NewOptions64(
			opts.Total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("изобр"),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]█[reset]",
				SaucerHead:    "[green]▓[reset]",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(writer)
			}),
		)
	}

	return b
}

// Applied отмечает успешно обработанное изображение.
func (b *Bar) Applied() {
	b.add(&b.applied)
}

// Failed отмечает изображение с ошибкой.
func (b *Bar) Failed() {
	b.add(&b.failed)
}

func (b *Bar) add(counter *int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	*counter++
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

// Finish завершает прогресс-бар.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Stats возвращает текущие счётчики.
func (b *Bar) Stats() (applied, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applied, b.failed
}

// Duration возвращает время с начала обработки.
func (b *Bar) Duration() time.Duration {
	return time.Since(b.startTime)
}

// WriteMessage выводит сообщение, временно скрывая прогресс-бар.
func (b *Bar) WriteMessage(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}

	fmt.Fprintf(b.writer, format, args...)

	if b.bar != nil {
		_ = b.bar.RenderBlank()
	}
}

// Summary возвращает итоговую строку.
func (b *Bar) Summary() string {
	applied, failed := b.Stats()
	return fmt.Sprintf("Применено: %d, ошибок: %d из %d за %s",
		applied, failed, b.total, b.Duration().Round(time.Millisecond))
}
