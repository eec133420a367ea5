// Package scanner ищет файлы состояния изображений в директории.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/artemshloyda/imagepresets/internal/imagestate"
)

// File - найденный файл состояния.
type File struct {
	// Path - абсолютный путь к файлу состояния.
	Path string

	// RelPath - относительный путь от корня сканирования.
	RelPath string

	// Image - путь к изображению, которому принадлежит состояние.
	Image string
}

// Scanner сканирует директорию с файлами состояния.
type Scanner struct {
	root string
}

// New создаёт новый Scanner.
func New(root string) *Scanner {
	return &Scanner{root: root}
}

// Scan запускает сканирование и отправляет найденные файлы в канал.
// Канал закрывается после завершения сканирования.
func (s *Scanner) Scan(ctx context.Context) (<-chan File, <-chan error) {
	files := make(chan File, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		err := s.walk(ctx, func(f File) error {
			select {
			case files <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// List возвращает все файлы состояния, отсортированные по относительному пути.
func (s *Scanner) List(ctx context.Context) ([]File, error) {
	var found []File
	err := s.walk(ctx, func(f File) error {
		found = append(found, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].RelPath < found[j].RelPath })
	return found, nil
}

// CountFiles возвращает количество файлов состояния (для progress bar).
func (s *Scanner) CountFiles(ctx context.Context) (int64, error) {
	var count int64
	err := s.walk(ctx, func(File) error {
		count++
		return nil
	})
	return count, err
}

func (s *Scanner) walk(ctx context.Context, fn func(File) error) error {
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("директория недоступна: %w", err)
	}

	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "Предупреждение: не удалось прочитать %s: %v\n", path, err)
			return nil
		}

		if d.IsDir() {
			// Скрытые директории пропускаем, корень сканируем всегда
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		// macOS metadata файлы (._*)
		if strings.HasPrefix(d.Name(), "._") {
			return nil
		}
		if !strings.HasSuffix(d.Name(), imagestate.Suffix) {
			return nil
		}

		relPath, _ := filepath.Rel(s.root, path)
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}

		return fn(File{
			Path:    absPath,
			RelPath: relPath,
			Image:   imagestate.ImageFor(absPath),
		})
	})
}

/*
Возможные расширения:
- Добавить exclude-паттерны
- Добавить ограничение глубины обхода
*/
