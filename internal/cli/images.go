package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imagepresets/internal/imagestate"
	"github.com/artemshloyda/imagepresets/internal/preset"
	"github.com/artemshloyda/imagepresets/internal/progress"
	"github.com/artemshloyda/imagepresets/internal/scanner"
	"github.com/artemshloyda/imagepresets/internal/worker"
)

func (a *app) openImage(path string) (*imagestate.File, error) {
	statePath := imagestate.PathFor(path)
	f, err := imagestate.Open(statePath, imagestate.WithHistoryLimit(a.cfg.HistoryLimit))
	if err != nil {
		return nil, err
	}
	if f.Image() == "" {
		f.SetImage(imagestate.ImageFor(statePath))
	}
	return f, nil
}

// newCaptureCmd создаёт команду capture.
func newCaptureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capture IMAGE NAME",
		Short: "Создать пресет из текущего состояния изображения",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := a.openImage(args[0])
			if err != nil {
				return err
			}
			p, err := preset.FromImage(img, args[1])
			if err != nil {
				return fmt.Errorf("состояние %s вне допустимых диапазонов: %w", img.Path(), err)
			}

			return a.withManager(func(m *preset.Manager) error {
				if err := m.Add(p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Пресет %q создан из %s\n", p.Name(), img.Image())
				return nil
			})
		},
	}
}

// newApplyCmd создаёт команду apply.
func newApplyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply NAME [IMAGE...]",
		Short: "Применить пресет к изображениям",
		Long: `Применить пресет к изображениям. Каждое применение записывается
в историю отмены файла состояния изображения.

Примеры:
  imagepresets apply Red ./glyphs/a.png ./glyphs/b.png
  imagepresets apply Red --dir ./glyphs`,
		Args: cobra.MinimumNArgs(1),
	}
	dir := cmd.Flags().String("dir", "", "Применить ко всем файлам состояния в директории")
	noProgress := cmd.Flags().Bool("no-progress", false, "Отключить прогресс-бар")
	workers := cmd.Flags().Int("workers", 0, "Количество параллельных воркеров (по умолчанию из конфигурации)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		targets := append([]string(nil), args[1:]...)
		if *dir != "" {
			files, err := scanner.New(*dir).List(ctx)
			if err != nil {
				return err
			}
			for _, f := range files {
				targets = append(targets, f.Path)
			}
		}
		if len(targets) == 0 {
			return errors.New("не указаны изображения (IMAGE... или --dir)")
		}

		return a.withManager(func(m *preset.Manager) error {
			p, err := m.Get(args[0])
			if err != nil {
				return err
			}

			bar := progress.New(progress.Options{
				Total:    int64(len(targets)),
				Disabled: *noProgress || a.cfg.NoProgress,
				Writer:   cmd.ErrOrStderr(),
			})
			n := a.cfg.Workers
			if *workers > 0 {
				n = *workers
			}
			pool := worker.New(n, a.openPresetImage, a.logger.Named("worker"))
			pool.SetProgressBar(bar)
			pool.Process(ctx, p, worker.Feed(ctx, targets))
			bar.Finish()

			fmt.Fprintln(cmd.OutOrStdout(), bar.Summary())
			if _, failed := bar.Stats(); failed > 0 {
				return fmt.Errorf("завершено с %d ошибками", failed)
			}
			return ctx.Err()
		})
	}
	return cmd
}

func (a *app) openPresetImage(path string) (preset.Image, error) {
	f, err := a.openImage(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// newUndoCmd создаёт команду undo.
func newUndoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undo IMAGE",
		Short: "Отменить последнее изменение изображения",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := a.openImage(args[0])
			if err != nil {
				return err
			}
			title, err := img.Undo()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "↩️  Отменено: %s\n", title)
			return nil
		},
	}
}
