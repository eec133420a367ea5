package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artemshloyda/imagepresets/internal/preset"
	"github.com/artemshloyda/imagepresets/internal/watcher"
)

// newWatchCmd создаёт команду watch.
func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Следить за базой и перечитывать пресеты при внешних изменениях",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return a.withManager(func(m *preset.Manager) error {
				w, err := watcher.New(a.cfg.DBPath, a.logger.Named("watcher"))
				if err != nil {
					return err
				}
				w.SetDebounceTime(a.cfg.WatchDebounce)

				changes, err := w.Watch(ctx)
				if err != nil {
					_ = w.Close()
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "👀 Слежение за %s (Ctrl+C для выхода)\n", a.cfg.DBPath)
				return a.watchLoop(ctx, m, changes, out)
			})
		},
	}
}

// watchLoop перечитывает пресеты на каждый сигнал. Все изменения менеджера
// выполняются в этой горутине.
func (a *app) watchLoop(ctx context.Context, m *preset.Manager, changes <-chan struct{}, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			reloaded, err := m.ReloadIfChanged()
			if err != nil {
				a.logger.Error("не удалось перечитать пресеты", zap.Error(err))
				continue
			}
			if reloaded {
				fmt.Fprintf(out, "🔄 Пресеты перечитаны: %d\n", m.Len())
			}
		}
	}
}
