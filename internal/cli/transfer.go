package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/artemshloyda/imagepresets/internal/preset"
)

// newExportCmd создаёт команду export.
func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Сохранить пресеты в YAML файл",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				data, err := yaml.Marshal(m.Snapshot())
				if err != nil {
					return fmt.Errorf("не удалось закодировать пресеты: %w", err)
				}
				if err := os.WriteFile(args[0], data, 0644); err != nil {
					return fmt.Errorf("не удалось записать %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Экспортировано пресетов: %d -> %s\n", m.Len(), args[0])
				return nil
			})
		},
	}
}

// newImportCmd создаёт команду import.
func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Загрузить пресеты из YAML файла",
		Long: `Загрузить пресеты из YAML файла (имя -> поля). Понимает и старый формат
с полями enableColor/red/green/blue/alpha. Пресеты с занятыми именами
пропускаются, если не указан --overwrite.`,
		Args: cobra.ExactArgs(1),
	}
	overwrite := cmd.Flags().Bool("overwrite", false, "Заменять пресеты с совпадающими именами")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("не удалось прочитать %s: %w", args[0], err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("ошибка парсинга YAML в %s: %w", args[0], err)
		}
		presets, err := preset.DecodeCollection(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		return a.withManager(func(m *preset.Manager) error {
			var added, skipped int
			for _, p := range presets {
				if existing := m.Find(p.Name()); existing != nil && *overwrite {
					if err := m.Replace(existing, p); err != nil {
						return err
					}
					added++
					continue
				}
				if err := m.Add(p); err != nil {
					if errors.Is(err, preset.ErrNameInUse) {
						a.logger.Info("пресет пропущен", zap.String("name", p.Name()))
						skipped++
						continue
					}
					return err
				}
				added++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Импортировано: %d, пропущено: %d\n", added, skipped)
			return nil
		})
	}
	return cmd
}
