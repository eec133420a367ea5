// Package cli содержит CLI команды приложения.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imagepresets/internal/preset"
)

// valueFlags - флаги значений пресета для add и set.
type valueFlags struct {
	values map[preset.Field]*float64
	color  string
}

func addValueFlags(cmd *cobra.Command) *valueFlags {
	vf := &valueFlags{values: make(map[preset.Field]*float64)}
	flags := cmd.Flags()
	for _, f := range preset.ScalarFields() {
		r := preset.Ranges[f]
		vf.values[f] = flags.Float64(string(f), r.Default,
			fmt.Sprintf("%s [%g..%g]", fieldTitle(f), r.Min, r.Max))
	}
	flags.StringVar(&vf.color, "color", "", "Цвет наложения r,g,b[,a] (каналы 0..255, непрозрачность 0..100)")
	return vf
}

// changed возвращает значения только тех флагов, которые указаны явно.
func (vf *valueFlags) changed(cmd *cobra.Command) map[preset.Field]float64 {
	out := make(map[preset.Field]float64)
	for f, v := range vf.values {
		if cmd.Flags().Changed(string(f)) {
			out[f] = *v
		}
	}
	return out
}

func (vf *valueFlags) parseColor(cmd *cobra.Command) (*preset.Color, error) {
	if !cmd.Flags().Changed("color") {
		return nil, nil
	}
	c, err := preset.ParseColor(vf.color)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// newListCmd создаёт команду list.
func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Показать список пресетов",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				out := cmd.OutOrStdout()
				if !m.HasAny() {
					fmt.Fprintln(out, "Пресеты не найдены. Загрузите встроенные: imagepresets factory")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ИМЯ\tЯРКОСТЬ\tКОНТРАСТ\tНАСЫЩЕННОСТЬ\tРЕЗКОСТЬ\tЦВЕТ")
				for _, p := range m.Presets() {
					fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%s\n",
						p.Name(), p.Brightness(), p.Contrast(), p.Saturation(), p.Sharpness(), colorText(p.Color()))
				}
				return w.Flush()
			})
		},
	}
}

// newShowCmd создаёт команду show.
func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Показать значения пресета",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				p, err := m.Get(args[0])
				if err != nil {
					return err
				}
				printPreset(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
}

// newAddCmd создаёт команду add.
func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Создать пресет",
		Long: `Создать пресет. Не указанные значения берутся по умолчанию.
Без имени пресет получает первое свободное из "New Preset", "New Preset 1" и т.д.

Примеры:
  imagepresets add Sepia --color 112,66,20,60 --contrast 110
  imagepresets add --saturation 0`,
		Args: cobra.MaximumNArgs(1),
	}
	vf := addValueFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var opts []preset.Option
		for f, v := range vf.changed(cmd) {
			opts = append(opts, preset.WithValue(f, v))
		}
		color, err := vf.parseColor(cmd)
		if err != nil {
			return err
		}
		opts = append(opts, preset.WithColor(color))

		return a.withManager(func(m *preset.Manager) error {
			name := m.UniqueName(preset.DefaultName)
			if len(args) > 0 {
				name = args[0]
			}
			p, err := preset.New(name, opts...)
			if err != nil {
				return err
			}
			if err := m.Add(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Пресет %q создан\n", p.Name())
			return nil
		})
	}
	return cmd
}

// newSetCmd создаёт команду set.
func newSetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set NAME",
		Short: "Изменить значения пресета",
		Long: `Изменить значения пресета. Все значения проверяются до сохранения,
поэтому при ошибке пресет остаётся прежним.

Примеры:
  imagepresets set Red --brightness 10
  imagepresets set Red --no-color
  imagepresets set Red --reset contrast --reset sharpness`,
		Args: cobra.ExactArgs(1),
	}
	vf := addValueFlags(cmd)
	noColor := cmd.Flags().Bool("no-color", false, "Убрать цветовое наложение")
	reset := cmd.Flags().StringSlice("reset", nil, "Сбросить поле к значению по умолчанию (brightness, contrast, saturation, sharpness, color)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		color, err := vf.parseColor(cmd)
		if err != nil {
			return err
		}
		if color != nil && *noColor {
			return errors.New("--color и --no-color нельзя указывать вместе")
		}

		resetFields := make([]preset.Field, 0, len(*reset))
		resetColor := false
		for _, name := range *reset {
			if name == string(preset.FieldColor) {
				resetColor = true
				continue
			}
			f, err := preset.ParseField(name)
			if err != nil {
				return err
			}
			resetFields = append(resetFields, f)
		}

		values := vf.changed(cmd)
		if len(values) == 0 && color == nil && !*noColor && len(resetFields) == 0 && !resetColor {
			return errors.New("не указано ни одного изменения")
		}
		for f, v := range values {
			if _, err := preset.Ranges[f].Validate(string(f), &v); err != nil {
				return err
			}
		}

		return a.withManager(func(m *preset.Manager) error {
			p, err := m.Get(args[0])
			if err != nil {
				return err
			}

			// Порядок полей фиксирован, чтобы история изменений была предсказуемой
			for _, f := range preset.ScalarFields() {
				if v, ok := values[f]; ok {
					if err := p.SetValue(f, &v); err != nil {
						return err
					}
				}
			}
			for _, f := range resetFields {
				if err := p.ResetValue(f); err != nil {
					return err
				}
			}
			switch {
			case color != nil:
				err = p.SetColor(color)
			case *noColor || resetColor:
				err = p.SetColor(nil)
			}
			if err != nil {
				return err
			}

			printPreset(cmd.OutOrStdout(), p)
			return nil
		})
	}
	return cmd
}

// newRenameCmd создаёт команду rename.
func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Переименовать пресет",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				p, err := m.Get(args[0])
				if err != nil {
					return err
				}
				if err := p.SetName(args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Пресет %q переименован в %q\n", args[0], p.Name())
				return nil
			})
		},
	}
}

// newRemoveCmd создаёт команду remove.
func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"delete", "rm"},
		Short:   "Удалить пресет",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				p, err := m.Get(args[0])
				if err != nil {
					return err
				}
				if err := m.Remove(p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Пресет %q удалён\n", p.Name())
				return nil
			})
		},
	}
}

// newFactoryCmd создаёт команду factory.
func newFactoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factory",
		Short: "Загрузить встроенные пресеты",
		Long: `Загрузить встроенные пресеты. Без --overwrite пресеты с занятыми
именами пропускаются, с --overwrite весь набор заменяется встроенным.`,
		Args: cobra.NoArgs,
	}
	overwrite := cmd.Flags().Bool("overwrite", false, "Заменить все пресеты встроенными")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withManager(func(m *preset.Manager) error {
			before := m.Len()
			if err := m.LoadFactoryDefaults(*overwrite); err != nil {
				return err
			}
			if *overwrite {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Загружено встроенных пресетов: %d\n", m.Len())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Добавлено встроенных пресетов: %d\n", m.Len()-before)
			}
			return nil
		})
	}
	return cmd
}

// newFiltersCmd создаёт команду filters.
func newFiltersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "filters NAME",
		Short: "Показать цепочку фильтров предпросмотра",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *preset.Manager) error {
				p, err := m.Get(args[0])
				if err != nil {
					return err
				}
				layer := &textLayer{}
				p.ApplyToLayer(layer, true)
				layer.print(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

// textLayer собирает цепочку фильтров для вывода в терминал.
type textLayer struct {
	filters []preset.Filter
	opacity float64
}

func (l *textLayer) SetFilters(filters []preset.Filter) {
	l.filters = append([]preset.Filter(nil), filters...)
}

func (l *textLayer) AppendFilter(f preset.Filter) { l.filters = append(l.filters, f) }

func (l *textLayer) SetOpacity(opacity float64) { l.opacity = opacity }

func (l *textLayer) print(out io.Writer) {
	for _, f := range l.filters {
		fmt.Fprintf(out, "%s (%s)\n", f.Name, f.Type)
		for _, k := range sortedKeys(f.Values) {
			fmt.Fprintf(out, "  %s: %g\n", k, f.Values[k])
		}
		for _, k := range sortedKeys(f.Colors) {
			fmt.Fprintf(out, "  %s: %s\n", k, f.Colors[k])
		}
	}
	fmt.Fprintf(out, "opacity: %g\n", l.opacity)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printPreset(out io.Writer, p *preset.Preset) {
	fmt.Fprintf(out, "📦 Пресет: %s\n", p.Name())
	for _, f := range preset.ScalarFields() {
		r := preset.Ranges[f]
		fmt.Fprintf(out, "   %s: %g [%g..%g]\n", f, p.Value(f), r.Min, r.Max)
	}
	fmt.Fprintf(out, "   color: %s\n", colorText(p.Color()))
}

func colorText(c *preset.Color) string {
	if c == nil {
		return "-"
	}
	return c.String()
}

func fieldTitle(f preset.Field) string {
	switch f {
	case preset.FieldBrightness:
		return "Яркость"
	case preset.FieldContrast:
		return "Контраст"
	case preset.FieldSaturation:
		return "Насыщенность"
	case preset.FieldSharpness:
		return "Резкость"
	}
	return string(f)
}
