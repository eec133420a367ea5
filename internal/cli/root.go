// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artemshloyda/imagepresets/internal/config"
	"github.com/artemshloyda/imagepresets/internal/event"
	"github.com/artemshloyda/imagepresets/internal/preset"
	"github.com/artemshloyda/imagepresets/internal/storage"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// app содержит состояние одного запуска CLI.
type app struct {
	// Значения persistent флагов.
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	bus    *event.Bus
	store  *storage.SQLite
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "imagepresets",
		Short: "Пресеты фильтров для фонового изображения глифа",
		Long: `ImagePresets - управление именованными пресетами фильтров фонового изображения:
цветовое наложение, яркость, контраст, насыщенность и резкость.

Пресеты хранятся в SQLite базе, состояние изображений - в файлах *.imgstate.yaml.

Примеры:
  # Список пресетов
  imagepresets list

  # Создать пресет
  imagepresets add Sepia --color 112,66,20,60 --contrast 110

  # Применить пресет ко всем изображениям директории
  imagepresets apply Sepia --dir ./glyphs

  # Отменить последнее применение
  imagepresets undo ./glyphs/a.png`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Путь к файлу конфигурации YAML")
	flags.StringVar(&a.dbPath, "db", "", "Путь к SQLite базе пресетов")
	flags.StringVar(&a.logLevel, "log-level", "", "Уровень логирования: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Формат логов: console, json")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Выводить события пресетов")

	rootCmd.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newSetCmd(a),
		newRenameCmd(a),
		newRemoveCmd(a),
		newFactoryCmd(a),
		newFiltersCmd(a),
		newCaptureCmd(a),
		newApplyCmd(a),
		newUndoCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
		newConfigExampleCmd(),
	)

	return rootCmd
}

// setup собирает конфигурацию и логгер. Флаги CLI имеют наивысший приоритет.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if cfg.Verbose && (cfg.LogLevel == "warn" || cfg.LogLevel == "error") {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if path != "" {
		logger.Debug("загружен файл конфигурации", zap.String("path", path))
	}

	a.cfg = cfg
	a.logger = logger
	a.bus = event.NewBus(logger)
	if cfg.Verbose {
		a.bus.SubscribeAll(a.logEvent)
	}
	return nil
}

// withManager открывает базу, загружает пресеты и вызывает fn.
// База закрывается после fn.
func (a *app) withManager(fn func(m *preset.Manager) error) error {
	defer a.close()

	m, err := a.manager()
	if err != nil {
		return err
	}
	return fn(m)
}

func (a *app) manager() (*preset.Manager, error) {
	store, err := storage.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу пресетов: %w", err)
	}
	a.store = store

	m := preset.NewManager(store,
		preset.WithKey(a.cfg.StoreKey),
		preset.WithLogger(a.logger.Named("presets")),
		preset.WithEvents(a.bus),
	)
	if err := m.Init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("не удалось закрыть базу", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// logEvent пишет события менеджера пресетов в лог.
func (a *app) logEvent(ev event.Event) {
	fields := []zap.Field{zap.String("topic", ev.Topic)}
	switch p := ev.Payload.(type) {
	case preset.PresetEvent:
		fields = append(fields, zap.String("preset", p.Preset.Name()))
	case preset.ChangeEvent:
		fields = append(fields,
			zap.String("preset", p.Preset.Name()),
			zap.Any("old", p.Old),
			zap.Any("new", p.New),
		)
	}
	a.logger.Info("событие", fields...)
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "imagepresets %s (built %s)\n", Version, BuildTime)
		},
	}
}

// newConfigExampleCmd создаёт команду config-example.
func newConfigExampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-example",
		Short: "Вывести пример файла конфигурации",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateExampleConfig())
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить автодополнение имён пресетов в shell completion
- Добавить интерактивный режим редактирования пресета
*/
