// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/artemshloyda/imagepresets/internal/imagestate"
	"github.com/artemshloyda/imagepresets/internal/preset"
	"github.com/artemshloyda/imagepresets/internal/watcher"
)

// Config содержит все настройки утилиты.
// Теги mapstructure задают имена переменных окружения (с префиксом EnvPrefix).
type Config struct {
	// DBPath - путь к SQLite базе с пресетами.
	DBPath string `mapstructure:"DB_PATH" validate:"required"`

	// StoreKey - ключ, под которым хранится реестр пресетов.
	StoreKey string `mapstructure:"STORE_KEY" validate:"required"`

	// LogLevel - уровень логирования (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// LogFormat - формат логов (console, json).
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=console json"`

	// Verbose - выводить события пресетов в лог.
	Verbose bool `mapstructure:"VERBOSE"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `mapstructure:"NO_PROGRESS"`

	// Workers - количество параллельных воркеров для apply.
	Workers int `mapstructure:"WORKERS" validate:"min=1"`

	// HistoryLimit - число записей отмены в файле состояния изображения.
	HistoryLimit int `mapstructure:"HISTORY_LIMIT" validate:"min=1,max=1000"`

	// WatchDebounce - задержка перед перечитыванием базы в режиме watch.
	WatchDebounce time.Duration `mapstructure:"WATCH_DEBOUNCE" validate:"min=10ms"`
}

// DefaultDBPath возвращает путь к базе по умолчанию.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".imagepresets", "presets.sqlite")
	}
	return filepath.Join(dir, "imagepresets", "presets.sqlite")
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		DBPath:        DefaultDBPath(),
		StoreKey:      preset.DefaultKey,
		LogLevel:      "warn",
		LogFormat:     "console",
		Workers:       runtime.NumCPU(),
		HistoryLimit:  imagestate.DefaultHistoryLimit,
		WatchDebounce: watcher.DefaultDebounce,
	}
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return nil
}

// Load собирает конфигурацию: значения по умолчанию, файл, переменные окружения.
// Флаги CLI применяются вызывающим поверх результата.
// Возвращает путь к использованному файлу или пустую строку.
func Load(configPath string) (*Config, string, error) {
	cfg := DefaultConfig()

	fc, path, err := FindAndLoadConfig(configPath)
	if err != nil {
		return nil, "", err
	}
	if err := fc.ApplyToConfig(cfg); err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

/*
Возможные расширения:
- Несколько именованных баз (профили)
*/
