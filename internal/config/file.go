// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Store - настройки хранилища пресетов.
	Store *StoreConfig `yaml:"store,omitempty"`

	// Logging - настройки логирования.
	Logging *LoggingConfig `yaml:"logging,omitempty"`

	// Apply - настройки применения пресетов к изображениям.
	Apply *ApplyConfig `yaml:"apply,omitempty"`

	// Watch - настройки слежения за базой.
	Watch *WatchConfig `yaml:"watch,omitempty"`
}

// StoreConfig содержит настройки хранилища.
type StoreConfig struct {
	// DB - путь к SQLite базе данных.
	DB string `yaml:"db,omitempty"`

	// Key - ключ реестра пресетов.
	Key string `yaml:"key,omitempty"`
}

// LoggingConfig содержит настройки логирования.
type LoggingConfig struct {
	Level   string `yaml:"level,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// ApplyConfig содержит настройки применения.
type ApplyConfig struct {
	// Workers - количество параллельных воркеров.
	Workers int `yaml:"workers,omitempty"`

	// HistoryLimit - число записей отмены в файле состояния.
	HistoryLimit int `yaml:"history_limit,omitempty"`

	// NoProgress - отключить прогресс-бар.
	NoProgress bool `yaml:"no_progress,omitempty"`
}

// WatchConfig содержит настройки слежения.
type WatchConfig struct {
	// Debounce - задержка в формате time.ParseDuration ("500ms").
	Debounce string `yaml:"debounce,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./imagepresets.yaml (текущая директория)
// 2. ./imagepresets.yml
// 3. ~/.config/imagepresets/config.yaml
// 4. ~/.config/imagepresets/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"imagepresets.yaml",
		"imagepresets.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "imagepresets", "config.yaml"),
			filepath.Join(home, ".config", "imagepresets", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл из стандартных путей.
// Если configPath указан явно, использует только его.
// Возвращает nil, nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// Переменные окружения и флаги CLI применяются после файла.
func (fc *FileConfig) ApplyToConfig(cfg *Config) error {
	if fc == nil {
		return nil
	}

	if fc.Store != nil {
		if fc.Store.DB != "" {
			cfg.DBPath = fc.Store.DB
		}
		if fc.Store.Key != "" {
			cfg.StoreKey = fc.Store.Key
		}
	}

	if fc.Logging != nil {
		if fc.Logging.Level != "" {
			cfg.LogLevel = fc.Logging.Level
		}
		if fc.Logging.Format != "" {
			cfg.LogFormat = fc.Logging.Format
		}
		if fc.Logging.Verbose {
			cfg.Verbose = true
		}
	}

	if fc.Apply != nil {
		if fc.Apply.Workers > 0 {
			cfg.Workers = fc.Apply.Workers
		}
		if fc.Apply.HistoryLimit > 0 {
			cfg.HistoryLimit = fc.Apply.HistoryLimit
		}
		if fc.Apply.NoProgress {
			cfg.NoProgress = true
		}
	}

	if fc.Watch != nil && fc.Watch.Debounce != "" {
		d, err := time.ParseDuration(fc.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("некорректный watch.debounce %q: %w", fc.Watch.Debounce, err)
		}
		cfg.WatchDebounce = d
	}

	return nil
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# ImagePresets Configuration File
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# Переменные окружения IMAGEPRESETS_* и CLI флаги имеют приоритет над этим файлом.

store:
  # Путь к SQLite базе с пресетами
  db: ""
  # Ключ реестра пресетов в базе
  key: com.adbac.ImagePresets.presets

logging:
  # Уровень: debug, info, warn, error
  level: warn
  # Формат: console, json
  format: console
  # Выводить события пресетов
  verbose: false

apply:
  # Количество параллельных воркеров (по умолчанию = CPU cores)
  workers: 4
  # Число записей отмены в файле состояния изображения
  history_limit: 20
  # Отключить прогресс-бар
  no_progress: false

watch:
  # Задержка перед перечитыванием базы
  debounce: 500ms
`
}
