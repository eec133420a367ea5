package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/artemshloyda/imagepresets/internal/preset"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StoreKey != preset.DefaultKey {
		t.Errorf("StoreKey = %q, want %q", cfg.StoreKey, preset.DefaultKey)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should not be empty by default")
	}
	if cfg.HistoryLimit < 1 {
		t.Errorf("HistoryLimit = %d, want >= 1", cfg.HistoryLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() default config error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing db", func(c *Config) { c.DBPath = "" }, true},
		{"missing key", func(c *Config) { c.StoreKey = "" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"tiny debounce", func(c *Config) { c.WatchDebounce = time.Millisecond }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileConfig_ApplyToConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  db: /tmp/p.sqlite
  key: custom
logging:
  level: debug
  verbose: true
apply:
  workers: 3
  history_limit: 5
watch:
  debounce: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	fc, used, err := FindAndLoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, path, used)

	cfg := DefaultConfig()
	require.NoError(t, fc.ApplyToConfig(cfg))
	require.Equal(t, "/tmp/p.sqlite", cfg.DBPath)
	require.Equal(t, "custom", cfg.StoreKey)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.True(t, cfg.Verbose)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, 5, cfg.HistoryLimit)
	require.Equal(t, 2*time.Second, cfg.WatchDebounce)
}

func TestFileConfig_Errors(t *testing.T) {
	t.Run("explicit path missing", func(t *testing.T) {
		_, _, err := FindAndLoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: [\n"), 0644))
		_, err := LoadFromFile(path)
		require.Error(t, err)
	})

	t.Run("bad debounce", func(t *testing.T) {
		fc := &FileConfig{Watch: &WatchConfig{Debounce: "soon"}}
		require.Error(t, fc.ApplyToConfig(DefaultConfig()))
	})

	t.Run("nil file config", func(t *testing.T) {
		var fc *FileConfig
		require.NoError(t, fc.ApplyToConfig(DefaultConfig()))
	})
}

func TestGenerateExampleConfig(t *testing.T) {
	var fc FileConfig
	require.NoError(t, yaml.Unmarshal([]byte(GenerateExampleConfig()), &fc))

	cfg := DefaultConfig()
	require.NoError(t, fc.ApplyToConfig(cfg))
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IMAGEPRESETS_DB_PATH", "/env/p.sqlite")
	t.Setenv("IMAGEPRESETS_VERBOSE", "true")
	t.Setenv("IMAGEPRESETS_HISTORY_LIMIT", "7")
	t.Setenv("IMAGEPRESETS_WATCH_DEBOUNCE", "250ms")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))

	require.Equal(t, "/env/p.sqlite", cfg.DBPath)
	require.True(t, cfg.Verbose)
	require.Equal(t, 7, cfg.HistoryLimit)
	require.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	// Не заданные переменные не меняют значения
	require.Equal(t, preset.DefaultKey, cfg.StoreKey)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_ExplicitFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  key: from-file\n  db: /file.sqlite\n"), 0644))
	t.Setenv("IMAGEPRESETS_DB_PATH", "/env.sqlite")

	cfg, used, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, "from-file", cfg.StoreKey)
	require.Equal(t, "/env.sqlite", cfg.DBPath)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"debug", "console", false},
		{"", "", false},
		{"warn", "json", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if logger != nil {
				_ = logger.Sync()
			}
		})
	}
}
