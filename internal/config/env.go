package config

import (
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// EnvPrefix - префикс переменных окружения.
const EnvPrefix = "IMAGEPRESETS"

// ApplyEnv применяет переменные окружения IMAGEPRESETS_* поверх cfg.
// Имена переменных берутся из тегов mapstructure.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	val := reflect.ValueOf(cfg).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		// Текущие значения служат значениями по умолчанию
		v.SetDefault(tag, val.Field(i).Interface())
		if err := v.BindEnv(tag); err != nil {
			return fmt.Errorf("не удалось связать переменную %s_%s: %w", EnvPrefix, tag, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	return nil
}
