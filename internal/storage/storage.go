// Package storage содержит хранилище настроек расширения на SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite хранит значения настроек в виде JSON в таблице defaults.
type SQLite struct {
	db   *sql.DB
	path string
}

// New создаёт новое подключение к SQLite и выполняет миграции.
func New(dbPath string) (*SQLite, error) {
	// Создаём директорию для БД, если не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite не поддерживает concurrent writes
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db, path: dbPath}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *SQLite) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Path возвращает путь к файлу БД.
func (s *SQLite) Path() string {
	return s.path
}

// Close закрывает подключение к БД.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetDefault возвращает значение по ключу или fallback, если ключа нет.
// Значение декодируется из JSON: объекты становятся map[string]any,
// массивы - []any, числа - float64.
func (s *SQLite) GetDefault(key string, fallback any) (any, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM defaults WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать ключ %s: %w", key, err)
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("некорректное значение ключа %s: %w", key, err)
	}
	return v, nil
}

// SetDefault записывает значение по ключу одним UPSERT.
func (s *SQLite) SetDefault(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("не удалось закодировать значение ключа %s: %w", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO defaults (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(b), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("не удалось записать ключ %s: %w", key, err)
	}
	return nil
}

// DeleteDefault удаляет ключ. Отсутствующий ключ не является ошибкой.
func (s *SQLite) DeleteDefault(key string) error {
	if _, err := s.db.Exec("DELETE FROM defaults WHERE key = ?", key); err != nil {
		return fmt.Errorf("не удалось удалить ключ %s: %w", key, err)
	}
	return nil
}

// Keys возвращает все ключи в алфавитном порядке.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM defaults ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("не удалось получить ключи: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

/*
Возможные расширения:
- Хранить историю значений для отката настроек
- Добавить импорт настроек из plist старого расширения
*/
