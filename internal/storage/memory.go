package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Memory - хранилище настроек в памяти. Значения проходят через JSON,
// как и в SQLite, поэтому читаются в том же виде.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte

	// Writes - количество успешных SetDefault.
	Writes int
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// GetDefault возвращает значение по ключу или fallback.
func (m *Memory) GetDefault(key string, fallback any) (any, error) {
	m.mu.Lock()
	raw, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return fallback, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("некорректное значение ключа %s: %w", key, err)
	}
	return v, nil
}

// SetDefault записывает значение по ключу.
func (m *Memory) SetDefault(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("не удалось закодировать значение ключа %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = b
	m.Writes++
	return nil
}
