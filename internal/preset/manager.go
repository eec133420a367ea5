package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/artemshloyda/imagepresets/internal/event"
)

// DefaultName - основа имени для пресета, созданного без имени.
const DefaultName = "New Preset"

// DefaultKey - ключ, под которым пресеты лежат в хранилище настроек.
const DefaultKey = "com.adbac.ImagePresets.presets"

// Store - хранилище настроек расширения.
type Store interface {
	// GetDefault возвращает значение по ключу или fallback, если ключа нет.
	GetDefault(key string, fallback any) (any, error)

	// SetDefault записывает значение по ключу одной операцией.
	SetDefault(key string, value any) error
}

// Manager - упорядоченный набор пресетов с уникальными именами.
// Каждое изменение набора и каждое изменение принадлежащего ему пресета
// сразу сохраняет весь набор в Store.
type Manager struct {
	store     Store
	key       string
	publisher Publisher
	logger    *zap.Logger

	presets []*Preset

	// lastWritten - последнее записанное или прочитанное содержимое store в JSON.
	lastWritten []byte
}

// ManagerOption настраивает Manager.
type ManagerOption func(*Manager)

// WithKey задаёт ключ хранилища.
func WithKey(key string) ManagerOption {
	return func(m *Manager) { m.key = key }
}

// WithLogger задаёт логгер.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithEvents задаёт получателя событий.
func WithEvents(p Publisher) ManagerOption {
	return func(m *Manager) { m.publisher = p }
}

// NewManager создаёт пустой менеджер. Для загрузки пресетов вызовите Init.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		key:       DefaultKey,
		publisher: nopPublisher{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init загружает пресеты из хранилища. Если хранилище пусто,
// загружаются встроенные пресеты.
func (m *Manager) Init() error {
	raw, err := m.store.GetDefault(m.key, map[string]any{})
	if err != nil {
		return fmt.Errorf("не удалось прочитать пресеты: %w", err)
	}

	presets, err := DecodeCollection(raw)
	if err != nil {
		return err
	}

	if len(presets) == 0 {
		m.logger.Info("хранилище пусто, загружаются встроенные пресеты")
		return m.LoadFactoryDefaults(true)
	}

	m.replace(presets)
	m.lastWritten = encodeSnapshot(raw)
	m.logger.Debug("пресеты загружены", zap.Int("count", len(presets)))
	return nil
}

// HasAny сообщает, есть ли в менеджере пресеты.
func (m *Manager) HasAny() bool {
	return len(m.presets) > 0
}

// Len возвращает количество пресетов.
func (m *Manager) Len() int {
	return len(m.presets)
}

// Presets возвращает пресеты в порядке добавления.
func (m *Manager) Presets() []*Preset {
	out := make([]*Preset, len(m.presets))
	copy(out, m.presets)
	return out
}

// Names возвращает имена пресетов в порядке добавления.
func (m *Manager) Names() []string {
	names := make([]string, len(m.presets))
	for i, p := range m.presets {
		names[i] = p.Name()
	}
	return names
}

// UniqueName возвращает base, если имя свободно, иначе первое свободное
// из "base 1", "base 2" и так далее.
func (m *Manager) UniqueName(base string) string {
	name := base
	for i := 1; m.Find(name) != nil; i++ {
		name = fmt.Sprintf("%s %d", base, i)
	}
	return name
}

// Find возвращает пресет по имени или nil.
func (m *Manager) Find(name string) *Preset {
	for _, p := range m.presets {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Get возвращает пресет по имени или ErrNotFound.
func (m *Manager) Get(name string) (*Preset, error) {
	if p := m.Find(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Add добавляет пресет и сохраняет набор. Имя должно быть свободно.
func (m *Manager) Add(p *Preset) error {
	if m.Find(p.Name()) != nil {
		return fmt.Errorf("%w: %q", ErrNameInUse, p.Name())
	}
	if p.State() == Attached {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, p.Name())
	}

	m.publisher.Publish(event.Event{Topic: TopicWillAddPreset, Payload: PresetEvent{Preset: p}})

	if err := p.attach(m); err != nil {
		return err
	}
	m.presets = append(m.presets, p)

	if err := m.Persist(); err != nil {
		m.presets = m.presets[:len(m.presets)-1]
		p.detach()
		return err
	}

	m.logger.Debug("пресет добавлен", zap.String("name", p.Name()))
	m.publisher.Publish(event.Event{Topic: TopicDidAddPreset, Payload: PresetEvent{Preset: p}})
	return nil
}

// Remove удаляет пресет и сохраняет набор. Отсутствующий пресет игнорируется.
// Удалённый пресет становится отсоединённым.
func (m *Manager) Remove(p *Preset) error {
	idx := m.indexOf(p)
	if idx < 0 {
		return nil
	}

	m.publisher.Publish(event.Event{Topic: TopicWillRemovePreset, Payload: PresetEvent{Preset: p}})

	prev := m.presets
	m.presets = append(append(make([]*Preset, 0, len(prev)-1), prev[:idx]...), prev[idx+1:]...)
	p.detach()

	if err := m.Persist(); err != nil {
		m.presets = prev
		_ = p.attach(m)
		return err
	}

	m.logger.Debug("пресет удалён", zap.String("name", p.Name()))
	m.publisher.Publish(event.Event{Topic: TopicDidRemovePreset, Payload: PresetEvent{Preset: p}})
	return nil
}

// Replace ставит p на место old одной записью в хранилище. Имя p должно
// совпадать с именем old или быть свободным. При ошибке набор не меняется.
func (m *Manager) Replace(old, p *Preset) error {
	idx := m.indexOf(old)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, old.Name())
	}
	if other := m.Find(p.Name()); other != nil && other != old {
		return fmt.Errorf("%w: %q", ErrNameInUse, p.Name())
	}
	if p.State() == Attached {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, p.Name())
	}

	m.publisher.Publish(event.Event{Topic: TopicWillRemovePreset, Payload: PresetEvent{Preset: old}})
	m.publisher.Publish(event.Event{Topic: TopicWillAddPreset, Payload: PresetEvent{Preset: p}})

	old.detach()
	_ = p.attach(m)
	m.presets[idx] = p

	if err := m.Persist(); err != nil {
		m.presets[idx] = old
		p.detach()
		_ = old.attach(m)
		return err
	}

	m.logger.Debug("пресет заменён", zap.String("name", p.Name()))
	m.publisher.Publish(event.Event{Topic: TopicDidRemovePreset, Payload: PresetEvent{Preset: old}})
	m.publisher.Publish(event.Event{Topic: TopicDidAddPreset, Payload: PresetEvent{Preset: p}})
	return nil
}

// RemoveByName удаляет пресет по имени. Отсутствующее имя игнорируется.
func (m *Manager) RemoveByName(name string) error {
	p := m.Find(name)
	if p == nil {
		return nil
	}
	return m.Remove(p)
}

// Reload заменяет пресеты содержимым хранилища и сохраняет их в текущем формате.
func (m *Manager) Reload() error {
	raw, err := m.store.GetDefault(m.key, map[string]any{})
	if err != nil {
		return fmt.Errorf("не удалось прочитать пресеты: %w", err)
	}
	presets, err := DecodeCollection(raw)
	if err != nil {
		return err
	}

	m.replace(presets)
	return m.Persist()
}

// ReloadIfChanged перечитывает хранилище, только если его содержимое
// отличается от последнего записанного. Возвращает true, если набор заменён.
func (m *Manager) ReloadIfChanged() (bool, error) {
	raw, err := m.store.GetDefault(m.key, map[string]any{})
	if err != nil {
		return false, fmt.Errorf("не удалось прочитать пресеты: %w", err)
	}
	if bytes.Equal(encodeSnapshot(raw), m.lastWritten) {
		return false, nil
	}

	presets, err := DecodeCollection(raw)
	if err != nil {
		return false, err
	}
	m.replace(presets)
	if err := m.Persist(); err != nil {
		return false, err
	}
	m.logger.Info("пресеты перечитаны из хранилища", zap.Int("count", len(presets)))
	return true, nil
}

// LoadFactoryDefaults добавляет встроенные пресеты. При overwrite набор
// предварительно очищается через Remove, так что подписчики получают
// события удаления для каждого пресета. Пресеты с занятыми именами пропускаются.
func (m *Manager) LoadFactoryDefaults(overwrite bool) error {
	if overwrite {
		for _, p := range slices.Clone(m.presets) {
			if err := m.Remove(p); err != nil {
				return err
			}
		}
	}

	for _, p := range FactoryPresets() {
		if err := m.Add(p); err != nil {
			if errors.Is(err, ErrNameInUse) {
				m.logger.Debug("встроенный пресет пропущен", zap.String("name", p.Name()))
				continue
			}
			return err
		}
	}
	return m.Persist()
}

// Snapshot возвращает словарь имя -> поля, который записывается в хранилище.
func (m *Manager) Snapshot() map[string]any {
	return EncodeCollection(m.presets)
}

// Persist записывает все пресеты в хранилище одной операцией.
func (m *Manager) Persist() error {
	data := m.Snapshot()
	if err := m.store.SetDefault(m.key, data); err != nil {
		return fmt.Errorf("не удалось сохранить пресеты: %w", err)
	}
	m.lastWritten = encodeSnapshot(data)
	return nil
}

func (m *Manager) replace(presets []*Preset) {
	for _, p := range m.presets {
		p.detach()
	}
	for _, p := range presets {
		_ = p.attach(m)
	}
	m.presets = presets
}

func (m *Manager) indexOf(p *Preset) int {
	for i, q := range m.presets {
		if q == p {
			return i
		}
	}
	return -1
}

// encodeSnapshot приводит содержимое хранилища к каноническому JSON для сравнения.
func encodeSnapshot(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
