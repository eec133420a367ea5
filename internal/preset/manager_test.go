package preset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/imagepresets/internal/event"
	"github.com/artemshloyda/imagepresets/internal/storage"
)

// flakyStore - хранилище в памяти, которое может отказать при записи.
type flakyStore struct {
	*storage.Memory
	failWrites error
}

func newMemStore() *flakyStore {
	return &flakyStore{Memory: storage.NewMemory()}
}

func (s *flakyStore) SetDefault(key string, value any) error {
	if s.failWrites != nil {
		return s.failWrites
	}
	return s.Memory.SetDefault(key, value)
}

func newPreset(t *testing.T, name string, opts ...Option) *Preset {
	t.Helper()
	p, err := New(name, opts...)
	require.NoError(t, err)
	return p
}

func TestManager_InitEmptyStoreLoadsFactory(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)

	require.NoError(t, m.Init())
	require.Equal(t, FactoryNames(), m.Names())

	raw, err := store.GetDefault(DefaultKey, nil)
	require.NoError(t, err)
	require.Len(t, raw, 5)
}

func TestManager_InitFromStore(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetDefault(DefaultKey, map[string]any{
		"Old": map[string]any{
			"brightness": 0, "contrast": 100, "saturation": 100, "sharpness": 0,
			"enableColor": true, "red": 10, "green": 20, "blue": 30, "alpha": 100,
		},
		"New": map[string]any{"contrast": 150, "color": nil},
	}))
	writes := store.Writes

	m := NewManager(store)
	require.NoError(t, m.Init())

	require.Equal(t, []string{"New", "Old"}, m.Names())
	old := m.Find("Old")
	require.NotNil(t, old)
	require.Equal(t, RGBA(10, 20, 30, 100), *old.Color())
	require.Equal(t, Attached, old.State())
	require.Equal(t, writes, store.Writes, "Init must not rewrite the store")
}

func TestManager_InitInvalidStore(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetDefault(DefaultKey, map[string]any{"bad": map[string]any{"contrast": 1}}))

	require.Error(t, NewManager(store).Init())
}

func TestManager_FactoryDefaults(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.LoadFactoryDefaults(true))

	require.Equal(t, []string{"Black & White", "Black & White - 40%", "Red", "Green", "Blue"}, m.Names())

	want := map[string]Color{
		"Black & White":       RGBA(0, 0, 0, 100),
		"Black & White - 40%": RGBA(0, 0, 0, 40),
		"Red":                 RGBA(255, 0, 0, 100),
		"Green":               RGBA(0, 255, 0, 100),
		"Blue":                RGBA(0, 0, 255, 100),
	}
	for _, p := range m.Presets() {
		require.Equal(t, 0.0, p.Brightness(), p.Name())
		require.Equal(t, 100.0, p.Contrast(), p.Name())
		require.Equal(t, 100.0, p.Saturation(), p.Name())
		require.Equal(t, 0.0, p.Sharpness(), p.Name())
		require.Equal(t, want[p.Name()], *p.Color(), p.Name())
	}
}

func TestManager_FactoryDefaultsSkipsCollisions(t *testing.T) {
	m := NewManager(newMemStore())
	custom := newPreset(t, "Red", WithBrightness(42))
	require.NoError(t, m.Add(custom))

	require.NoError(t, m.LoadFactoryDefaults(false))

	require.Equal(t, 5, m.Len())
	require.Same(t, custom, m.Find("Red"))
	require.Equal(t, 42.0, m.Find("Red").Brightness())

	require.NoError(t, m.LoadFactoryDefaults(true))
	require.Equal(t, 5, m.Len())
	require.Equal(t, 0.0, m.Find("Red").Brightness())
	require.Equal(t, Detached, custom.State())
}

func TestManager_FactoryOverwritePublishesRemoval(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newMemStore(), WithEvents(rec))
	require.NoError(t, m.Add(newPreset(t, "mine")))
	rec.events = nil

	require.NoError(t, m.LoadFactoryDefaults(true))
	require.Nil(t, m.Find("mine"))
	require.Equal(t, TopicWillRemovePreset, rec.topics()[0])
	require.Equal(t, TopicDidRemovePreset, rec.topics()[1])
	removed := rec.events[1].Payload.(PresetEvent).Preset
	require.Equal(t, "mine", removed.Name())
}

func TestManager_Replace(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newMemStore(), WithEvents(rec))
	require.NoError(t, m.Add(newPreset(t, "a")))
	old := newPreset(t, "b", WithBrightness(5))
	require.NoError(t, m.Add(old))
	require.NoError(t, m.Add(newPreset(t, "c")))
	rec.events = nil

	p := newPreset(t, "b", WithBrightness(-5))
	require.NoError(t, m.Replace(old, p))
	require.Equal(t, []string{"a", "b", "c"}, m.Names())
	require.Same(t, p, m.Find("b"))
	require.Equal(t, Attached, p.State())
	require.Equal(t, Detached, old.State())
	require.Equal(t, []string{
		TopicWillRemovePreset, TopicWillAddPreset, TopicDidRemovePreset, TopicDidAddPreset,
	}, rec.topics())

	require.ErrorIs(t, m.Replace(p, newPreset(t, "a")), ErrNameInUse)
	require.ErrorIs(t, m.Replace(old, newPreset(t, "x")), ErrNotFound)
}

func TestManager_ReplaceRollsBackOnWriteFailure(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	old := newPreset(t, "keep", WithContrast(300))
	require.NoError(t, m.Add(old))
	writes := store.Writes

	store.failWrites = errors.New("диск заполнен")
	p := newPreset(t, "keep")
	require.Error(t, m.Replace(old, p))

	require.Same(t, old, m.Find("keep"))
	require.Equal(t, Attached, old.State())
	require.Equal(t, Detached, p.State())
	require.Equal(t, writes, store.Writes)

	store.failWrites = nil
	reloaded := NewManager(store)
	require.NoError(t, reloaded.Init())
	require.Equal(t, 300.0, reloaded.Find("keep").Contrast())
}

func TestManager_UniqueName(t *testing.T) {
	m := NewManager(newMemStore())
	require.Equal(t, DefaultName, m.UniqueName(DefaultName))

	require.NoError(t, m.Add(newPreset(t, DefaultName)))
	require.Equal(t, "New Preset 1", m.UniqueName(DefaultName))

	require.NoError(t, m.Add(newPreset(t, "New Preset 1")))
	require.NoError(t, m.Add(newPreset(t, "New Preset 3")))
	require.Equal(t, "New Preset 2", m.UniqueName(DefaultName))
}

func TestManager_AddFind(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newMemStore(), WithEvents(rec))
	p := newPreset(t, "mine", WithSaturation(0))

	require.NoError(t, m.Add(p))
	require.True(t, m.HasAny())
	require.True(t, m.Find("mine").Equal(p))
	require.Equal(t, Attached, p.State())
	require.Equal(t, []string{TopicWillAddPreset, TopicDidAddPreset}, rec.topics())

	dup := newPreset(t, "mine")
	err := m.Add(dup)
	require.ErrorIs(t, err, ErrNameInUse)
	require.Equal(t, 1, m.Len())
	require.Equal(t, Detached, dup.State())

	other := NewManager(newMemStore())
	require.ErrorIs(t, other.Add(p), ErrAlreadyAttached)

	got, err := m.Get("nope")
	require.Nil(t, got)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Remove(t *testing.T) {
	rec := &recorder{}
	store := newMemStore()
	m := NewManager(store, WithEvents(rec))
	p := newPreset(t, "gone")
	require.NoError(t, m.Add(p))
	rec.events = nil

	require.NoError(t, m.Remove(p))
	require.Nil(t, m.Find("gone"))
	require.False(t, m.HasAny())
	require.Equal(t, Detached, p.State())
	require.Equal(t, []string{TopicWillRemovePreset, TopicDidRemovePreset}, rec.topics())

	writes := store.Writes
	require.NoError(t, m.Remove(p))
	require.NoError(t, m.RemoveByName("absent"))
	require.Equal(t, writes, store.Writes)

	// изменение удалённого пресета больше не сохраняет менеджер
	require.NoError(t, p.SetContrast(200))
	require.Equal(t, writes, store.Writes)
}

func TestManager_RemoveByName(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.Add(newPreset(t, "a")))
	require.NoError(t, m.Add(newPreset(t, "b")))

	require.NoError(t, m.RemoveByName("a"))
	require.Equal(t, []string{"b"}, m.Names())
}

func TestManager_FieldChangePersists(t *testing.T) {
	store := newMemStore()
	bus := event.NewBus(nil)
	var changes []ChangeEvent
	bus.Subscribe(TopicDidChangePreset, func(ev event.Event) {
		changes = append(changes, ev.Payload.(ChangeEvent))
	})

	m := NewManager(store, WithEvents(bus))
	p := newPreset(t, "p")
	require.NoError(t, m.Add(p))

	require.NoError(t, p.SetBrightness(25))
	require.Len(t, changes, 1)
	require.Equal(t, 25.0, changes[0].New["brightness"])

	raw, err := store.GetDefault(DefaultKey, nil)
	require.NoError(t, err)
	fields := raw.(map[string]any)["p"].(map[string]any)
	require.Equal(t, 25.0, fields["brightness"])
}

func TestManager_PersistFailureRollsBack(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	p := newPreset(t, "p")
	require.NoError(t, m.Add(p))

	boom := errors.New("disk full")
	store.failWrites = boom

	require.ErrorIs(t, p.SetSharpness(10), boom)
	require.Equal(t, 0.0, p.Sharpness())

	q := newPreset(t, "q")
	require.ErrorIs(t, m.Add(q), boom)
	require.Nil(t, m.Find("q"))
	require.Equal(t, Detached, q.State())

	require.ErrorIs(t, m.Remove(p), boom)
	require.Same(t, p, m.Find("p"))
	require.Equal(t, Attached, p.State())
}

func TestManager_Rename(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	a := newPreset(t, "a")
	b := newPreset(t, "b")
	require.NoError(t, m.Add(a))
	require.NoError(t, m.Add(b))

	require.ErrorIs(t, a.SetName("b"), ErrNameInUse)
	require.Equal(t, "a", a.Name())
	require.Equal(t, "b", b.Name())

	writes := store.Writes
	require.NoError(t, a.SetName("a"))
	require.Equal(t, writes+1, store.Writes)

	require.NoError(t, a.SetName("c"))
	raw, err := store.GetDefault(DefaultKey, nil)
	require.NoError(t, err)
	top := raw.(map[string]any)
	require.Contains(t, top, "c")
	require.NotContains(t, top, "a")

	require.ErrorIs(t, a.SetName(""), ErrEmptyName)
}

func TestManager_PersistReload(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	require.NoError(t, m.LoadFactoryDefaults(true))
	c := RGBA(1, 2, 3, 4)
	require.NoError(t, m.Add(newPreset(t, "custom", WithColor(&c), WithBrightness(-7.5))))
	require.NoError(t, m.Add(newPreset(t, "plain")))

	before := map[string]*Preset{}
	for _, p := range m.Presets() {
		before[p.Name()] = p.Copy()
	}

	require.NoError(t, m.Persist())
	require.NoError(t, m.Reload())

	require.Equal(t, len(before), m.Len())
	for _, p := range m.Presets() {
		require.True(t, p.Equal(before[p.Name()]), p.Name())
		require.Equal(t, Attached, p.State())
	}
}

func TestManager_ReloadRewritesLegacyShape(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.SetDefault(DefaultKey, map[string]any{
		"Old": map[string]any{"enableColor": false, "red": 1},
	}))

	m := NewManager(store)
	require.NoError(t, m.Reload())

	raw, err := store.GetDefault(DefaultKey, nil)
	require.NoError(t, err)
	fields := raw.(map[string]any)["Old"].(map[string]any)
	require.NotContains(t, fields, "enableColor")
	require.Contains(t, fields, "color")
	require.Nil(t, fields["color"])
}

func TestManager_ReloadIfChanged(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	require.NoError(t, m.Init())

	changed, err := m.ReloadIfChanged()
	require.NoError(t, err)
	require.False(t, changed)

	// другой процесс записал в хранилище
	other := NewManager(store)
	require.NoError(t, other.Init())
	require.NoError(t, other.RemoveByName("Red"))

	changed, err = m.ReloadIfChanged()
	require.NoError(t, err)
	require.True(t, changed)
	require.Nil(t, m.Find("Red"))

	changed, err = m.ReloadIfChanged()
	require.NoError(t, err)
	require.False(t, changed)
}

func TestManager_ReloadDetachesOldPresets(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.LoadFactoryDefaults(true))
	old := m.Find("Blue")

	require.NoError(t, m.Reload())
	require.Equal(t, Detached, old.State())
	require.NotSame(t, old, m.Find("Blue"))
	require.True(t, old.Equal(m.Find("Blue")))
}

func TestManager_WithKey(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, WithKey("custom.key"))
	require.NoError(t, m.Add(newPreset(t, "x")))

	raw, err := store.GetDefault("custom.key", nil)
	require.NoError(t, err)
	require.Contains(t, raw, "x")

	raw, err = store.GetDefault(DefaultKey, "missing")
	require.NoError(t, err)
	require.Equal(t, "missing", raw)
}
