package preset

import "github.com/artemshloyda/imagepresets/internal/event"

// Имена событий менеджера пресетов.
const (
	TopicWillAddPreset    = "imagePresetsManagerWillAddPreset"
	TopicDidAddPreset     = "imagePresetsManagerDidAddPreset"
	TopicWillRemovePreset = "imagePresetsManagerWillRemovePreset"
	TopicDidRemovePreset  = "imagePresetsManagerDidRemovePreset"
	TopicDidChangePreset  = "imagePresetsManagerDidChangePreset"
)

// Publisher принимает события пресетов. *event.Bus удовлетворяет этому интерфейсу.
type Publisher interface {
	Publish(ev event.Event)
}

// PresetEvent - полезная нагрузка событий добавления и удаления.
type PresetEvent struct {
	Preset *Preset
}

// ChangeEvent - полезная нагрузка события изменения пресета.
type ChangeEvent struct {
	// Old - снимок полей до изменения.
	Old map[string]any

	// New - снимок полей после изменения.
	New map[string]any

	// Preset - изменённый пресет.
	Preset *Preset
}

type nopPublisher struct{}

func (nopPublisher) Publish(event.Event) {}
