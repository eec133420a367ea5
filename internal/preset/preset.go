package preset

import (
	"fmt"
	"math"
	"strings"

	"github.com/artemshloyda/imagepresets/internal/event"
)

// State - принадлежность пресета менеджеру.
type State int

const (
	// Detached - пресет существует сам по себе, изменения не сохраняются.
	Detached State = iota
	// Attached - пресет принадлежит менеджеру, каждое изменение сохраняет весь менеджер.
	Attached
)

func (s State) String() string {
	if s == Attached {
		return "attached"
	}
	return "detached"
}

// values - данные пресета без служебного состояния.
type values struct {
	name       string
	brightness float64
	contrast   float64
	saturation float64
	sharpness  float64
	color      *Color
}

func (v values) clone() values {
	if v.color != nil {
		c := *v.color
		v.color = &c
	}
	return v
}

func (v *values) set(f Field, x float64) {
	switch f {
	case FieldBrightness:
		v.brightness = x
	case FieldContrast:
		v.contrast = x
	case FieldSaturation:
		v.saturation = x
	case FieldSharpness:
		v.sharpness = x
	}
}

func (v values) get(f Field) float64 {
	switch f {
	case FieldBrightness:
		return v.brightness
	case FieldContrast:
		return v.contrast
	case FieldSaturation:
		return v.saturation
	case FieldSharpness:
		return v.sharpness
	}
	return 0
}

// Preset - именованный набор настроек изображения.
type Preset struct {
	values

	state     State
	manager   *Manager
	publisher Publisher
}

type options struct {
	values      map[Field]float64
	color       *Color
	filterScale bool
	publisher   Publisher
}

// Option настраивает создаваемый пресет.
type Option func(*options)

// WithValue задаёт числовое поле.
func WithValue(f Field, v float64) Option {
	return func(o *options) { o.values[f] = v }
}

// WithBrightness задаёт яркость.
func WithBrightness(v float64) Option { return WithValue(FieldBrightness, v) }

// WithContrast задаёт контраст.
func WithContrast(v float64) Option { return WithValue(FieldContrast, v) }

// WithSaturation задаёт насыщенность.
func WithSaturation(v float64) Option { return WithValue(FieldSaturation, v) }

// WithSharpness задаёт резкость.
func WithSharpness(v float64) Option { return WithValue(FieldSharpness, v) }

// WithColor задаёт цвет наложения. nil означает отсутствие наложения.
func WithColor(c *Color) Option {
	return func(o *options) {
		if c == nil {
			o.color = nil
			return
		}
		cc := *c
		o.color = &cc
	}
}

// FromFilterScale указывает, что значения переданы в шкале фильтра
// и должны быть переведены в пользовательскую шкалу.
func FromFilterScale() Option {
	return func(o *options) { o.filterScale = true }
}

// WithPublisher задаёт получателя событий для пресета вне менеджера.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// New создаёт отсоединённый пресет. Незаданные поля получают значения по умолчанию.
func New(name string, opts ...Option) (*Preset, error) {
	o := options{values: make(map[Field]float64)}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateName(name); err != nil {
		return nil, err
	}

	p := &Preset{publisher: o.publisher}
	p.name = name

	for _, f := range ScalarFields() {
		var raw *float64
		if v, ok := o.values[f]; ok {
			if o.filterScale {
				v = snapToEdge(FromFilterValue(v), Ranges[f])
			}
			raw = &v
		}
		v, err := Ranges[f].Validate(string(f), raw)
		if err != nil {
			return nil, err
		}
		p.values.set(f, v)
	}

	color := o.color
	if color != nil && o.filterScale {
		color = FromFilterColor(color, false)
		rgb, alpha := ColorRanges.RGB, ColorRanges.Alpha
		*color = RGBA(snapToEdge(color.Red, rgb), snapToEdge(color.Green, rgb), snapToEdge(color.Blue, rgb), snapToEdge(color.Alpha, alpha))
	}
	if color != nil {
		if err := color.Validate(); err != nil {
			return nil, err
		}
	}
	p.color = color

	return p, nil
}

// edgeTolerance - допуск, в пределах которого значение прижимается к границе диапазона.
const edgeTolerance = 1e-9

// snapToEdge прижимает к границе значение, отличающееся от неё на погрешность перевода.
// Остальные значения не меняются, поэтому обратный перевод в шкалу фильтра точен.
func snapToEdge(v float64, r Range) float64 {
	switch {
	case math.Abs(v-r.Min) <= edgeTolerance:
		return r.Min
	case math.Abs(v-r.Max) <= edgeTolerance:
		return r.Max
	}
	return v
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Name возвращает имя пресета.
func (p *Preset) Name() string { return p.name }

// Brightness возвращает яркость (-100..100).
func (p *Preset) Brightness() float64 { return p.brightness }

// Contrast возвращает контраст (25..400).
func (p *Preset) Contrast() float64 { return p.contrast }

// Saturation возвращает насыщенность (0..200).
func (p *Preset) Saturation() float64 { return p.saturation }

// Sharpness возвращает резкость (0..200).
func (p *Preset) Sharpness() float64 { return p.sharpness }

// Value возвращает числовое поле по имени.
func (p *Preset) Value(f Field) float64 { return p.values.get(f) }

// Color возвращает копию цвета наложения или nil.
func (p *Preset) Color() *Color {
	if p.color == nil {
		return nil
	}
	c := *p.color
	return &c
}

// HasColor сообщает, задан ли цвет наложения.
func (p *Preset) HasColor() bool { return p.color != nil }

// State возвращает состояние принадлежности менеджеру.
func (p *Preset) State() State { return p.state }

// SetValue задаёт числовое поле. nil сбрасывает поле к значению по умолчанию.
// Значение вне диапазона возвращает ValidationError, пресет не меняется.
func (p *Preset) SetValue(f Field, v *float64) error {
	r, ok := Ranges[f]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	nv, err := r.Validate(string(f), v)
	if err != nil {
		return err
	}
	return p.mutate(func(vals *values) { vals.set(f, nv) })
}

// ResetValue сбрасывает числовое поле к значению по умолчанию.
func (p *Preset) ResetValue(f Field) error { return p.SetValue(f, nil) }

// SetBrightness задаёт яркость.
func (p *Preset) SetBrightness(v float64) error { return p.SetValue(FieldBrightness, &v) }

// SetContrast задаёт контраст.
func (p *Preset) SetContrast(v float64) error { return p.SetValue(FieldContrast, &v) }

// SetSaturation задаёт насыщенность.
func (p *Preset) SetSaturation(v float64) error { return p.SetValue(FieldSaturation, &v) }

// SetSharpness задаёт резкость.
func (p *Preset) SetSharpness(v float64) error { return p.SetValue(FieldSharpness, &v) }

// SetColor задаёт цвет наложения. nil убирает наложение.
func (p *Preset) SetColor(c *Color) error {
	var nc *Color
	if c != nil {
		if err := c.Validate(); err != nil {
			return err
		}
		cc := *c
		nc = &cc
	}
	return p.mutate(func(vals *values) { vals.color = nc })
}

// SetName переименовывает пресет. Для пресета в менеджере имя должно быть
// свободно; переименование в текущее имя только сохраняет менеджер.
func (p *Preset) SetName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if p.state == Attached {
		if name == p.name {
			return p.manager.Persist()
		}
		if other := p.manager.Find(name); other != nil {
			return fmt.Errorf("%w: %q", ErrNameInUse, name)
		}
	}
	return p.mutate(func(vals *values) { vals.name = name })
}

// mutate применяет изменение, сохраняет менеджер и публикует событие.
// Если сохранение не удалось, изменение откатывается.
func (p *Preset) mutate(change func(*values)) error {
	prev := p.values.clone()
	oldMap := p.ToMap(true)

	change(&p.values)

	if p.state == Attached {
		if err := p.manager.Persist(); err != nil {
			p.values = prev
			return err
		}
	}

	p.events().Publish(event.Event{
		Topic:   TopicDidChangePreset,
		Payload: ChangeEvent{Old: oldMap, New: p.ToMap(true), Preset: p},
	})
	return nil
}

func (p *Preset) events() Publisher {
	if p.state == Attached && p.manager.publisher != nil {
		return p.manager.publisher
	}
	if p.publisher != nil {
		return p.publisher
	}
	return nopPublisher{}
}

func (p *Preset) attach(m *Manager) error {
	if p.state == Attached {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, p.name)
	}
	p.state = Attached
	p.manager = m
	return nil
}

func (p *Preset) detach() {
	p.state = Detached
	p.manager = nil
}

// Copy возвращает глубокую копию пресета, не принадлежащую менеджеру.
func (p *Preset) Copy() *Preset {
	return &Preset{values: p.values.clone(), publisher: p.publisher}
}

// Equal сравнивает имя и значения полей.
func (p *Preset) Equal(other *Preset) bool {
	if p == nil || other == nil {
		return p == other
	}
	a, b := p.values, other.values
	if a.name != b.name || a.brightness != b.brightness || a.contrast != b.contrast ||
		a.saturation != b.saturation || a.sharpness != b.sharpness {
		return false
	}
	if (a.color == nil) != (b.color == nil) {
		return false
	}
	return a.color == nil || *a.color == *b.color
}

func (p *Preset) String() string {
	color := "none"
	if p.color != nil {
		color = p.color.String()
	}
	return fmt.Sprintf("Preset(name=%q, brightness=%g, contrast=%g, saturation=%g, sharpness=%g, color=%s)",
		p.name, p.brightness, p.contrast, p.saturation, p.sharpness, color)
}
