package preset

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// Ключи старого формата, где цвет хранился пятью отдельными полями.
const legacyEnableColorKey = "enableColor"

var legacyColorKeys = [4]string{"red", "green", "blue", "alpha"}

// ToMap возвращает поля пресета в виде словаря, в котором он хранится.
// Цвет записывается как [r, g, b, a] или nil.
func (p *Preset) ToMap(includeName bool) map[string]any {
	m := map[string]any{
		string(FieldBrightness): p.brightness,
		string(FieldContrast):   p.contrast,
		string(FieldSaturation): p.saturation,
		string(FieldSharpness):  p.sharpness,
		string(FieldColor):      nil,
	}
	if p.color != nil {
		m[string(FieldColor)] = p.color.Slice()
	}
	if includeName {
		m[string(FieldName)] = p.name
	}
	return m
}

// FromMap создаёт отсоединённый пресет из словаря. Поддерживается и текущий
// формат с полем color, и старый с enableColor/red/green/blue/alpha.
// Исходный словарь не изменяется.
func FromMap(src map[string]any, opts ...Option) (*Preset, error) {
	m := make(map[string]any, len(src))
	for k, v := range src {
		m[k] = v
	}

	if err := bridgeLegacyColor(m); err != nil {
		return nil, err
	}

	rawName, ok := m[string(FieldName)]
	if !ok {
		return nil, ErrEmptyName
	}
	name, err := cast.ToStringE(rawName)
	if err != nil {
		return nil, fmt.Errorf("поле name: %w", err)
	}
	delete(m, string(FieldName))

	all := make([]Option, 0, len(m)+len(opts))
	for k, v := range m {
		switch f := Field(k); f {
		case FieldBrightness, FieldContrast, FieldSaturation, FieldSharpness:
			if v == nil {
				continue
			}
			x, err := cast.ToFloat64E(v)
			if err != nil {
				return nil, fmt.Errorf("поле %s: %w", k, err)
			}
			all = append(all, WithValue(f, x))
		case FieldColor:
			c, err := decodeColor(v)
			if err != nil {
				return nil, err
			}
			all = append(all, WithColor(c))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}

	return New(name, append(all, opts...)...)
}

// bridgeLegacyColor переводит старый формат в поле color.
// При enableColor=true недостающие каналы RGB равны 0, недостающий alpha
// означает полную непрозрачность. Ключи старого формата удаляются в любом случае.
func bridgeLegacyColor(m map[string]any) error {
	raw, ok := m[legacyEnableColorKey]
	if !ok {
		return nil
	}
	delete(m, legacyEnableColorKey)

	components := make(map[string]any, len(legacyColorKeys))
	for _, k := range legacyColorKeys {
		if v, present := m[k]; present {
			components[k] = v
			delete(m, k)
		}
	}

	enabled, err := cast.ToBoolE(raw)
	if err != nil {
		return fmt.Errorf("поле %s: %w", legacyEnableColorKey, err)
	}
	if !enabled {
		return nil
	}

	// Старый формат хранит alpha в шкале 0-100, как и текущий. Пропущенный
	// alpha означает полную непрозрачность, то есть 100, а не 255.
	ch := [4]float64{ColorRanges.RGB.Default, ColorRanges.RGB.Default, ColorRanges.RGB.Default, ColorRanges.Alpha.Max}
	for i, k := range legacyColorKeys {
		v, present := components[k]
		if !present || v == nil {
			continue
		}
		x, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("поле %s: %w", k, err)
		}
		ch[i] = x
	}

	m[string(FieldColor)] = RGBA(ch[0], ch[1], ch[2], ch[3])
	return nil
}

// decodeColor принимает Color, *Color или любую последовательность из четырёх чисел.
func decodeColor(v any) (*Color, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case Color:
		return &c, nil
	case *Color:
		return c, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("цвет должен быть последовательностью RGBA, получено: %T", v)
	}
	if rv.Len() != 4 {
		return nil, fmt.Errorf("цвет должен содержать 4 канала, получено: %d", rv.Len())
	}

	var ch [4]float64
	for i := range ch {
		x, err := cast.ToFloat64E(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("канал цвета %d: %w", i, err)
		}
		ch[i] = x
	}
	c := RGBA(ch[0], ch[1], ch[2], ch[3])
	return &c, nil
}

// EncodeCollection возвращает словарь имя -> поля, в котором хранятся пресеты.
func EncodeCollection(presets []*Preset) map[string]any {
	data := make(map[string]any, len(presets))
	for _, p := range presets {
		data[p.Name()] = p.ToMap(false)
	}
	return data
}

// DecodeCollection разбирает словарь имя -> поля. Порядок результата - по имени,
// так как словарь в хранилище порядка не сохраняет.
func DecodeCollection(raw any) ([]*Preset, error) {
	if raw == nil {
		return nil, nil
	}
	top, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, fmt.Errorf("некорректный формат пресетов: %w", err)
	}

	names := make([]string, 0, len(top))
	for name := range top {
		names = append(names, name)
	}
	sort.Strings(names)

	presets := make([]*Preset, 0, len(names))
	for _, name := range names {
		fields, err := cast.ToStringMapE(top[name])
		if err != nil {
			return nil, fmt.Errorf("пресет %q: %w", name, err)
		}
		src := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			src[k] = v
		}
		src[string(FieldName)] = name

		p, err := FromMap(src)
		if err != nil {
			return nil, fmt.Errorf("пресет %q: %w", name, err)
		}
		presets = append(presets, p)
	}
	return presets, nil
}
