// Package preset содержит модель пресетов изображения и менеджер пресетов.
package preset

import (
	"fmt"
)

// Field - имя поля пресета.
type Field string

const (
	FieldName       Field = "name"
	FieldBrightness Field = "brightness"
	FieldContrast   Field = "contrast"
	FieldSaturation Field = "saturation"
	FieldSharpness  Field = "sharpness"
	FieldColor      Field = "color"
)

// ScalarFields возвращает числовые поля в порядке объявления.
func ScalarFields() []Field {
	return []Field{FieldBrightness, FieldContrast, FieldSaturation, FieldSharpness}
}

// Range - допустимый диапазон и значение по умолчанию для одного канала.
type Range struct {
	Min     float64
	Max     float64
	Default float64
}

// Contains проверяет, что v лежит в [Min, Max].
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Validate возвращает Default для nil, значение без изменений если оно в диапазоне,
// иначе ValidationError. Значение никогда не обрезается до границ.
func (r Range) Validate(field string, v *float64) (float64, error) {
	if v == nil {
		return r.Default, nil
	}
	if !r.Contains(*v) {
		return 0, &ValidationError{Field: field, Value: *v, Min: r.Min, Max: r.Max}
	}
	return *v, nil
}

// ColorRange - диапазоны каналов цвета.
type ColorRange struct {
	// RGB - диапазон красного, зелёного и синего каналов.
	RGB Range

	// Alpha - диапазон непрозрачности.
	Alpha Range

	// SingleDefault - цвет по умолчанию (nil = без наложения цвета).
	SingleDefault *Color
}

// Ranges содержит диапазоны числовых полей в пользовательской шкале.
var Ranges = map[Field]Range{
	FieldBrightness: {Min: -100, Max: 100, Default: 0},
	FieldContrast:   {Min: 25, Max: 400, Default: 100},
	FieldSaturation: {Min: 0, Max: 200, Default: 100},
	FieldSharpness:  {Min: 0, Max: 200, Default: 0},
}

// ColorRanges содержит диапазоны каналов цвета в пользовательской шкале.
var ColorRanges = ColorRange{
	RGB:   Range{Min: 0, Max: 255, Default: 0},
	Alpha: Range{Min: 0, Max: 100, Default: 100},
}

// NormalizedRange - шкала каналов цвета, которую ожидают фильтры.
var NormalizedRange = Range{Min: 0, Max: 1, Default: 1}

// filterDivisor переводит числовые поля в шкалу фильтров и обратно.
const filterDivisor = 100

// ValidationError - значение поля вне допустимого диапазона.
type ValidationError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("значение %s должно быть от %g до %g, получено: %g", e.Field, e.Min, e.Max, e.Value)
}

// NormalizeValue линейно переводит value из диапазона src в диапазон dst.
func NormalizeValue(value float64, src, dst Range) float64 {
	normalized := (value - src.Min) / (src.Max - src.Min)
	return normalized*(dst.Max-dst.Min) + dst.Min
}

// ToFilterValue переводит числовое поле из пользовательской шкалы в шкалу фильтра.
func ToFilterValue(user float64) float64 {
	return user / filterDivisor
}

// FromFilterValue переводит числовое поле из шкалы фильтра в пользовательскую шкалу.
func FromFilterValue(native float64) float64 {
	return native * filterDivisor
}

// ParseField возвращает числовое поле по имени.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := Ranges[f]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return f, nil
}
