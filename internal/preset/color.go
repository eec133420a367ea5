package preset

import (
	"fmt"
	"strconv"
	"strings"
)

// Color - цвет наложения в пользовательской шкале: RGB 0-255, alpha 0-100.
// В шкале фильтра все каналы лежат в [0, 1].
type Color struct {
	Red   float64
	Green float64
	Blue  float64
	Alpha float64
}

// RGBA создаёт цвет из четырёх каналов.
func RGBA(r, g, b, a float64) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: a}
}

// Channels возвращает каналы в порядке r, g, b, a.
func (c Color) Channels() [4]float64 {
	return [4]float64{c.Red, c.Green, c.Blue, c.Alpha}
}

// Slice возвращает каналы срезом, в таком виде цвет хранится в store.
func (c Color) Slice() []float64 {
	ch := c.Channels()
	return ch[:]
}

// String возвращает цвет в виде "RGBA(r, g, b, a)".
func (c Color) String() string {
	return fmt.Sprintf("RGBA(%g, %g, %g, %g)", c.Red, c.Green, c.Blue, c.Alpha)
}

// Normalized переводит цвет из пользовательской шкалы в шкалу фильтра.
func (c Color) Normalized() Color {
	return Color{
		Red:   NormalizeValue(c.Red, ColorRanges.RGB, NormalizedRange),
		Green: NormalizeValue(c.Green, ColorRanges.RGB, NormalizedRange),
		Blue:  NormalizeValue(c.Blue, ColorRanges.RGB, NormalizedRange),
		Alpha: NormalizeValue(c.Alpha, ColorRanges.Alpha, NormalizedRange),
	}
}

// Denormalized переводит цвет из шкалы фильтра в пользовательскую шкалу.
func (c Color) Denormalized() Color {
	return Color{
		Red:   NormalizeValue(c.Red, NormalizedRange, ColorRanges.RGB),
		Green: NormalizeValue(c.Green, NormalizedRange, ColorRanges.RGB),
		Blue:  NormalizeValue(c.Blue, NormalizedRange, ColorRanges.RGB),
		Alpha: NormalizeValue(c.Alpha, NormalizedRange, ColorRanges.Alpha),
	}
}

// Validate проверяет каналы цвета по ColorRanges.
func (c Color) Validate() error {
	names := [4]string{"red", "green", "blue", "alpha"}
	for i, v := range c.Channels() {
		r := ColorRanges.RGB
		if i == 3 {
			r = ColorRanges.Alpha
		}
		if !r.Contains(v) {
			return &ValidationError{Field: "color." + names[i], Value: v, Min: r.Min, Max: r.Max}
		}
	}
	return nil
}

// ToFilterColor переводит цвет в шкалу фильтра. При ignoreOpacity alpha
// принудительно равен 1, чтобы получить чистый оттенок без связи с непрозрачностью.
func ToFilterColor(c *Color, ignoreOpacity bool) *Color {
	if c == nil {
		return nil
	}
	src := *c
	if ignoreOpacity {
		src.Alpha = ColorRanges.Alpha.Max
	}
	n := src.Normalized()
	return &n
}

// FromFilterColor - обратное преобразование к ToFilterColor.
func FromFilterColor(c *Color, ignoreOpacity bool) *Color {
	if c == nil {
		return nil
	}
	src := *c
	if ignoreOpacity {
		src.Alpha = NormalizedRange.Max
	}
	d := src.Denormalized()
	return &d
}

// ParseColor разбирает цвет из строки "r,g,b,a". Alpha можно опустить, тогда он равен 100.
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("цвет должен быть в формате r,g,b[,a], получено: %q", s)
	}

	values := [4]float64{0, 0, 0, ColorRanges.Alpha.Default}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("некорректный канал цвета %q: %w", p, err)
		}
		values[i] = v
	}

	c := RGBA(values[0], values[1], values[2], values[3])
	if err := c.Validate(); err != nil {
		return Color{}, err
	}
	return c, nil
}
