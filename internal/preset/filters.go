package preset

import (
	"errors"
	"fmt"
)

// Типы фильтров, которые понимает слой композиции.
const (
	FilterColorControls  = "colorControls"
	FilterNoiseReduction = "noiseReduction"
	FilterFalseColor     = "falseColor"
)

// Filter - именованный набор параметров одного фильтра.
type Filter struct {
	// Name - имя фильтра в цепочке.
	Name string

	// Type - тип фильтра.
	Type string

	// Values - числовые параметры в шкале фильтра.
	Values map[string]float64

	// Colors - цветовые параметры в шкале фильтра.
	Colors map[string]Color
}

// FilterChain - упорядоченный список фильтров и непрозрачность слоя.
type FilterChain struct {
	Filters []Filter
	Opacity float64
}

// Layer - слой предпросмотра, к которому применяется цепочка фильтров.
type Layer interface {
	SetFilters(filters []Filter)
	AppendFilter(f Filter)
	SetOpacity(opacity float64)
}

// Filters возвращает параметры фильтров для предпросмотра. Фильтр falseColor
// присутствует только при заданном цвете; его непрозрачность переносится в Opacity.
func (p *Preset) Filters() FilterChain {
	chain := FilterChain{
		Filters: []Filter{
			{
				Name: FilterColorControls,
				Type: FilterColorControls,
				Values: map[string]float64{
					"saturation": ToFilterValue(p.saturation),
					"brightness": ToFilterValue(p.brightness),
					"contrast":   ToFilterValue(p.contrast),
				},
			},
			{
				Name: FilterNoiseReduction,
				Type: FilterNoiseReduction,
				Values: map[string]float64{
					"noiseLevel": 0,
					"sharpness":  ToFilterValue(p.sharpness),
				},
			},
		},
		Opacity: 1,
	}

	if p.color != nil {
		chain.Filters = append(chain.Filters, Filter{
			Name: FilterFalseColor,
			Type: FilterFalseColor,
			Colors: map[string]Color{
				"color0": *ToFilterColor(p.color, true),
				"color1": RGBA(1, 1, 1, 1),
			},
		})
		chain.Opacity = p.color.Normalized().Alpha
	}

	return chain
}

// ApplyToLayer добавляет фильтры пресета в слой. При overwrite прежние фильтры удаляются.
func (p *Preset) ApplyToLayer(layer Layer, overwrite bool) {
	if layer == nil {
		return
	}
	if overwrite {
		layer.SetFilters(nil)
	}
	chain := p.Filters()
	for _, f := range chain.Filters {
		layer.AppendFilter(f)
	}
	layer.SetOpacity(chain.Opacity)
}

// ImageState - состояние фильтров фонового изображения в шкале фильтра.
type ImageState struct {
	Color      *Color
	Brightness float64
	Contrast   float64
	Saturation float64
	Sharpness  float64
}

// Image - фоновое изображение глифа с записью отмены.
// Изменения полей делаются между PrepareUndo и PerformUndo.
type Image interface {
	State() ImageState
	PrepareUndo(title string)
	SetColor(c *Color) error
	SetBrightness(v float64) error
	SetContrast(v float64) error
	SetSaturation(v float64) error
	SetSharpness(v float64) error
	PerformUndo() error
}

// FilterState возвращает значения пресета в шкале фильтра с сохранением непрозрачности цвета.
func (p *Preset) FilterState() ImageState {
	return ImageState{
		Color:      ToFilterColor(p.color, false),
		Brightness: ToFilterValue(p.brightness),
		Contrast:   ToFilterValue(p.contrast),
		Saturation: ToFilterValue(p.saturation),
		Sharpness:  ToFilterValue(p.sharpness),
	}
}

// ApplyToImage записывает значения пресета в изображение внутри одной записи отмены.
// PerformUndo вызывается всегда. Если запись поля не удалась, прежнее состояние
// изображения восстанавливается до PerformUndo.
func (p *Preset) ApplyToImage(img Image) (err error) {
	if img == nil {
		return nil
	}

	before := img.State()
	img.PrepareUndo(fmt.Sprintf("Применить пресет %q", p.name))
	defer func() {
		if perr := img.PerformUndo(); perr != nil {
			err = errors.Join(err, perr)
		}
	}()

	if err = writeImageState(img, p.FilterState()); err != nil {
		if rerr := writeImageState(img, before); rerr != nil {
			err = errors.Join(err, fmt.Errorf("не удалось восстановить изображение: %w", rerr))
		}
		return err
	}
	return nil
}

func writeImageState(img Image, s ImageState) error {
	if err := img.SetColor(s.Color); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if err := img.SetBrightness(s.Brightness); err != nil {
		return fmt.Errorf("brightness: %w", err)
	}
	if err := img.SetContrast(s.Contrast); err != nil {
		return fmt.Errorf("contrast: %w", err)
	}
	if err := img.SetSaturation(s.Saturation); err != nil {
		return fmt.Errorf("saturation: %w", err)
	}
	if err := img.SetSharpness(s.Sharpness); err != nil {
		return fmt.Errorf("sharpness: %w", err)
	}
	return nil
}

// FromImage создаёт отсоединённый пресет из текущего состояния изображения.
func FromImage(img Image, name string, opts ...Option) (*Preset, error) {
	s := img.State()
	all := []Option{
		WithBrightness(s.Brightness),
		WithContrast(s.Contrast),
		WithSaturation(s.Saturation),
		WithSharpness(s.Sharpness),
		WithColor(s.Color),
		FromFilterScale(),
	}
	return New(name, append(all, opts...)...)
}
