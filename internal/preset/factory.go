package preset

// factoryPreset описывает встроенный пресет.
type factoryPreset struct {
	name  string
	color Color
}

// factoryPresets - встроенные пресеты в порядке добавления.
// У всех яркость 0, контраст 100, насыщенность 100, резкость 0.
var factoryPresets = []factoryPreset{
	{name: "Black & White", color: RGBA(0, 0, 0, 100)},
	{name: "Black & White - 40%", color: RGBA(0, 0, 0, 40)},
	{name: "Red", color: RGBA(255, 0, 0, 100)},
	{name: "Green", color: RGBA(0, 255, 0, 100)},
	{name: "Blue", color: RGBA(0, 0, 255, 100)},
}

// FactoryNames возвращает имена встроенных пресетов.
func FactoryNames() []string {
	names := make([]string, len(factoryPresets))
	for i, fp := range factoryPresets {
		names[i] = fp.name
	}
	return names
}

// FactoryPresets возвращает новые отсоединённые копии встроенных пресетов.
func FactoryPresets() []*Preset {
	presets := make([]*Preset, 0, len(factoryPresets))
	for _, fp := range factoryPresets {
		c := fp.color
		p, err := New(fp.name,
			WithBrightness(0),
			WithContrast(100),
			WithSaturation(100),
			WithSharpness(0),
			WithColor(&c),
		)
		if err != nil {
			// значения встроенных пресетов проверяются тестами
			panic(err)
		}
		presets = append(presets, p)
	}
	return presets
}
