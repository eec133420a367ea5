package preset

import (
	"errors"
	"math"
	"testing"
)

func TestFilters_WithoutColor(t *testing.T) {
	p, _ := New("p", WithBrightness(-50), WithContrast(200), WithSaturation(0), WithSharpness(40))

	chain := p.Filters()
	if len(chain.Filters) != 2 {
		t.Fatalf("len(Filters) = %d, want 2", len(chain.Filters))
	}
	cc := chain.Filters[0]
	if cc.Type != FilterColorControls || cc.Values["brightness"] != -0.5 ||
		cc.Values["contrast"] != 2 || cc.Values["saturation"] != 0 {
		t.Errorf("colorControls = %+v", cc)
	}
	nr := chain.Filters[1]
	if nr.Type != FilterNoiseReduction || nr.Values["noiseLevel"] != 0 || math.Abs(nr.Values["sharpness"]-0.4) > epsilon {
		t.Errorf("noiseReduction = %+v", nr)
	}
	if chain.Opacity != 1 {
		t.Errorf("Opacity = %g, want 1", chain.Opacity)
	}
}

func TestFilters_WithColor(t *testing.T) {
	c := RGBA(255, 0, 0, 40)
	p, _ := New("p", WithColor(&c))

	chain := p.Filters()
	if len(chain.Filters) != 3 {
		t.Fatalf("len(Filters) = %d, want 3", len(chain.Filters))
	}
	fc := chain.Filters[2]
	if fc.Type != FilterFalseColor {
		t.Fatalf("third filter = %s", fc.Type)
	}
	if fc.Colors["color0"] != RGBA(1, 0, 0, 1) {
		t.Errorf("color0 = %v, opacity must not be baked in", fc.Colors["color0"])
	}
	if fc.Colors["color1"] != RGBA(1, 1, 1, 1) {
		t.Errorf("color1 = %v", fc.Colors["color1"])
	}
	if math.Abs(chain.Opacity-0.4) > epsilon {
		t.Errorf("Opacity = %g, want 0.4", chain.Opacity)
	}
}

type fakeLayer struct {
	filters []Filter
	opacity float64
	cleared bool
}

func (l *fakeLayer) SetFilters(f []Filter) { l.filters = f; l.cleared = true }
func (l *fakeLayer) AppendFilter(f Filter) { l.filters = append(l.filters, f) }
func (l *fakeLayer) SetOpacity(o float64)  { l.opacity = o }

func TestApplyToLayer(t *testing.T) {
	p, _ := New("p")
	l := &fakeLayer{filters: []Filter{{Name: "old"}}}

	p.ApplyToLayer(l, false)
	if len(l.filters) != 3 || l.cleared {
		t.Errorf("append mode: %d filters, cleared=%v", len(l.filters), l.cleared)
	}

	p.ApplyToLayer(l, true)
	if len(l.filters) != 2 || !l.cleared || l.opacity != 1 {
		t.Errorf("overwrite mode: %d filters, cleared=%v, opacity=%g", len(l.filters), l.cleared, l.opacity)
	}

	p.ApplyToLayer(nil, true)
}

// fakeImage записывает порядок вызовов и может отказать на заданном поле.
type fakeImage struct {
	state   ImageState
	calls   []string
	failOn  string
	failErr error
}

func (f *fakeImage) State() ImageState { return f.state }

func (f *fakeImage) PrepareUndo(string) { f.calls = append(f.calls, "prepare") }

func (f *fakeImage) PerformUndo() error {
	f.calls = append(f.calls, "perform")
	return nil
}

func (f *fakeImage) fail(field string) error {
	if f.failOn == field {
		// отказ только один раз, чтобы восстановление прошло
		f.failOn = ""
		return f.failErr
	}
	return nil
}

func (f *fakeImage) SetColor(c *Color) error {
	if err := f.fail("color"); err != nil {
		return err
	}
	f.state.Color = c
	return nil
}

func (f *fakeImage) SetBrightness(v float64) error {
	if err := f.fail("brightness"); err != nil {
		return err
	}
	f.state.Brightness = v
	return nil
}

func (f *fakeImage) SetContrast(v float64) error {
	if err := f.fail("contrast"); err != nil {
		return err
	}
	f.state.Contrast = v
	return nil
}

func (f *fakeImage) SetSaturation(v float64) error {
	if err := f.fail("saturation"); err != nil {
		return err
	}
	f.state.Saturation = v
	return nil
}

func (f *fakeImage) SetSharpness(v float64) error {
	if err := f.fail("sharpness"); err != nil {
		return err
	}
	f.state.Sharpness = v
	return nil
}

func TestApplyToImage(t *testing.T) {
	c := RGBA(0, 0, 255, 40)
	p, _ := New("blue", WithColor(&c), WithContrast(200))
	img := &fakeImage{state: ImageState{Contrast: 1, Saturation: 1}}

	if err := p.ApplyToImage(img); err != nil {
		t.Fatalf("ApplyToImage() error = %v", err)
	}
	if img.calls[0] != "prepare" || img.calls[len(img.calls)-1] != "perform" {
		t.Errorf("calls = %v", img.calls)
	}
	if img.state.Contrast != 2 || img.state.Saturation != 1 {
		t.Errorf("state = %+v", img.state)
	}
	if img.state.Color == nil || math.Abs(img.state.Color.Alpha-0.4) > epsilon || img.state.Color.Blue != 1 {
		t.Errorf("color = %v, opacity must be kept", img.state.Color)
	}
}

func TestApplyToImage_FailureRestoresState(t *testing.T) {
	p, _ := New("p", WithBrightness(50), WithContrast(300))
	boom := errors.New("boom")
	before := ImageState{Brightness: 0.1, Contrast: 1, Saturation: 1}
	img := &fakeImage{state: before, failOn: "saturation", failErr: boom}

	err := p.ApplyToImage(img)
	if !errors.Is(err, boom) {
		t.Fatalf("ApplyToImage() error = %v, want boom", err)
	}
	if img.state != before {
		t.Errorf("state = %+v, want %+v", img.state, before)
	}
	if img.calls[len(img.calls)-1] != "perform" {
		t.Errorf("PerformUndo was not called: %v", img.calls)
	}
}

func TestApplyToImage_Nil(t *testing.T) {
	p, _ := New("p")
	if err := p.ApplyToImage(nil); err != nil {
		t.Errorf("ApplyToImage(nil) error = %v", err)
	}
}

func TestFromImage_RoundTrip(t *testing.T) {
	c := RGBA(12, 34, 56, 78)
	p, _ := New("src", WithColor(&c), WithBrightness(-33), WithContrast(125), WithSaturation(180), WithSharpness(7))
	img := &fakeImage{}
	if err := p.ApplyToImage(img); err != nil {
		t.Fatal(err)
	}

	got, err := FromImage(img, "src")
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	if !closeTo(got, p) {
		t.Errorf("FromImage() = %v, want %v", got, p)
	}
}

// closeTo сравнивает пресеты с точностью до погрешности перевода между шкалами.
func closeTo(a, b *Preset) bool {
	if a.Name() != b.Name() {
		return false
	}
	for _, f := range ScalarFields() {
		if math.Abs(a.Value(f)-b.Value(f)) > epsilon {
			return false
		}
	}
	ca, cb := a.Color(), b.Color()
	if ca == nil || cb == nil {
		return ca == cb
	}
	return math.Abs(ca.Red-cb.Red) <= epsilon &&
		math.Abs(ca.Green-cb.Green) <= epsilon &&
		math.Abs(ca.Blue-cb.Blue) <= epsilon &&
		math.Abs(ca.Alpha-cb.Alpha) <= epsilon
}
