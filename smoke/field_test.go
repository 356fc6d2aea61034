package smoke

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/noise"
)

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		e0, e1, x, want float64
	}{
		{0, 1, -1, 0},
		{0, 1, 0, 0},
		{0, 1, 0.5, 0.5},
		{0, 1, 1, 1},
		{0, 1, 2, 1},
		{0.1, 0.6, 0.35, 0.5},
		// Inverted edges fade out as x grows
		{1.0, 0.4, 1.0, 0},
		{1.0, 0.4, 0.4, 1},
		{1.0, 0.4, 0.0, 1},
	}
	for _, tt := range tests {
		if got := Smoothstep(tt.e0, tt.e1, tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Smoothstep(%g, %g, %g) = %g, want %g", tt.e0, tt.e1, tt.x, got, tt.want)
		}
	}
}

func TestCoords_AspectCorrection(t *testing.T) {
	sizes := [][2]int{{1, 1}, {640, 360}, {360, 640}, {1920, 1080}, {101, 37}}
	for _, s := range sizes {
		w, h := s[0], s[1]
		st, p := Coords(float64(w)/2, float64(h)/2, w, h)
		if st.X != 0.5 || st.Y != 0.5 {
			t.Errorf("%dx%d: centre st = %v, want (0.5, 0.5)", w, h, st)
		}
		if p.X != 0 {
			t.Errorf("%dx%d: centre p.x = %g, want 0", w, h, p.X)
		}

		// Right edge sits half the aspect ratio from the centre
		_, edge := Coords(float64(w), 0, w, h)
		want := 0.5 * float64(w) / float64(h)
		if math.Abs(edge.X-want) > 1e-12 {
			t.Errorf("%dx%d: edge p.x = %g, want %g", w, h, edge.X, want)
		}
	}
}

func TestFragCoord_FlipsRows(t *testing.T) {
	fx, fy := FragCoord(0, 0, 10)
	if fx != 0.5 || fy != 9.5 {
		t.Errorf("top-left = (%g, %g), want (0.5, 9.5)", fx, fy)
	}
	fx, fy = FragCoord(3, 9, 10)
	if fx != 3.5 || fy != 0.5 {
		t.Errorf("bottom row = (%g, %g), want (3.5, 0.5)", fx, fy)
	}
}

func TestField_Deterministic(t *testing.T) {
	a := NewField(DefaultParams())
	b := NewField(DefaultParams())

	for _, tm := range []float64{0, 1.5, 60} {
		for y := 0; y < 9; y++ {
			for x := 0; x < 16; x++ {
				sa := a.Eval(x, y, 16, 9, tm)
				sb := b.Eval(x, y, 16, 9, tm)
				if sa != sb {
					t.Fatalf("(%d,%d,t=%g): samples differ: %+v vs %+v", x, y, tm, sa, sb)
				}
			}
		}
	}
}

func TestField_Bounds(t *testing.T) {
	f := NewField(DefaultParams())
	const w, h = 48, 27

	for _, tm := range []float64{0, 3.3, 250, 1e4} {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				s := f.Eval(x, y, w, h, tm)
				if s.Mask < 0 || s.Mask > 1 {
					t.Fatalf("mask %g out of range at (%d,%d,t=%g)", s.Mask, x, y, tm)
				}
				if s.Density < 0 || s.Density > 1 {
					t.Fatalf("density %g out of range at (%d,%d,t=%g)", s.Density, x, y, tm)
				}
				if !s.Color.IsValid() {
					t.Fatalf("colour %+v out of range at (%d,%d,t=%g)", s.Color, x, y, tm)
				}
				if s.F < 0 || s.F > 1 {
					t.Fatalf("fbm %g out of range at (%d,%d,t=%g)", s.F, x, y, tm)
				}
			}
		}
	}
}

func TestField_OutsidePlumeIsBackground(t *testing.T) {
	f := NewField(DefaultParams())

	// Far to the side on the bottom edge there is neither body nor turbulence
	st := r2.Vec{X: 0, Y: 0}
	p := r2.Vec{X: 10, Y: 0}
	for _, tm := range []float64{0, 7, 42} {
		s := f.Sample(st, p, tm)
		if s.Mask != 0 || s.Density != 0 {
			t.Errorf("t=%g: mask=%g density=%g, want 0", tm, s.Mask, s.Density)
		}
		if s.Color != DefaultPalette().Background {
			t.Errorf("t=%g: colour %+v, want background", tm, s.Color)
		}
	}
}

func TestField_PlumeHasInk(t *testing.T) {
	f := NewField(DefaultParams())
	const w, h = 64, 36

	inked := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if f.Eval(x, y, w, h, 0).Density > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("expected some ink in the plume")
	}
	if inked == w*h {
		t.Error("expected some clear background")
	}
}

func TestField_AnimatesOverTime(t *testing.T) {
	f := NewField(DefaultParams())
	st, p := Coords(32, 10, 64, 36)

	a := f.Sample(st, p, 0)
	b := f.Sample(st, p, 5)
	if a.F == b.F && a.Q == b.Q {
		t.Error("field should change with time")
	}
}

func TestPalette_Shade(t *testing.T) {
	pal := DefaultPalette()

	tests := []struct {
		name string
		r    r2.Vec
		ink  float64
		want colorful.Color
	}{
		{"no ink", r2.Vec{X: 0.3, Y: 0.8}, 0, pal.Background},
		{"deep", r2.Vec{}, 1, pal.Deep},
		{"light", r2.Vec{X: 1}, 1, pal.Light},
		{"accent", r2.Vec{X: 0.5, Y: 1}, 1, pal.Accent},
	}
	for _, tt := range tests {
		got := pal.Shade(tt.r, tt.ink)
		if got.DistanceRgb(tt.want) > 1e-9 {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}

	// Out-of-range warp values are clamped
	c := pal.Shade(r2.Vec{X: 3, Y: -2}, 1)
	if !c.IsValid() {
		t.Errorf("shade should be clamped, got %+v", c)
	}
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette("#000000", "#ffffff", "#ff8000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if p.Deep != (colorful.Color{}) || p.Light != (colorful.Color{R: 1, G: 1, B: 1}) {
		t.Errorf("unexpected palette %+v", p)
	}
	if _, err := ParsePalette("#000000", "white", "#ff8000", "#ffffff"); err == nil {
		t.Error("expected error for non-hex colour")
	}
}

func TestParamsFromConfig_MatchesDefaults(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}

	ref := NewField(DefaultParams())
	got := FieldFromConfig(cfg)

	for _, tm := range []float64{0, 2.5} {
		for y := 0; y < 9; y++ {
			for x := 0; x < 16; x++ {
				a := ref.Eval(x, y, 16, 9, tm)
				b := got.Eval(x, y, 16, 9, tm)
				if a != b {
					t.Fatalf("(%d,%d,t=%g): configured field differs from reference", x, y, tm)
				}
			}
		}
	}
}

func TestParamsFromConfig_Overrides(t *testing.T) {
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	sc := cfg.Smoke
	sc.Drift = 0
	sc.Turbulence = 0
	sc.Basis = "simplex"
	sc.FBM.Octaves = 3
	sc.Palette.Deep = config.Color{}
	sc.Palette.Accent = config.Color{B: 1}

	p := ParamsFromConfig(sc)

	if p.Drift != 0 || p.Turbulence != 0 {
		t.Errorf("drift=%g turbulence=%g, want zero", p.Drift, p.Turbulence)
	}
	if p.FBM.Octaves != 3 {
		t.Errorf("octaves = %d, want 3", p.FBM.Octaves)
	}
	if _, ok := p.FBM.Basis.(*noise.SimplexBasis); !ok {
		t.Errorf("basis = %T, want simplex", p.FBM.Basis)
	}
	if p.Palette.Deep != (colorful.Color{}) {
		t.Errorf("deep = %+v, want black", p.Palette.Deep)
	}
	if p.Palette.Accent != (colorful.Color{B: 1}) {
		t.Errorf("accent = %+v", p.Palette.Accent)
	}
	if p.FBM.Lacunarity != 2 || p.InkStrength != 0.95 {
		t.Errorf("untouched values changed: lacunarity=%g ink=%g", p.FBM.Lacunarity, p.InkStrength)
	}
}
