package core

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

var (
	_ Buildable = (*UrbanZone)(nil)
	_ Buildable = (*ZoneToBeUrbanized)(nil)
	_ Buildable = (*AgriculturalZone)(nil)
	_ Zone      = (*NaturalAndForestZone)(nil)
)

func ptr(v float64) *float64 { return &v }

func TestUrbanZoneSuppliedBuiltArea(t *testing.T) {
	u, err := NewUrbanZone(1, "Bastien", squareCCW(100), 40, ptr(1500), nil)
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	if u.Kind() != KindUrban {
		t.Fatalf("Kind() = %v, want KindUrban", u.Kind())
	}
	if u.BuiltArea() != 1500 {
		t.Fatalf("BuiltArea() = %v, want 1500", u.BuiltArea())
	}
	if got := u.BuildableArea(); got != 2500 {
		t.Fatalf("BuildableArea() = %v, want 2500", got)
	}
}

func TestUrbanZoneZeroBuiltAreaIsNotSampled(t *testing.T) {
	sampled := false
	s := SamplerFunc(func(low, high float64) float64 {
		sampled = true
		return high / 2
	})
	u, err := NewUrbanZone(1, "o", squareCCW(100), 40, ptr(0), s)
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	if sampled || u.BuiltArea() != 0 {
		t.Fatalf("explicit zero built area was replaced: sampled=%v built=%v", sampled, u.BuiltArea())
	}
	if u.BuildableArea() != 4000 {
		t.Fatalf("BuildableArea() = %v, want 4000", u.BuildableArea())
	}
}

func TestUrbanZoneSamplesWhenUnspecified(t *testing.T) {
	var gotLow, gotHigh float64
	s := SamplerFunc(func(low, high float64) float64 {
		gotLow, gotHigh = low, high
		return 1234.5
	})
	u, err := NewUrbanZone(1, "o", squareCCW(100), 40, nil, s)
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	if gotLow != 0 || gotHigh != 4000 {
		t.Fatalf("sampler range = [%v, %v), want [0, 4000)", gotLow, gotHigh)
	}
	if u.BuiltArea() != 1234.5 {
		t.Fatalf("BuiltArea() = %v, want 1234.5", u.BuiltArea())
	}
	if u.BuildableArea() != 4000-1234.5 {
		t.Fatalf("BuildableArea() = %v, want %v", u.BuildableArea(), 4000-1234.5)
	}
}

func TestUrbanZoneUniformSamplerIsDeterministic(t *testing.T) {
	want := rand.New(rand.NewPCG(7, 7)).Float64() * 4000

	u, err := NewUrbanZone(1, "o", squareCCW(100), 40, nil, NewSeededSampler(7))
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	if u.BuiltArea() != want {
		t.Fatalf("BuiltArea() = %v, want %v", u.BuiltArea(), want)
	}
}

func TestUrbanZoneSampledWithinBounds(t *testing.T) {
	s := NewSeededSampler(42)
	for i := 0; i < 200; i++ {
		pct := 1 + i%100
		u, err := NewUrbanZone(i, "o", squareCCW(100), pct, nil, s)
		if err != nil {
			t.Fatalf("NewUrbanZone: %v", err)
		}
		limit := u.Area() * float64(pct) / 100
		if u.BuiltArea() < 0 || u.BuiltArea() >= limit {
			t.Fatalf("sample %d: built %v outside [0, %v)", i, u.BuiltArea(), limit)
		}
		if u.BuildableArea() != limit-u.BuiltArea() {
			t.Fatalf("sample %d: BuildableArea() = %v, want %v", i, u.BuildableArea(), limit-u.BuiltArea())
		}
		u.Close()
	}
}

func TestUrbanZoneZeroPercentSamplesZero(t *testing.T) {
	u, err := NewUrbanZone(1, "o", squareCCW(100), 0, nil, NewSeededSampler(1))
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()
	if u.BuiltArea() != 0 {
		t.Fatalf("BuiltArea() = %v, want 0", u.BuiltArea())
	}
}

func TestUrbanZoneErrors(t *testing.T) {
	if _, err := NewUrbanZone(1, "o", squareCCW(10), 40, nil, nil); !errors.Is(err, ErrNoSampler) {
		t.Fatalf("nil sampler err = %v, want ErrNoSampler", err)
	}
	if _, err := NewUrbanZone(1, "o", squareCCW(10), 40, ptr(-1), nil); !errors.Is(err, ErrNegativeBuiltArea) {
		t.Fatalf("negative built area err = %v, want ErrNegativeBuiltArea", err)
	}
	if _, err := NewUrbanZone(1, "o", squareCW(10), 40, ptr(1), nil); !errors.Is(err, ErrNonPositiveArea) {
		t.Fatalf("clockwise shape err = %v, want ErrNonPositiveArea", err)
	}
}

func TestUrbanZoneBuildableAreaFollowsShape(t *testing.T) {
	shape := squareCCW(100)
	u, err := NewUrbanZone(1, "o", shape, 50, ptr(1000), nil)
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	shape.ReplaceVertices(squareCCW(200).Vertices())
	if got := u.BuildableArea(); got != 19000 {
		t.Fatalf("BuildableArea() after growth = %v, want 19000", got)
	}
}

func TestZoneToBeUrbanized(t *testing.T) {
	z, err := NewZoneToBeUrbanized(2, "Bastien", squareCCW(100), 40)
	if err != nil {
		t.Fatalf("NewZoneToBeUrbanized: %v", err)
	}
	defer z.Close()

	if z.Kind() != KindToBeUrbanized {
		t.Fatalf("Kind() = %v", z.Kind())
	}
	if got := z.BuildableArea(); got != 4000 {
		t.Fatalf("BuildableArea() = %v, want 4000", got)
	}
}

func TestNaturalAndForestZone(t *testing.T) {
	n, err := NewNaturalAndForestZone(3, "Bastien", squareCCW(100))
	if err != nil {
		t.Fatalf("NewNaturalAndForestZone: %v", err)
	}
	defer n.Close()

	if n.Kind() != KindNaturalAndForest || n.BuildablePercent() != 0 {
		t.Fatalf("Kind()=%v BuildablePercent()=%d", n.Kind(), n.BuildablePercent())
	}
	var z Zone = n
	if _, ok := z.(Buildable); ok {
		t.Fatalf("natural zone must not be Buildable")
	}
	if err := n.SetBuildablePercent(10); !errors.Is(err, ErrDerivedPercent) {
		t.Fatalf("SetBuildablePercent err = %v, want ErrDerivedPercent", err)
	}
	if n.BuildablePercent() != 0 {
		t.Fatalf("percent changed to %d", n.BuildablePercent())
	}
}

func TestAgriculturalZoneCapped(t *testing.T) {
	a, err := NewAgriculturalZone(4, "Bastien", squareCCW(100), "Wheat")
	if err != nil {
		t.Fatalf("NewAgriculturalZone: %v", err)
	}
	defer a.Close()

	if a.Kind() != KindAgricultural {
		t.Fatalf("Kind() = %v", a.Kind())
	}
	if a.CropType() != "Wheat" {
		t.Fatalf("CropType() = %q", a.CropType())
	}
	if got := a.BuildableArea(); got != 200 {
		t.Fatalf("BuildableArea() = %v, want 200", got)
	}
	if got := a.BuildablePercent(); got != 2 {
		t.Fatalf("display BuildablePercent() = %d, want 2", got)
	}
}

func TestAgriculturalZoneUncapped(t *testing.T) {
	// 50 x 20 rectangle, 1000 m².
	shape := NewBoundary(NewVertex(0, 0), NewVertex(50, 0), NewVertex(50, 20), NewVertex(0, 20))
	a, err := NewAgriculturalZone(5, "o", shape, "Corn")
	if err != nil {
		t.Fatalf("NewAgriculturalZone: %v", err)
	}
	defer a.Close()

	if got := a.BuildableArea(); got != 100 {
		t.Fatalf("BuildableArea() = %v, want 100", got)
	}
	if got := a.BuildablePercent(); got != 10 {
		t.Fatalf("display BuildablePercent() = %d, want 10", got)
	}
}

func TestAgriculturalPercentIsDisplayOnly(t *testing.T) {
	shape := squareCCW(100)
	a, err := NewAgriculturalZone(4, "o", shape, "Wheat")
	if err != nil {
		t.Fatalf("NewAgriculturalZone: %v", err)
	}
	defer a.Close()

	if err := a.SetBuildablePercent(50); !errors.Is(err, ErrDerivedPercent) {
		t.Fatalf("SetBuildablePercent err = %v, want ErrDerivedPercent", err)
	}

	// Shrinking to 1000 m² recomputes the rule but not the stored percent.
	shape.ReplaceVertices([]Vertex{NewVertex(0, 0), NewVertex(50, 0), NewVertex(50, 20), NewVertex(0, 20)})
	if a.BuildableArea() != 100 {
		t.Fatalf("BuildableArea() = %v, want 100", a.BuildableArea())
	}
	if a.BuildablePercent() != 2 {
		t.Fatalf("BuildablePercent() = %d, want the construction-time 2", a.BuildablePercent())
	}
}

func TestZoneConstructorsPropagateAreaError(t *testing.T) {
	bad := squareCW(100)
	if _, err := NewZoneToBeUrbanized(1, "o", bad, 10); !errors.Is(err, ErrNonPositiveArea) {
		t.Fatalf("ZoneToBeUrbanized err = %v", err)
	}
	if _, err := NewNaturalAndForestZone(1, "o", bad); !errors.Is(err, ErrNonPositiveArea) {
		t.Fatalf("NaturalAndForestZone err = %v", err)
	}
	if _, err := NewAgriculturalZone(1, "o", bad, "Rye"); !errors.Is(err, ErrNonPositiveArea) {
		t.Fatalf("AgriculturalZone err = %v", err)
	}
	if bad.Subscribers() != 0 {
		t.Fatalf("failed constructors left %d subscribers", bad.Subscribers())
	}
}

func TestZoneKindCodes(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseZoneKind(k.Code())
		if err != nil || got != k {
			t.Fatalf("ParseZoneKind(%q) = %v, %v", k.Code(), got, err)
		}
	}
	if _, err := ParseZoneKind("ZX"); !errors.Is(err, ErrUnknownZoneKind) {
		t.Fatalf("ParseZoneKind(ZX) err = %v", err)
	}
	if KindToBeUrbanized.Code() != "ZAU" || KindAgricultural.String() != "agricultural" {
		t.Fatalf("unexpected code/name mapping")
	}
}

func TestDescribe(t *testing.T) {
	u, err := NewUrbanZone(1, "Bastien", squareCCW(100), 40, ptr(100), nil)
	if err != nil {
		t.Fatalf("NewUrbanZone: %v", err)
	}
	defer u.Close()

	out := Describe(u)
	for _, want := range []string{
		"Plot number: 1",
		"Type: ZU",
		"Polygon: (0, 0)(100, 0)(100, 100)(0, 100)",
		"Owner: Bastien",
		"Area: 10000 m2",
		"Buildable area: 40%",
		"Built area: 100 m2",
		"Free area: 3900 m2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Describe output missing %q:\n%s", want, out)
		}
	}
}
