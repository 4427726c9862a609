package core

import (
	"errors"
	"fmt"
	"math"
)

// ZoneKind classifies a plot. A zone's kind is fixed at construction.
type ZoneKind int

const (
	KindUrban ZoneKind = iota
	KindToBeUrbanized
	KindNaturalAndForest
	KindAgricultural
)

const (
	// agriculturalShare is the fraction of an agricultural plot that may be
	// built on, before the cap.
	agriculturalShare = 0.10
	// agriculturalCap is the largest buildable area of an agricultural plot,
	// in square metres.
	agriculturalCap = 200.0
)

var (
	// ErrUnknownZoneKind indicates a type code outside ZU, ZAU, ZN and ZA.
	ErrUnknownZoneKind = errors.New("unknown zone kind")

	// ErrNegativeBuiltArea indicates a supplied built area below zero.
	ErrNegativeBuiltArea = errors.New("built area must not be negative")

	// ErrNoSampler indicates an urban zone with an unspecified built area and
	// no sampler to draw one from.
	ErrNoSampler = errors.New("built area unspecified and no sampler provided")
)

// Kinds lists every zone kind in declaration order.
func Kinds() []ZoneKind {
	return []ZoneKind{KindUrban, KindToBeUrbanized, KindNaturalAndForest, KindAgricultural}
}

// Code returns the interchange type code of the kind.
func (k ZoneKind) Code() string {
	switch k {
	case KindUrban:
		return "ZU"
	case KindToBeUrbanized:
		return "ZAU"
	case KindNaturalAndForest:
		return "ZN"
	case KindAgricultural:
		return "ZA"
	default:
		return "Unknown"
	}
}

func (k ZoneKind) String() string {
	switch k {
	case KindUrban:
		return "urban"
	case KindToBeUrbanized:
		return "to-be-urbanized"
	case KindNaturalAndForest:
		return "natural-and-forest"
	case KindAgricultural:
		return "agricultural"
	default:
		return fmt.Sprintf("ZoneKind(%d)", int(k))
	}
}

// ParseZoneKind maps an interchange type code back to its kind.
func ParseZoneKind(code string) (ZoneKind, error) {
	for _, k := range Kinds() {
		if k.Code() == code {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownZoneKind, code)
}

// Zone is the capability every classified plot offers.
type Zone interface {
	Number() int
	Owner() string
	Shape() *Boundary
	Area() float64
	AreaErr() error
	BuildablePercent() int
	Kind() ZoneKind
	Base() *Plot
	Close()
}

// Buildable is implemented by zones that permit construction. The buildable
// area is computed on every call from the current area.
type Buildable interface {
	Zone
	BuildableArea() float64
}

// Base returns the shared plot state. Zones embedding *Plot inherit it.
func (p *Plot) Base() *Plot { return p }

// UrbanZone is already-urbanized land with a known built surface.
type UrbanZone struct {
	*Plot
	builtArea float64
}

// NewUrbanZone builds an urban zone. When builtArea is nil a value is drawn
// from sampler in [0, area*percent/100); a supplied value is used as given
// once it is checked to be non-negative.
func NewUrbanZone(number int, owner string, shape *Boundary, percent int, builtArea *float64, sampler Sampler) (*UrbanZone, error) {
	if builtArea != nil && *builtArea < 0 {
		return nil, fmt.Errorf("plot %d: %w: %g", number, ErrNegativeBuiltArea, *builtArea)
	}
	if builtArea == nil && sampler == nil {
		return nil, fmt.Errorf("plot %d: %w", number, ErrNoSampler)
	}
	plot, err := NewPlot(number, owner, shape, percent)
	if err != nil {
		return nil, err
	}
	u := &UrbanZone{Plot: plot}
	if builtArea != nil {
		u.builtArea = *builtArea
	} else {
		u.builtArea = sampler.Sample(0, u.MaxBuildableArea())
	}
	return u, nil
}

// Kind reports KindUrban.
func (u *UrbanZone) Kind() ZoneKind { return KindUrban }

// BuiltArea returns the surface already built, in square metres.
func (u *UrbanZone) BuiltArea() float64 { return u.builtArea }

// MaxBuildableArea returns area*percent/100.
func (u *UrbanZone) MaxBuildableArea() float64 {
	return percentOf(u.Area(), u.BuildablePercent())
}

// BuildableArea returns the buildable area still free: area*percent/100
// minus the built area.
func (u *UrbanZone) BuildableArea() float64 {
	return u.MaxBuildableArea() - u.builtArea
}

// ZoneToBeUrbanized is land earmarked for future urbanization.
type ZoneToBeUrbanized struct {
	*Plot
}

// NewZoneToBeUrbanized builds a zone to be urbanized.
func NewZoneToBeUrbanized(number int, owner string, shape *Boundary, percent int) (*ZoneToBeUrbanized, error) {
	plot, err := NewPlot(number, owner, shape, percent)
	if err != nil {
		return nil, err
	}
	return &ZoneToBeUrbanized{Plot: plot}, nil
}

// Kind reports KindToBeUrbanized.
func (z *ZoneToBeUrbanized) Kind() ZoneKind { return KindToBeUrbanized }

// BuildableArea returns area*percent/100.
func (z *ZoneToBeUrbanized) BuildableArea() float64 {
	return percentOf(z.Area(), z.BuildablePercent())
}

// NaturalAndForestZone is protected land. It is not Buildable and its
// buildable percentage is always zero.
type NaturalAndForestZone struct {
	*Plot
}

// NewNaturalAndForestZone builds a natural and forest zone.
func NewNaturalAndForestZone(number int, owner string, shape *Boundary) (*NaturalAndForestZone, error) {
	plot, err := NewPlot(number, owner, shape, 0)
	if err != nil {
		return nil, err
	}
	return &NaturalAndForestZone{Plot: plot}, nil
}

// Kind reports KindNaturalAndForest.
func (n *NaturalAndForestZone) Kind() ZoneKind { return KindNaturalAndForest }

// SetBuildablePercent always fails: the percentage is fixed.
func (n *NaturalAndForestZone) SetBuildablePercent(int) error {
	return fmt.Errorf("plot %d: %w", n.Number(), ErrDerivedPercent)
}

// AgriculturalZone is natural land that still allows a small farm building.
// It carries the natural zone's facts and adds its own buildable rule.
type AgriculturalZone struct {
	*NaturalAndForestZone
	cropType string
}

// NewAgriculturalZone builds an agricultural zone. Its displayed buildable
// percentage is derived once here from the buildable area; it never feeds
// back into BuildableArea.
func NewAgriculturalZone(number int, owner string, shape *Boundary, cropType string) (*AgriculturalZone, error) {
	natural, err := NewNaturalAndForestZone(number, owner, shape)
	if err != nil {
		return nil, err
	}
	a := &AgriculturalZone{NaturalAndForestZone: natural, cropType: cropType}
	display := int(math.Round(a.BuildableArea() / a.Area() * 100))
	a.basePercent(display)
	return a, nil
}

// Kind reports KindAgricultural.
func (a *AgriculturalZone) Kind() ZoneKind { return KindAgricultural }

// CropType returns what is grown on the plot.
func (a *AgriculturalZone) CropType() string { return a.cropType }

// BuildableArea returns 10% of the area, capped at 200 m².
func (a *AgriculturalZone) BuildableArea() float64 {
	return math.Min(a.Area()*agriculturalShare, agriculturalCap)
}

func percentOf(area float64, percent int) float64 {
	return area * float64(percent) / 100
}
