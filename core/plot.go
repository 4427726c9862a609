package core

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNonPositiveArea indicates a boundary whose shoelace area is zero or
	// negative: fewer than three vertices, collinear points, or clockwise
	// winding.
	ErrNonPositiveArea = errors.New("polygon area must be positive")

	// ErrNilShape indicates a plot was given no boundary polygon.
	ErrNilShape = errors.New("plot shape is nil")

	// ErrPercentOutOfRange indicates a buildable percentage outside [0, 100].
	ErrPercentOutOfRange = errors.New("buildable percent out of range")

	// ErrDerivedPercent indicates an attempt to set the buildable percentage of
	// a zone whose percentage is fixed or derived.
	ErrDerivedPercent = errors.New("buildable percent is not settable for this zone")
)

// RecomputeFunc observes every area recomputation of a plot. err is nil when
// the cached area was updated, and the rejection otherwise.
type RecomputeFunc func(p *Plot, err error)

// Plot holds the state shared by every zone kind: identity, owner, boundary
// and the area derived from it.
//
// The plot subscribes to its boundary on construction and recomputes its
// area on every notification. Close releases that subscription; a closed plot
// no longer reacts to its former boundary.
type Plot struct {
	mu sync.RWMutex

	number           int
	owner            string
	shape            *Boundary
	unsubscribe      func()
	area             float64
	areaErr          error
	buildablePercent int

	observers []recomputeObserver
	nextObs   uint64
	closed    bool
}

type recomputeObserver struct {
	id uint64
	fn RecomputeFunc
}

// NewPlot builds the shared plot state. It subscribes to shape and computes
// the initial area; when that fails the subscription is released and the
// error is returned.
func NewPlot(number int, owner string, shape *Boundary, buildablePercent int) (*Plot, error) {
	if err := checkPercent(buildablePercent); err != nil {
		return nil, err
	}
	if shape == nil {
		return nil, ErrNilShape
	}
	p := &Plot{
		number:           number,
		owner:            owner,
		buildablePercent: buildablePercent,
	}
	p.shape = shape
	p.unsubscribe = shape.Subscribe(p.onShapeChanged)
	if err := p.RecomputeArea(); err != nil {
		p.unsubscribe()
		return nil, fmt.Errorf("plot %d: %w", number, err)
	}
	return p, nil
}

// Number returns the plot's external identifier.
func (p *Plot) Number() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.number
}

// Owner returns the owner name.
func (p *Plot) Owner() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.owner
}

// Shape returns the boundary the plot observes.
func (p *Plot) Shape() *Boundary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shape
}

// Area returns the area from the most recent successful recomputation, in
// square metres.
func (p *Plot) Area() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.area
}

// AreaErr returns the error from the latest recomputation, or nil if it
// succeeded.
func (p *Plot) AreaErr() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.areaErr
}

// BuildablePercent returns the percentage of the area that may be built on.
func (p *Plot) BuildablePercent() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buildablePercent
}

// SetNumber changes the plot's identifier.
func (p *Plot) SetNumber(number int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.number = number
}

// SetOwner changes the owner name.
func (p *Plot) SetOwner(owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owner = owner
}

// SetBuildablePercent changes the buildable percentage.
func (p *Plot) SetBuildablePercent(percent int) error {
	if err := checkPercent(percent); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buildablePercent = percent
	return nil
}

// RecomputeArea applies the shoelace formula to the current boundary. On
// failure the previous area is kept and the error is returned. Recompute
// observers are notified either way.
func (p *Plot) RecomputeArea() error {
	p.mu.Lock()
	shape := p.shape
	p.mu.Unlock()

	area, err := polygonArea(shape)

	p.mu.Lock()
	if err == nil {
		p.area = area
	}
	p.areaErr = err
	obs := p.observersLocked()
	p.mu.Unlock()

	for _, fn := range obs {
		fn(p, err)
	}
	return err
}

// SetShape moves the plot onto a new boundary. The new boundary is validated
// first; if its area is rejected the plot keeps its old boundary, area and
// subscription.
func (p *Plot) SetShape(shape *Boundary) error {
	area, err := polygonArea(shape)
	if err != nil {
		return fmt.Errorf("plot %d: %w", p.Number(), err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("plot %d is closed", p.number)
	}
	old := p.unsubscribe
	p.shape = shape
	p.unsubscribe = shape.Subscribe(p.onShapeChanged)
	p.area = area
	p.areaErr = nil
	obs := p.observersLocked()
	p.mu.Unlock()

	if old != nil {
		old()
	}
	for _, fn := range obs {
		fn(p, nil)
	}
	return nil
}

// OnRecompute registers fn to observe every area recomputation, including
// those triggered by boundary notifications and SetShape. It returns an
// unsubscribe function.
func (p *Plot) OnRecompute(fn RecomputeFunc) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextObs++
	id := p.nextObs
	p.observers = append(p.observers, recomputeObserver{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, o := range p.observers {
				if o.id == id {
					p.observers = append(p.observers[:i], p.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Close detaches the plot from its boundary and drops its recompute
// observers. It is safe to call more than once.
func (p *Plot) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	unsub := p.unsubscribe
	p.unsubscribe = nil
	p.observers = nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Closed reports whether Close has been called.
func (p *Plot) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Plot) onShapeChanged() {
	// The error is kept in areaErr and handed to observers.
	_ = p.RecomputeArea()
}

func (p *Plot) observersLocked() []RecomputeFunc {
	fns := make([]RecomputeFunc, len(p.observers))
	for i, o := range p.observers {
		fns[i] = o.fn
	}
	return fns
}

func (p *Plot) basePercent(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buildablePercent = percent
}

func checkPercent(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentOutOfRange, percent)
	}
	return nil
}
