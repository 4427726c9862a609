package kb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/cadastre/core"
	"github.com/signalsfoundry/cadastre/internal/logging"
)

var (
	// ErrDuplicatePlot indicates a plot number that is already registered.
	ErrDuplicatePlot = errors.New("plot number already registered")
	// ErrPlotNotFound indicates a plot number that is not registered.
	ErrPlotNotFound = errors.New("plot not found")
)

// EventType indicates what kind of change happened in the register.
type EventType int

const (
	EventPlotAdded EventType = iota
	EventPlotRemoved
	EventAreaChanged
	EventAreaRejected
)

func (t EventType) String() string {
	switch t {
	case EventPlotAdded:
		return "plot_added"
	case EventPlotRemoved:
		return "plot_removed"
	case EventAreaChanged:
		return "area_changed"
	case EventAreaRejected:
		return "area_rejected"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers when a plot is added, removed or has its
// area recomputed.
type Event struct {
	Type   EventType
	Number int
	Kind   core.ZoneKind
	Area   float64
	Err    error
}

// MetricsRecorder receives register activity for export.
type MetricsRecorder interface {
	SetPlotCounts(counts map[core.ZoneKind]int)
	ObserveAreaRecompute(kind core.ZoneKind, err error)
}

// KindSummary aggregates the plots of one zone kind.
type KindSummary struct {
	Plots         int
	Area          float64
	BuildableArea float64
}

// Register is an in-memory index of zones keyed by plot number. It observes
// every registered zone and forwards area recomputations as events.
//
// Removing a zone closes it, which detaches it from its boundary. A
// registered zone's number must not be changed while it is registered.
type Register struct {
	mu sync.RWMutex

	zones   map[int]core.Zone
	detach  map[int]func()
	subs    []subscriber
	nextSub uint64

	log     logging.Logger
	metrics MetricsRecorder
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Option customises Register construction.
type Option func(*Register)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(r *Register) {
		r.metrics = m
	}
}

// NewRegister constructs an empty register.
func NewRegister(log logging.Logger, opts ...Option) *Register {
	if log == nil {
		log = logging.Noop()
	}
	r := &Register{
		zones:  make(map[int]core.Zone),
		detach: make(map[int]func()),
		log:    log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.mu.Lock()
	r.updateMetricsLocked()
	r.mu.Unlock()
	return r
}

// Add registers a zone under its plot number.
func (r *Register) Add(z core.Zone) error {
	if z == nil {
		return fmt.Errorf("register: zone is nil")
	}
	number := z.Number()

	r.mu.Lock()
	if _, exists := r.zones[number]; exists {
		r.mu.Unlock()
		return fmt.Errorf("plot %d: %w", number, ErrDuplicatePlot)
	}
	r.zones[number] = z
	r.detach[number] = z.Base().OnRecompute(func(_ *core.Plot, err error) {
		r.onRecompute(z, err)
	})
	r.updateMetricsLocked()
	subs := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Debug(context.Background(), "plot registered",
		logging.Int("number", number),
		logging.String("kind", z.Kind().Code()),
		logging.Float("area_m2", z.Area()),
	)
	notify(subs, Event{Type: EventPlotAdded, Number: number, Kind: z.Kind(), Area: z.Area()})
	return nil
}

// Get returns the zone registered under number.
func (r *Register) Get(number int) (core.Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	z, ok := r.zones[number]
	return z, ok
}

// Len returns the number of registered zones.
func (r *Register) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}

// List returns every zone ordered by plot number.
func (r *Register) List() []core.Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(func(core.Zone) bool { return true })
}

// ListByKind returns the zones of one kind ordered by plot number.
func (r *Register) ListByKind(kind core.ZoneKind) []core.Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(func(z core.Zone) bool { return z.Kind() == kind })
}

// Remove unregisters and closes the zone registered under number.
func (r *Register) Remove(number int) error {
	r.mu.Lock()
	z, ok := r.zones[number]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("plot %d: %w", number, ErrPlotNotFound)
	}
	detach := r.detach[number]
	delete(r.zones, number)
	delete(r.detach, number)
	r.updateMetricsLocked()
	subs := r.snapshotLocked()
	r.mu.Unlock()

	if detach != nil {
		detach()
	}
	z.Close()

	r.log.Debug(context.Background(), "plot removed", logging.Int("number", number))
	notify(subs, Event{Type: EventPlotRemoved, Number: number, Kind: z.Kind(), Area: z.Area()})
	return nil
}

// Close removes and closes every registered zone.
func (r *Register) Close() {
	r.mu.RLock()
	numbers := make([]int, 0, len(r.zones))
	for n := range r.zones {
		numbers = append(numbers, n)
	}
	r.mu.RUnlock()

	sort.Ints(numbers)
	for _, n := range numbers {
		// A concurrent Remove may have won; that is fine.
		_ = r.Remove(n)
	}
}

// Summary aggregates plot counts and areas per zone kind. Buildable area is
// only accumulated for kinds that implement core.Buildable.
func (r *Register) Summary() map[core.ZoneKind]KindSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[core.ZoneKind]KindSummary, len(core.Kinds()))
	for _, z := range r.zones {
		s := out[z.Kind()]
		s.Plots++
		s.Area += z.Area()
		if b, ok := z.(core.Buildable); ok {
			s.BuildableArea += b.BuildableArea()
		}
		out[z.Kind()] = s
	}
	return out
}

// Subscribe registers a callback for register events. Callbacks run
// synchronously, outside the register lock, in subscription order. It returns
// an unsubscribe function.
func (r *Register) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *Register) onRecompute(z core.Zone, err error) {
	if r.metrics != nil {
		r.metrics.ObserveAreaRecompute(z.Kind(), err)
	}

	ev := Event{Number: z.Number(), Kind: z.Kind(), Area: z.Area(), Err: err}
	if err != nil {
		ev.Type = EventAreaRejected
		r.log.Warn(context.Background(), "plot area recomputation rejected",
			logging.Int("number", ev.Number),
			logging.String("kind", ev.Kind.Code()),
			logging.Float("kept_area_m2", ev.Area),
			logging.Err(err),
		)
	} else {
		ev.Type = EventAreaChanged
	}

	r.mu.RLock()
	subs := r.snapshotLocked()
	r.mu.RUnlock()
	notify(subs, ev)
}

func (r *Register) sortedLocked(keep func(core.Zone) bool) []core.Zone {
	res := make([]core.Zone, 0, len(r.zones))
	for _, z := range r.zones {
		if keep(z) {
			res = append(res, z)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Number() < res[j].Number() })
	return res
}

func (r *Register) updateMetricsLocked() {
	if r.metrics == nil {
		return
	}
	counts := make(map[core.ZoneKind]int, len(core.Kinds()))
	for _, k := range core.Kinds() {
		counts[k] = 0
	}
	for _, z := range r.zones {
		counts[z.Kind()]++
	}
	r.metrics.SetPlotCounts(counts)
}

func (r *Register) snapshotLocked() []func(Event) {
	fns := make([]func(Event), len(r.subs))
	for i, s := range r.subs {
		fns[i] = s.fn
	}
	return fns
}

func notify(fns []func(Event), ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}
