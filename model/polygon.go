package model

import (
	"strings"
	"sync"
)

// Polygon is an ordered vertex sequence describing a closed boundary. The
// last vertex implicitly joins the first.
//
// Subscribers registered with Subscribe are called synchronously, in
// registration order, after ReplaceVertices or AppendVertex has made the new
// sequence visible. Translate moves every vertex as a single composite edit
// and does not notify. Callbacks run without the polygon lock held, but they
// must not mutate the polygon that is notifying them.
type Polygon[T, U Coordinate] struct {
	mu sync.RWMutex

	vertices []Point[T, U]

	subs   []subscriber
	nextID uint64
}

type subscriber struct {
	id uint64
	fn func()
}

// NewPolygon constructs a polygon from the given vertices. No minimum vertex
// count is enforced here.
func NewPolygon[T, U Coordinate](vertices ...Point[T, U]) *Polygon[T, U] {
	return &Polygon[T, U]{vertices: append([]Point[T, U](nil), vertices...)}
}

// Vertices returns a copy of the vertex sequence.
func (p *Polygon[T, U]) Vertices() []Point[T, U] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Point[T, U](nil), p.vertices...)
}

// Len returns the number of vertices.
func (p *Polygon[T, U]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.vertices)
}

// ReplaceVertices swaps in a new vertex sequence and notifies subscribers.
func (p *Polygon[T, U]) ReplaceVertices(vertices []Point[T, U]) {
	p.mu.Lock()
	p.vertices = append([]Point[T, U](nil), vertices...)
	subs := p.snapshotLocked()
	p.mu.Unlock()

	notify(subs)
}

// AppendVertex adds a vertex at the end of the sequence and notifies
// subscribers.
func (p *Polygon[T, U]) AppendVertex(v Point[T, U]) {
	p.mu.Lock()
	p.vertices = append(p.vertices, v)
	subs := p.snapshotLocked()
	p.mu.Unlock()

	notify(subs)
}

// Translate moves every vertex by (dx, dy). Subscribers are not notified.
func (p *Polygon[T, U]) Translate(dx T, dy U) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.vertices {
		p.vertices[i].Translate(dx, dy)
	}
}

// Subscribe registers fn to be called after every vertex replacement or
// append. It returns an unsubscribe function; calling it more than once is a
// no-op.
func (p *Polygon[T, U]) Subscribe(fn func()) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(id) })
	}
}

// Subscribers reports how many callbacks are currently registered.
func (p *Polygon[T, U]) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// Clone returns a polygon with a copy of the vertices and no subscribers.
func (p *Polygon[T, U]) Clone() *Polygon[T, U] {
	return NewPolygon(p.Vertices()...)
}

// String renders the polygon as "Polygon: (x, y)(x, y)...".
func (p *Polygon[T, U]) String() string {
	var b strings.Builder
	b.WriteString("Polygon: ")
	for _, v := range p.Vertices() {
		b.WriteString(v.String())
	}
	return b.String()
}

func (p *Polygon[T, U]) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subs {
		if s.id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

func (p *Polygon[T, U]) snapshotLocked() []func() {
	fns := make([]func(), len(p.subs))
	for i, s := range p.subs {
		fns[i] = s.fn
	}
	return fns
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
