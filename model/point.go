package model

import "fmt"

// Coordinate is the set of numeric types a point axis may use. The two axes
// of a Point are typed independently, so a point can carry an integer x and a
// floating-point y.
type Coordinate interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Point is a planar coordinate pair. It is a plain value: copies are
// independent and only Translate mutates it.
type Point[T, U Coordinate] struct {
	x T
	y U
}

// NewPoint returns the point (x, y).
func NewPoint[T, U Coordinate](x T, y U) Point[T, U] {
	return Point[T, U]{x: x, y: y}
}

// X returns the x coordinate.
func (p Point[T, U]) X() T { return p.x }

// Y returns the y coordinate.
func (p Point[T, U]) Y() U { return p.y }

// Translate moves the point by (dx, dy) in place.
func (p *Point[T, U]) Translate(dx T, dy U) {
	p.x += dx
	p.y += dy
}

// String renders the point as "(x, y)".
func (p Point[T, U]) String() string {
	return fmt.Sprintf("(%v, %v)", p.x, p.y)
}
