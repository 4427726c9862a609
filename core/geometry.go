package core

import (
	"fmt"

	"github.com/signalsfoundry/cadastre/model"
)

// Vertex is the coordinate type used for plot boundaries: integer x,
// floating-point y, both in metres.
type Vertex = model.Point[int, float64]

// Boundary is the polygon type plots observe.
type Boundary = model.Polygon[int, float64]

// NewVertex returns the boundary vertex (x, y).
func NewVertex(x int, y float64) Vertex { return model.NewPoint(x, y) }

// NewBoundary builds a boundary polygon from vertices in order.
func NewBoundary(vertices ...Vertex) *Boundary { return model.NewPolygon(vertices...) }

// SignedArea returns the shoelace area of the closed ring described by
// vertices, wrapping the last vertex back to the first. The result is
// positive for counter-clockwise winding and negative for clockwise.
// Fewer than three vertices yield zero.
func SignedArea[T, U model.Coordinate](vertices []model.Point[T, U]) float64 {
	n := len(vertices)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(vertices[i].X()), float64(vertices[i].Y())
		xj, yj := float64(vertices[j].X()), float64(vertices[j].Y())
		sum += xi*yj - yi*xj
	}
	return sum / 2
}

// polygonArea validates the boundary and returns its area. A degenerate or
// clockwise ring is reported as ErrNonPositiveArea.
func polygonArea(shape *Boundary) (float64, error) {
	if shape == nil {
		return 0, ErrNilShape
	}
	vertices := shape.Vertices()
	area := SignedArea(vertices)
	if area <= 0 {
		return 0, fmt.Errorf("%w: %g over %d vertices", ErrNonPositiveArea, area, len(vertices))
	}
	return area, nil
}
