package model

import "testing"

func square() *Polygon[int, float64] {
	return NewPolygon(
		NewPoint(0, 0.0),
		NewPoint(100, 0.0),
		NewPoint(100, 100.0),
		NewPoint(0, 100.0),
	)
}

func TestPointTranslate(t *testing.T) {
	p := NewPoint(1, 1.5)
	p.Translate(-1, 0.5)
	if p.X() != 0 || p.Y() != 2 {
		t.Fatalf("translated point = %v, want (0, 2)", p)
	}
	if got := p.String(); got != "(0, 2)" {
		t.Fatalf("String() = %q, want %q", got, "(0, 2)")
	}
}

func TestPolygonVerticesReturnsCopy(t *testing.T) {
	poly := square()
	vs := poly.Vertices()
	vs[0].Translate(50, 50)

	if got := poly.Vertices()[0]; got != NewPoint(0, 0.0) {
		t.Fatalf("mutating the returned slice changed the polygon: %v", got)
	}
}

func TestNewPolygonCopiesInput(t *testing.T) {
	input := []Point[int, float64]{NewPoint(0, 0.0), NewPoint(1, 0.0), NewPoint(1, 1.0)}
	poly := NewPolygon(input...)
	input[0] = NewPoint(9, 9.0)
	if got := poly.Vertices()[0]; got != NewPoint(0, 0.0) {
		t.Fatalf("polygon aliases caller slice: %v", got)
	}
}

func TestReplaceAndAppendNotifyInOrder(t *testing.T) {
	poly := square()

	var calls []string
	poly.Subscribe(func() { calls = append(calls, "a") })
	poly.Subscribe(func() { calls = append(calls, "b") })

	poly.ReplaceVertices([]Point[int, float64]{NewPoint(0, 0.0), NewPoint(1, 0.0), NewPoint(1, 1.0)})
	poly.AppendVertex(NewPoint(0, 1.0))

	want := []string{"a", "b", "a", "b"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if poly.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", poly.Len())
	}
}

func TestSubscriberSeesNewVertices(t *testing.T) {
	poly := square()
	var seen int
	poly.Subscribe(func() { seen = poly.Len() })

	poly.AppendVertex(NewPoint(-10, 50.0))
	if seen != 5 {
		t.Fatalf("subscriber saw %d vertices, want 5", seen)
	}
}

func TestTranslateDoesNotNotify(t *testing.T) {
	poly := square()
	fired := false
	poly.Subscribe(func() { fired = true })

	poly.Translate(10, -5)
	if fired {
		t.Fatalf("Translate notified subscribers")
	}
	if got := poly.Vertices()[2]; got != NewPoint(110, 95.0) {
		t.Fatalf("vertex 2 after translate = %v, want (110, 95)", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	poly := square()
	var a, b int
	unsubA := poly.Subscribe(func() { a++ })
	poly.Subscribe(func() { b++ })

	unsubA()
	unsubA()
	if got := poly.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	poly.AppendVertex(NewPoint(0, 50.0))
	if a != 0 || b != 1 {
		t.Fatalf("calls after unsubscribe: a=%d b=%d, want 0 and 1", a, b)
	}
}

func TestCloneDropsSubscribers(t *testing.T) {
	poly := square()
	poly.Subscribe(func() {})

	clone := poly.Clone()
	if clone.Subscribers() != 0 {
		t.Fatalf("clone carries %d subscribers", clone.Subscribers())
	}
	clone.Translate(-1, -1)
	if poly.Vertices()[0] != NewPoint(0, 0.0) {
		t.Fatalf("translating the clone moved the original")
	}
}

func TestPolygonString(t *testing.T) {
	poly := NewPolygon(NewPoint(0, 0.0), NewPoint(1, 2.5))
	if got, want := poly.String(), "Polygon: (0, 0)(1, 2.5)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestEmptyPolygon(t *testing.T) {
	poly := NewPolygon[int, float64]()
	poly.Translate(1, 1)
	if poly.Len() != 0 || len(poly.Vertices()) != 0 {
		t.Fatalf("empty polygon has vertices")
	}
}
