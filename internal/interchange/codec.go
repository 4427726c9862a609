// Package interchange reads and writes collections of plots in the flat
// text format used to exchange registers.
//
// Each plot is two lines. The first is a header:
//
//	ZU  <number> <owner> <buildablePercent> <builtArea>
//	ZAU <number> <owner> <buildablePercent>
//	ZN  <number> <owner>
//	ZA  <number> <owner> <cropType>
//
// The second lists the boundary vertices in order as "[x;y]" tokens
// separated by whitespace. x is an integer and y a decimal number.
package interchange

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/cadastre/core"
)

var (
	// ErrMalformedRecord indicates a record with a missing or extra field, an
	// unknown type code, an unparsable number or a bad vertex token.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnencodable indicates a zone whose owner or crop type cannot be
	// written as a single whitespace-free token.
	ErrUnencodable = errors.New("zone cannot be encoded")
)

// RecordError reports the record that stopped decoding. Line is the 1-based
// line number of the offending header or vertex line.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// fieldCount is the number of whitespace-separated header fields per kind.
var fieldCount = map[core.ZoneKind]int{
	core.KindUrban:            5,
	core.KindToBeUrbanized:    4,
	core.KindNaturalAndForest: 3,
	core.KindAgricultural:     4,
}

// Decode reads records from r until EOF. Blank lines between records are
// ignored. Decoding stops at the first bad record: every zone built so far is
// closed and a *RecordError is returned, so callers never see a partial
// collection.
func Decode(r io.Reader) ([]core.Zone, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	zones := make([]core.Zone, 0)
	fail := func(line int, err error) ([]core.Zone, error) {
		for _, z := range zones {
			z.Close()
		}
		return nil, &RecordError{Line: line, Err: err}
	}

	line := 0
	for sc.Scan() {
		line++
		header := sc.Text()
		if strings.TrimSpace(header) == "" {
			continue
		}
		headerLine := line

		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fail(headerLine, err)
			}
			return fail(headerLine, fmt.Errorf("%w: missing vertex line", ErrMalformedRecord))
		}
		line++

		vertices, err := parseVertices(sc.Text())
		if err != nil {
			return fail(line, err)
		}
		z, err := decodeRecord(header, vertices)
		if err != nil {
			return fail(headerLine, err)
		}
		zones = append(zones, z)
	}
	if err := sc.Err(); err != nil {
		return fail(line, err)
	}
	return zones, nil
}

func decodeRecord(header string, vertices []core.Vertex) (core.Zone, error) {
	fields := strings.Fields(header)
	kind, err := core.ParseZoneKind(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if want := fieldCount[kind]; len(fields) != want {
		return nil, fmt.Errorf("%w: %s record has %d fields, want %d", ErrMalformedRecord, kind.Code(), len(fields), want)
	}
	number, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: plot number %q", ErrMalformedRecord, fields[1])
	}
	owner := fields[2]
	shape := core.NewBoundary(vertices...)

	switch kind {
	case core.KindUrban:
		pct, err := parsePercent(fields[3])
		if err != nil {
			return nil, err
		}
		built, err := parseFloat("built area", fields[4])
		if err != nil {
			return nil, err
		}
		return core.NewUrbanZone(number, owner, shape, pct, &built, nil)
	case core.KindToBeUrbanized:
		pct, err := parsePercent(fields[3])
		if err != nil {
			return nil, err
		}
		return core.NewZoneToBeUrbanized(number, owner, shape, pct)
	case core.KindNaturalAndForest:
		return core.NewNaturalAndForestZone(number, owner, shape)
	default:
		return core.NewAgriculturalZone(number, owner, shape, fields[3])
	}
}

func parseVertices(line string) ([]core.Vertex, error) {
	tokens := strings.Fields(line)
	vertices := make([]core.Vertex, 0, len(tokens))
	for _, tok := range tokens {
		v, err := parseVertex(tok)
		if err != nil {
			return nil, err
		}
		vertices = append(vertices, v)
	}
	return vertices, nil
}

func parseVertex(tok string) (core.Vertex, error) {
	inner, ok := strings.CutPrefix(tok, "[")
	if ok {
		inner, ok = strings.CutSuffix(inner, "]")
	}
	if !ok {
		return core.Vertex{}, fmt.Errorf("%w: vertex %q is not [x;y]", ErrMalformedRecord, tok)
	}
	xs, ys, ok := strings.Cut(inner, ";")
	if !ok {
		return core.Vertex{}, fmt.Errorf("%w: vertex %q is not [x;y]", ErrMalformedRecord, tok)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return core.Vertex{}, fmt.Errorf("%w: vertex %q x coordinate", ErrMalformedRecord, tok)
	}
	y, err := parseFloat("vertex y coordinate", ys)
	if err != nil {
		return core.Vertex{}, err
	}
	return core.NewVertex(x, y), nil
}

func parsePercent(s string) (int, error) {
	pct, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: buildable percent %q", ErrMalformedRecord, s)
	}
	return pct, nil
}

func parseFloat(what, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedRecord, what, s)
	}
	return v, nil
}

// Encode writes zones to w in the order given, in the layout Decode reads.
// Zones are checked before anything is written.
func Encode(w io.Writer, zones []core.Zone) error {
	for _, z := range zones {
		if err := checkEncodable(z); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	for _, z := range zones {
		bw.WriteString(header(z))
		bw.WriteByte('\n')
		for i, v := range z.Shape().Vertices() {
			if i > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "[%d;%s]", v.X(), formatFloat(v.Y()))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func header(z core.Zone) string {
	fields := []string{z.Kind().Code(), strconv.Itoa(z.Number()), z.Owner()}
	switch v := z.(type) {
	case *core.UrbanZone:
		fields = append(fields, strconv.Itoa(v.BuildablePercent()), formatFloat(v.BuiltArea()))
	case *core.ZoneToBeUrbanized:
		fields = append(fields, strconv.Itoa(v.BuildablePercent()))
	case *core.AgriculturalZone:
		fields = append(fields, v.CropType())
	}
	return strings.Join(fields, " ")
}

func checkEncodable(z core.Zone) error {
	if z == nil {
		return fmt.Errorf("%w: nil zone", ErrUnencodable)
	}
	switch z.(type) {
	case *core.UrbanZone, *core.ZoneToBeUrbanized, *core.NaturalAndForestZone, *core.AgriculturalZone:
	default:
		return fmt.Errorf("%w: plot %d has unsupported type %T", ErrUnencodable, z.Number(), z)
	}
	if !isToken(z.Owner()) {
		return fmt.Errorf("%w: plot %d owner %q", ErrUnencodable, z.Number(), z.Owner())
	}
	if a, ok := z.(*core.AgriculturalZone); ok && !isToken(a.CropType()) {
		return fmt.Errorf("%w: plot %d crop type %q", ErrUnencodable, z.Number(), a.CropType())
	}
	return nil
}

func isToken(s string) bool {
	return s != "" && len(strings.Fields(s)) == 1 && strings.TrimSpace(s) == s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
