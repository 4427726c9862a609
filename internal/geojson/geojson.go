// Package geojson renders plots as a GeoJSON FeatureCollection for map
// display. The view is read-only; plots are never decoded from GeoJSON.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	geom "github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/signalsfoundry/cadastre/core"
	"github.com/signalsfoundry/cadastre/internal/logging"
)

// ContentType is the media type served by Handler.
const ContentType = "application/geo+json"

// Ring returns the boundary of z as a closed linear ring: the first vertex is
// repeated at the end unless it is already there.
func Ring(z core.Zone) []geom.Coord {
	vertices := z.Shape().Vertices()
	ring := make([]geom.Coord, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, geom.Coord{float64(v.X()), v.Y()})
	}
	if n := len(vertices); n > 0 && vertices[0] != vertices[n-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// Feature converts one zone into a Polygon feature whose ID is the plot
// number.
func Feature(z core.Zone) (*geomjson.Feature, error) {
	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{Ring(z)})
	if err != nil {
		return nil, fmt.Errorf("plot %d: %w", z.Number(), err)
	}
	return &geomjson.Feature{
		ID:         strconv.Itoa(z.Number()),
		Geometry:   poly,
		Properties: properties(z),
	}, nil
}

func properties(z core.Zone) map[string]any {
	props := map[string]any{
		"number":            z.Number(),
		"owner":             z.Owner(),
		"kind":              z.Kind().Code(),
		"area":              z.Area(),
		"buildable_percent": z.BuildablePercent(),
	}
	if b, ok := z.(core.Buildable); ok {
		props["buildable_area"] = b.BuildableArea()
	}
	switch v := z.(type) {
	case *core.UrbanZone:
		props["built_area"] = v.BuiltArea()
	case *core.AgriculturalZone:
		props["crop_type"] = v.CropType()
	}
	return props
}

// Collection converts zones into a FeatureCollection in the order given. The
// collection carries a bounding box when it is not empty.
func Collection(zones []core.Zone) (*geomjson.FeatureCollection, error) {
	fc := &geomjson.FeatureCollection{Features: make([]*geomjson.Feature, 0, len(zones))}
	var bounds *geom.Bounds
	for _, z := range zones {
		f, err := Feature(z)
		if err != nil {
			return nil, err
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(f.Geometry)
		fc.Features = append(fc.Features, f)
	}
	fc.BBox = bounds
	return fc, nil
}

// Write encodes zones to w as a FeatureCollection.
func Write(w io.Writer, zones []core.Zone) error {
	fc, err := Collection(zones)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write feature collection: %w", err)
	}
	return nil
}

// Handler serves the zones returned by list as a FeatureCollection.
func Handler(list func() []core.Zone, log logging.Logger) http.Handler {
	if log == nil {
		log = logging.Noop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fc, err := Collection(list())
		if err != nil {
			log.Error(r.Context(), "geojson export failed", logging.Err(err))
			http.Error(w, "geojson export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			log.Warn(r.Context(), "geojson response write failed", logging.Err(err))
		}
	})
}
