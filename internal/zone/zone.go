// Package zone holds the lon/lat polygons used to release and recruit
// particles.
package zone

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/san-kum/driftsim/internal/drift"
)

// Zone is a closed lon/lat polygon with an optional depth range in
// metres, negative below the surface.
type Zone struct {
	Name     string
	Polygon  geom.Polygon
	DepthMin float64
	DepthMax float64
}

// New closes the ring if needed. A zone needs three distinct vertices.
func New(name string, vertices [][2]float64) (*Zone, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("zone %q: need at least 3 vertices, got %d: %w", name, len(vertices), drift.ErrInvalidConfig)
	}
	ring := make([]geom.Point, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, geom.Point{X: v[0], Y: v[1]})
	}
	if !ring[0].Equals(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, fmt.Errorf("zone %q: degenerate polygon: %w", name, drift.ErrInvalidConfig)
	}
	return &Zone{Name: name, Polygon: geom.Polygon{ring}}, nil
}

// WithDepth sets the depth range, ordering the bounds.
func (z *Zone) WithDepth(a, b float64) *Zone {
	z.DepthMin, z.DepthMax = min(a, b), max(a, b)
	return z
}

// Contains treats points on the border as inside.
func (z *Zone) Contains(lon, lat float64) bool {
	return geom.Point{X: lon, Y: lat}.Within(z.Polygon) != geom.Outside
}

func (z *Zone) Bounds() *geom.Bounds { return z.Polygon.Bounds() }

// Area is in square degrees.
func (z *Zone) Area() float64 { return z.Polygon.Area() }

// Find returns the index of the first zone holding (lon, lat), or -1.
func Find(zones []*Zone, lon, lat float64) int {
	for i, z := range zones {
		if z.Contains(lon, lat) {
			return i
		}
	}
	return -1
}
