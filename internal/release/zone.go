package release

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/zone"
)

// maxTries bounds rejection sampling per particle.
const maxTries = 10000

// Zone scatters Number particles uniformly over the wet part of a polygon,
// at depths uniform in the zone's depth range.
type Zone struct {
	Area   *zone.Zone
	Number int
}

func NewZone(z *zone.Zone, n int) *Zone {
	return &Zone{Area: z, Number: n}
}

func (r *Zone) Positions(d Domain, rng *rand.Rand) ([]Position, error) {
	b := r.Area.Bounds()
	dLon, dLat := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	out := make([]Position, 0, r.Number)
	for len(out) < r.Number {
		found := false
		for try := 0; try < maxTries; try++ {
			lon := b.Min.X + rng.Float64()*dLon
			lat := b.Min.Y + rng.Float64()*dLat
			if !r.Area.Contains(lon, lat) || !inWater(d, lon, lat) {
				continue
			}
			depth := r.Area.DepthMin + rng.Float64()*(r.Area.DepthMax-r.Area.DepthMin)
			out = append(out, Position{Lon: lon, Lat: lat, Depth: depth})
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("release: zone %q has no water cell in the domain: %w", r.Area.Name, drift.ErrOutsideDomain)
		}
	}
	return out, nil
}
