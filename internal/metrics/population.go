package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/driftsim/internal/particle"
)

const (
	secondsPerDay = 86400.0
	kmPerDegree   = 111.195
)

// MeanAge is the mean age in days of the living particles, averaged over
// every observation that had one.
type MeanAge struct {
	name    string
	sum     float64
	samples int
}

func NewMeanAge() *MeanAge {
	return &MeanAge{name: "mean_age_days"}
}

func (m *MeanAge) Name() string { return m.name }

func (m *MeanAge) Observe(pop []*particle.Particle, t float64) {
	ages := make([]float64, 0, len(pop))
	for _, p := range pop {
		if p.IsLiving() {
			ages = append(ages, p.Age/secondsPerDay)
		}
	}
	if len(ages) == 0 {
		return
	}
	m.sum += stat.Mean(ages, nil)
	m.samples++
}

func (m *MeanAge) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanAge) Reset() {
	m.sum = 0
	m.samples = 0
}

// MeanDepth is the mean depth of the living particles at the last
// observation, in metres below the surface.
type MeanDepth struct {
	name  string
	depth float64
}

func NewMeanDepth() *MeanDepth {
	return &MeanDepth{name: "mean_depth"}
}

func (m *MeanDepth) Name() string { return m.name }

func (m *MeanDepth) Observe(pop []*particle.Particle, t float64) {
	depths := make([]float64, 0, len(pop))
	for _, p := range pop {
		if p.IsLiving() && !math.IsNaN(p.Depth()) {
			depths = append(depths, -p.Depth())
		}
	}
	if len(depths) == 0 {
		m.depth = 0
		return
	}
	m.depth = stat.Mean(depths, nil)
}

func (m *MeanDepth) Value() float64 { return m.depth }

func (m *MeanDepth) Reset() { m.depth = 0 }

// Spread is the horizontal standard distance of the living particles
// around their centroid at the last observation, in kilometres.
type Spread struct {
	name   string
	spread float64
}

func NewSpread() *Spread {
	return &Spread{name: "spread_km"}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(pop []*particle.Particle, t float64) {
	var lons, lats []float64
	for _, p := range pop {
		if p.IsLiving() {
			lons = append(lons, p.Lon())
			lats = append(lats, p.Lat())
		}
	}
	if len(lons) < 2 {
		s.spread = 0
		return
	}
	coslat := math.Cos(stat.Mean(lats, nil) * math.Pi / 180)
	_, vx := stat.MeanVariance(lons, nil)
	_, vy := stat.MeanVariance(lats, nil)
	s.spread = kmPerDegree * math.Sqrt(vx*coslat*coslat+vy)
}

func (s *Spread) Value() float64 { return s.spread }

func (s *Spread) Reset() { s.spread = 0 }
