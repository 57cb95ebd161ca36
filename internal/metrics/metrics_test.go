package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/driftsim/internal/particle"
)

func population(lons, lats, depths []float64) []*particle.Particle {
	pop := make([]*particle.Particle, len(lons))
	for i := range lons {
		p := particle.New(i, true, 10)
		p.SetLon(lons[i])
		p.SetLat(lats[i])
		p.SetDepth(depths[i])
		pop[i] = p
	}
	return pop
}

func TestSurvival(t *testing.T) {
	pop := population([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0}, []float64{0, 0, 0, 0})
	m := NewSurvival()
	m.Observe(pop, 0)
	if m.Value() != 1 {
		t.Errorf("expected full survival, got %f", m.Value())
	}

	pop[1].Kill(particle.DeadBeach)
	pop[2].Kill(particle.DeadCold)
	m.Observe(pop, 3600)
	if m.Value() != 0.5 {
		t.Errorf("expected half survival, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDeaths(t *testing.T) {
	pop := population([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0}, []float64{0, 0, 0, 0})
	pop[0].Kill(particle.DeadBeach)
	pop[3].Kill(particle.DeadOut)

	m := NewDeaths(particle.DeadBeach)
	if m.Name() != "dead_beached" {
		t.Errorf("unexpected name %q", m.Name())
	}
	m.Observe(pop, 0)
	if m.Value() != 0.25 {
		t.Errorf("expected a quarter beached, got %f", m.Value())
	}
}

func TestMeanAge(t *testing.T) {
	pop := population([]float64{0, 0, 0}, []float64{0, 0, 0}, []float64{0, 0, 0})
	pop[0].Age = 86400
	pop[1].Age = 3 * 86400
	pop[2].Age = 100 * 86400
	pop[2].Kill(particle.DeadOld)

	m := NewMeanAge()
	m.Observe(pop, 0)
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected 2 days, got %f", m.Value())
	}

	pop[0].Kill(particle.DeadOut)
	pop[1].Kill(particle.DeadOut)
	m.Observe(pop, 0)
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("an empty population must not drag the mean, got %f", m.Value())
	}
}

func TestMeanDepth(t *testing.T) {
	pop := population([]float64{0, 0, 0}, []float64{0, 0, 0}, []float64{-10, -30, -90})
	pop[2].Kill(particle.DeadCold)

	m := NewMeanDepth()
	m.Observe(pop, 0)
	if m.Value() != 20 {
		t.Errorf("expected 20 m, got %f", m.Value())
	}
}

func TestSpread(t *testing.T) {
	m := NewSpread()
	m.Observe(population([]float64{5, 5}, []float64{44, 44}, []float64{0, 0}), 0)
	if m.Value() != 0 {
		t.Errorf("expected no spread, got %f", m.Value())
	}

	m.Observe(population([]float64{0, 0}, []float64{-0.5, 0.5}, []float64{0, 0}), 0)
	// sample variance of {-0.5, 0.5} is 0.5
	want := 111.195 * math.Sqrt(0.5)
	if math.Abs(m.Value()-want) > 1e-9 {
		t.Errorf("expected %f km, got %f", want, m.Value())
	}
}
