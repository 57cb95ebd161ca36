package metrics

import (
	"github.com/san-kum/driftsim/internal/particle"
)

// Survival is the fraction of released particles alive at the last
// observation.
type Survival struct {
	name     string
	alive    int
	released int
}

func NewSurvival() *Survival {
	return &Survival{
		name: "survival",
	}
}

func (s *Survival) Name() string { return s.name }

func (s *Survival) Observe(pop []*particle.Particle, t float64) {
	s.released = len(pop)
	s.alive = 0
	for _, p := range pop {
		if p.IsLiving() {
			s.alive++
		}
	}
}

func (s *Survival) Value() float64 {
	if s.released == 0 {
		return 0
	}
	return float64(s.alive) / float64(s.released)
}

func (s *Survival) Reset() {
	s.alive = 0
	s.released = 0
}

// Deaths is the fraction of released particles that died of one cause.
type Deaths struct {
	name     string
	cause    particle.Cause
	dead     int
	released int
}

func NewDeaths(c particle.Cause) *Deaths {
	return &Deaths{
		name:  "dead_" + c.String(),
		cause: c,
	}
}

func (d *Deaths) Name() string { return d.name }

func (d *Deaths) Observe(pop []*particle.Particle, t float64) {
	d.released = len(pop)
	d.dead = 0
	for _, p := range pop {
		if p.Cause() == d.cause {
			d.dead++
		}
	}
}

func (d *Deaths) Value() float64 {
	if d.released == 0 {
		return 0
	}
	return float64(d.dead) / float64(d.released)
}

func (d *Deaths) Reset() {
	d.dead = 0
	d.released = 0
}
