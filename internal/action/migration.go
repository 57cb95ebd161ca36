package action

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// Migration sends particles to a day depth between sunrise and sunset and
// to a night depth otherwise. It replaces any vertical move computed
// earlier in the step.
type Migration struct {
	env     *Env
	day     float64 // metres, negative below the surface
	night   float64
	sunrise int // minutes after midnight
	sunset  int
	ageMin  float64 // seconds
}

func NewMigration(env *Env, params config.Params) (Action, error) {
	if !env.Field.Is3D() {
		return nil, fmt.Errorf("action: vertical migration needs a 3D dataset: %w", drift.ErrInvalidConfig)
	}
	m := &Migration{env: env}
	day, err := params.Float("day_depth", 0)
	if err != nil {
		return nil, err
	}
	night, err := params.Float("night_depth", 0)
	if err != nil {
		return nil, err
	}
	m.day, m.night = -math.Abs(day), -math.Abs(night)

	if m.sunrise, err = clock(params, "sunrise", "06:00"); err != nil {
		return nil, err
	}
	if m.sunset, err = clock(params, "sunset", "18:00"); err != nil {
		return nil, err
	}
	if m.sunrise >= m.sunset {
		return nil, fmt.Errorf("action: sunrise must precede sunset: %w", drift.ErrInvalidConfig)
	}
	days, err := params.Float("age_min", 0)
	m.ageMin = days * oneDay
	return m, err
}

// clock parses an HH:MM parameter into minutes after midnight.
func clock(params config.Params, key, def string) (int, error) {
	s, err := params.String(key, def)
	if err != nil {
		return 0, err
	}
	tm, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("action: %s %q is not HH:MM: %w", key, s, drift.ErrInvalidConfig)
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func (m *Migration) Name() string { return "migration" }
func (m *Migration) Phase() Phase { return Biological }

// IsDay reports whether t, in seconds, falls between sunrise and sunset.
func (m *Migration) IsDay(t float64) bool {
	s := math.Mod(t, oneDay)
	if s < 0 {
		s += oneDay
	}
	minute := int(s / 60)
	return minute >= m.sunrise && minute < m.sunset
}

func (m *Migration) active(p *particle.Particle) bool {
	if g, ok := growthOf(p); ok {
		return g.Stage != Egg
	}
	return p.Age >= m.ageMin
}

func (m *Migration) Execute(p *particle.Particle, t, dt float64) error {
	if !m.active(p) {
		return nil
	}
	target := m.night
	if m.IsDay(t) {
		target = m.day
	}
	f := m.env.Field
	x, y := p.X(), p.Y()
	target = math.Max(target, f.Bottom(x, y))
	dz := f.Depth2Z(x, y, target) - p.Z()
	return p.Increment(0, 0, dz, false, true)
}
