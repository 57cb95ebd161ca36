package action

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// Stage is a development stage derived from length.
type Stage int

const (
	Egg Stage = iota
	YolkSac
	Feeding
)

func (s Stage) String() string {
	switch s {
	case Egg:
		return "egg"
	case YolkSac:
		return "yolk-sac"
	case Feeding:
		return "feeding"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

const (
	growthTrait = "growth"
	oneDay      = 86400.0
)

// GrowthModel holds the parameters shared by every Growth trait.
type GrowthModel struct {
	env        *Env
	coeff1     float64 // mm/day
	coeff2     float64 // mm/day/degC
	threshold  float64 // degC
	halfSat    float64
	tempField  string
	foodField  string
	initial    float64 // mm
	hatch      float64 // mm
	yolkToFeed float64 // mm
}

// NewGrowth reads the linear growth parameters. Length grows by
// (coeff1 + coeff2*max(T, threshold)) * Q mm per day, with Q a Michaelis
// Menten food limitation when half_saturation is set.
func NewGrowth(env *Env, params config.Params) (*GrowthModel, error) {
	m := &GrowthModel{env: env}
	var err error
	for _, f := range []struct {
		key string
		dst *float64
		def float64
	}{
		{"coeff1", &m.coeff1, 0.02},
		{"coeff2", &m.coeff2, 0.03},
		{"threshold", &m.threshold, 10},
		{"half_saturation", &m.halfSat, 0},
		{"initial_length", &m.initial, 0.025},
		{"hatch_length", &m.hatch, 2.8},
		{"yolk_to_feeding_length", &m.yolkToFeed, 4.5},
	} {
		if *f.dst, err = params.Float(f.key, f.def); err != nil {
			return nil, err
		}
	}
	if m.tempField, err = params.String("temperature_field", dataset.FieldTemp); err != nil {
		return nil, err
	}
	if !env.Field.HasField(m.tempField) {
		return nil, fmt.Errorf("action: growth field %q: %w", m.tempField, drift.ErrMissingVariable)
	}
	if m.halfSat > 0 {
		if m.foodField, err = params.String("food_field", ""); err != nil {
			return nil, err
		}
		if !env.Field.HasField(m.foodField) {
			return nil, fmt.Errorf("action: growth food field %q: %w", m.foodField, drift.ErrMissingVariable)
		}
	}
	if m.hatch > m.yolkToFeed {
		return nil, fmt.Errorf("action: hatch_length %g exceeds yolk_to_feeding_length %g: %w", m.hatch, m.yolkToFeed, drift.ErrInvalidConfig)
	}
	return m, nil
}

func (m *GrowthModel) Stage(length float64) Stage {
	switch {
	case length < m.hatch:
		return Egg
	case length < m.yolkToFeed:
		return YolkSac
	default:
		return Feeding
	}
}

// Rate is the length increment in mm over dt seconds.
func (m *GrowthModel) Rate(temp, food, dt float64) float64 {
	if math.IsNaN(temp) || math.IsNaN(food) {
		return 0
	}
	q := 1.0
	if m.halfSat > 0 {
		q = food / (food + m.halfSat)
	}
	return (m.coeff1 + m.coeff2*math.Max(temp, m.threshold)) * q * math.Abs(dt) / oneDay
}

// NewTrait starts a particle at the initial length.
func (m *GrowthModel) NewTrait() particle.Trait {
	return &Growth{model: m, Length: m.initial, Stage: m.Stage(m.initial)}
}

// Growth is the length and stage of one particle.
type Growth struct {
	model  *GrowthModel
	Length float64 // mm
	Stage  Stage
}

func (g *Growth) Name() string { return growthTrait }

func (g *Growth) ApplyStep(p *particle.Particle, t, dt float64) {
	m := g.model
	pos := position(p)
	temp, _ := m.env.Field.Scalar(m.tempField, pos, t)
	food := 1.0
	if m.halfSat > 0 {
		food, _ = m.env.Field.Scalar(m.foodField, pos, t)
	}
	g.Length += m.Rate(temp, food, dt)
	g.Stage = m.Stage(g.Length)
}

// growthOf finds the growth trait of p, if any.
func growthOf(p *particle.Particle) (*Growth, bool) {
	tr, ok := p.Trait(growthTrait)
	if !ok {
		return nil, false
	}
	g, ok := tr.(*Growth)
	return g, ok
}

// LengthOf returns the length in mm of a particle carrying a growth trait.
func LengthOf(p *particle.Particle) (float64, bool) {
	g, ok := growthOf(p)
	if !ok {
		return 0, false
	}
	return g.Length, true
}

// StageOf returns the development stage of a particle carrying a growth
// trait.
func StageOf(p *particle.Particle) (Stage, bool) {
	g, ok := growthOf(p)
	if !ok {
		return Egg, false
	}
	return g.Stage, true
}
