package action

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// UNESCO equation of state coefficients.
const (
	dr350 = 28.106331
	c1    = 4.8314e-4
	c2    = 6.536332e-9
	c3    = 1.120083e-6
	c4    = 1.001685e-4
	c5    = 9.095290e-3
	c6    = 6.793952e-2
	c7    = 28.263737
	c8    = 5.3875e-9
	c9    = 8.2467e-7
	c10   = 7.6438e-5
	c11   = 4.0899e-3
	c12   = 8.24493e-1
	c13   = 1.6546e-6
	c14   = 1.0227e-4
	c15   = 5.72466e-3
)

const (
	molecularViscosity = 0.01  // g/cm/s
	gravity            = 980.0 // cm/s2
)

// WaterDensity is the sea water density in g/cm3 at the surface.
func WaterDensity(salt, temp float64) float64 {
	t := temp
	r1 := ((((c2*t-c3)*t+c4)*t-c5)*t+c6)*t - c7
	r2 := (((c8*t-c9)*t+c10)*t-c11)*t + c12
	r3 := (-c13*t+c14)*t - c15
	sigma := (c1*salt+r3*math.Sqrt(math.Abs(salt))+r2)*salt + r1
	return (1000 + sigma + dr350) / 1000
}

// Buoyancy moves eggs along the vertical with the Stokes terminal velocity
// of a prolate spheroid in sea water.
type Buoyancy struct {
	env       *Env
	density   float64 // g/cm3
	ages      []float64
	densities []float64
	ageMax    float64 // seconds
	minor     float64 // cm
	major     float64 // cm
	tempField string
	saltField string
}

func NewBuoyancy(env *Env, params config.Params) (Action, error) {
	if !env.Field.Is3D() {
		return nil, fmt.Errorf("action: buoyancy needs a 3D dataset: %w", drift.ErrInvalidConfig)
	}
	b := &Buoyancy{env: env}
	var err error
	if b.density, err = params.Float("particle_density", 1.025); err != nil {
		return nil, err
	}
	if b.minor, err = params.Float("mean_minor_axis", 0.05); err != nil {
		return nil, err
	}
	if b.major, err = params.Float("mean_major_axis", 0.14); err != nil {
		return nil, err
	}
	days, err := params.Float("age_max", env.TransportDuration/oneDay)
	if err != nil {
		return nil, err
	}
	b.ageMax = days * oneDay

	hours, err := params.Floats("density_ages")
	if err != nil {
		return nil, err
	}
	if b.densities, err = params.Floats("density_values"); err != nil {
		return nil, err
	}
	if len(hours) != len(b.densities) {
		return nil, fmt.Errorf("action: %d density ages for %d densities: %w", len(hours), len(b.densities), drift.ErrInvalidConfig)
	}
	for _, h := range hours {
		b.ages = append(b.ages, h*3600)
	}

	if b.tempField, err = params.String("temperature_field", dataset.FieldTemp); err != nil {
		return nil, err
	}
	if b.saltField, err = params.String("salinity_field", dataset.FieldSalt); err != nil {
		return nil, err
	}
	for _, f := range []string{b.tempField, b.saltField} {
		if !env.Field.HasField(f) {
			return nil, fmt.Errorf("action: buoyancy field %q: %w", f, drift.ErrMissingVariable)
		}
	}
	return b, nil
}

func (b *Buoyancy) Name() string { return "buoyancy" }
func (b *Buoyancy) Phase() Phase { return Biological }

// TerminalVelocity is the vertical speed in m/s, positive upward when the
// particle is lighter than the water.
func (b *Buoyancy) TerminalVelocity(salt, temp, density float64) float64 {
	rho := WaterDensity(salt, temp)
	logn := math.Log(2*b.major/b.minor) + 0.5
	w := gravity * b.minor * b.minor / (24 * molecularViscosity * rho) * logn * (rho - density)
	return w / 100
}

func (b *Buoyancy) active(p *particle.Particle) bool {
	if g, ok := growthOf(p); ok {
		return g.Stage == Egg
	}
	return p.Age < b.ageMax
}

func (b *Buoyancy) Execute(p *particle.Particle, t, dt float64) error {
	if !b.active(p) {
		return nil
	}
	density := b.density
	if len(b.ages) > 0 {
		density = interval(b.ages, b.densities, p.Age)
	}
	f := b.env.Field
	pos := position(p)
	salt, err := f.Scalar(b.saltField, pos, t)
	if err != nil {
		return err
	}
	temp, err := f.Scalar(b.tempField, pos, t)
	if err != nil {
		return err
	}
	if math.IsNaN(salt) || math.IsNaN(temp) {
		return nil
	}
	move := b.TerminalVelocity(salt, temp, density) * dt
	dz := f.Depth2Z(p.X(), p.Y(), p.Depth()+move) - p.Z()
	return p.Increment(0, 0, dz, false, false)
}
