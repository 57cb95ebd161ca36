// Package action implements the per-particle processes run at every time
// step: transport, dispersion, buoyancy, migration, mortality and the
// growth and recruitment traits.
package action

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/grid"
	"github.com/san-kum/driftsim/internal/integrators"
	"github.com/san-kum/driftsim/internal/interp"
	"github.com/san-kum/driftsim/internal/particle"
)

// Sampler is the view of the ocean an action works with.
type Sampler interface {
	integrators.Field
	particle.Locator
	Geometry() *grid.Geometry
	Is3D() bool
	Nz() int
	IsInWater(x, y float64) bool
	Scalar(name string, p drift.Point, t float64) (float64, error)
	HasField(name string) bool
	Kv(field string, p drift.Point, t, dt float64) (interp.KvSample, error)
	Bottom(x, y float64) float64
}

// Env is shared by every action of one simulation.
type Env struct {
	Field             Sampler
	Rand              *rand.Rand
	Log               logrus.FieldLogger
	TransportDuration float64 // seconds
	Growth            bool    // a growth trait is attached to every particle
}

func (e *Env) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Phase decides where in the step an action runs.
type Phase int

const (
	// Physical actions run before the particle moves.
	Physical Phase = iota
	// Biological actions run after the move, on living particles only.
	Biological
)

// Action is one process applied to a living particle.
type Action interface {
	Name() string
	Phase() Phase
	Execute(p *particle.Particle, t, dt float64) error
}

func position(p *particle.Particle) drift.Point {
	x, y, z := p.Grid()
	return drift.Point{X: x, Y: y, Z: z}
}

// interval picks the value of the table row whose [ages[i], ages[i+1])
// holds age, the last value past the end.
func interval(ages, values []float64, age float64) float64 {
	for i := 0; i < len(ages)-1; i++ {
		if ages[i] <= age && age < ages[i+1] {
			return values[i]
		}
	}
	return values[len(values)-1]
}
