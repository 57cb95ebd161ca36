package action

import (
	"fmt"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/integrators"
	"github.com/san-kum/driftsim/internal/particle"
)

// Advection moves particles with the interpolated current.
//
// Backward runs take a first estimate, kill the particle if that lands on
// the domain edge, and otherwise recompute the move from the displaced
// point. Setting backward_corrector to false keeps the first estimate.
type Advection struct {
	env        *Env
	scheme     integrators.Scheme
	horizontal bool
	vertical   bool
	corrector  bool
}

func NewAdvection(env *Env, params config.Params) (Action, error) {
	name, err := params.String("scheme", config.DefaultScheme)
	if err != nil {
		return nil, err
	}
	var s integrators.Scheme
	switch name {
	case "euler":
		s = integrators.NewEuler()
	case "rk4":
		s = integrators.NewRK4()
	default:
		return nil, fmt.Errorf("action: unknown advection scheme %q: %w", name, drift.ErrInvalidConfig)
	}
	threshold, err := params.Float("cfl_threshold", config.DefaultCFLThreshold)
	if err != nil {
		return nil, err
	}
	a := &Advection{
		env:    env,
		scheme: integrators.NewCFLCheck(s, threshold, env.logger().WithField("action", "advection")),
	}
	if a.horizontal, err = params.Bool("horizontal", true); err != nil {
		return nil, err
	}
	if a.vertical, err = params.Bool("vertical", true); err != nil {
		return nil, err
	}
	if a.corrector, err = params.Bool("backward_corrector", true); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Advection) Name() string { return "advection" }
func (a *Advection) Phase() Phase { return Physical }

func (a *Advection) Execute(p *particle.Particle, t, dt float64) error {
	f := a.env.Field
	pos := position(p)
	mv := a.scheme.Advect(f, pos, t, dt)
	if dt < 0 && a.corrector {
		probe := pos.Add(mv)
		if f.IsOnEdge(probe.X, probe.Y) {
			p.Kill(particle.DeadOut)
			return nil
		}
		mv = a.scheme.Advect(f, probe, t, dt)
	}
	if !a.horizontal {
		mv.X, mv.Y = 0, 0
	}
	if !a.vertical {
		mv.Z = 0
	}
	return p.Increment(mv.X, mv.Y, mv.Z, false, false)
}
