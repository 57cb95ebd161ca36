package sim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/action"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
	"github.com/san-kum/driftsim/internal/release"
)

// Simulator steps a particle population through a dataset.
type Simulator struct {
	frames     FrameUpdater
	env        *action.Env
	schedule   *release.Schedule
	physical   []action.Action
	biological []action.Action
	traits     []TraitFactory
	coastline  action.Coastline
	metrics    []Metric
	observers  []Observer
	pop        []*particle.Particle
}

func New(frames FrameUpdater, env *action.Env, schedule *release.Schedule) *Simulator {
	return &Simulator{
		frames:    frames,
		env:       env,
		schedule:  schedule,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

// AddAction appends a to the actions of its phase; actions of a phase run
// in the order they were added.
func (s *Simulator) AddAction(a action.Action) {
	if a.Phase() == action.Physical {
		s.physical = append(s.physical, a)
	} else {
		s.biological = append(s.biological, a)
	}
}

func (s *Simulator) AddTrait(f TraitFactory)          { s.traits = append(s.traits, f) }
func (s *Simulator) SetCoastline(c action.Coastline)  { s.coastline = c }
func (s *Simulator) AddMetric(m Metric)               { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)           { s.observers = append(s.observers, o) }
func (s *Simulator) Population() []*particle.Particle { return s.pop }

func (s *Simulator) log() logrus.FieldLogger {
	if s.env.Log == nil {
		return logrus.StandardLogger()
	}
	return s.env.Log
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s.env.TransportDuration = cfg.TransportDuration

	steps := cfg.Steps()
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Alive:   make([]int, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	t, dt := cfg.Start, cfg.Dt
	if err := s.frames.Init(t); err != nil {
		return nil, &drift.StepError{Step: 0, Time: t, Wrapped: err}
	}
	if err := s.release(t); err != nil {
		return nil, &drift.StepError{Step: 0, Time: t, Wrapped: err}
	}
	if err := s.observe(result, 0, t); err != nil {
		return result, err
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := s.release(t); err != nil {
			return result, &drift.StepError{Step: i, Time: t, Wrapped: err}
		}
		if err := s.frames.Update(t); err != nil {
			s.finish(result)
			return result, &drift.StepError{Step: i, Time: t, Wrapped: err}
		}
		for _, p := range s.pop {
			if !p.IsLiving() {
				continue
			}
			if err := s.stepParticle(p, t, dt); err != nil {
				s.finish(result)
				return result, &drift.StepError{Step: i, Time: t, Wrapped: err}
			}
		}

		t += dt
		result.StepsTaken++
		if err := s.observe(result, i+1, t); err != nil {
			s.finish(result)
			return result, err
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) observe(result *Result, step int, t float64) error {
	for _, m := range s.metrics {
		m.Observe(s.pop, t)
	}
	for _, o := range s.observers {
		if err := o.OnStep(step, t, s.pop); err != nil {
			return err
		}
	}
	result.Times = append(result.Times, t)
	result.Alive = append(result.Alive, countAlive(s.pop))
	return nil
}

func (s *Simulator) finish(result *Result) {
	result.Released = len(s.pop)
	result.Causes = Census(s.pop)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// release turns the events due at t into particles. Points that do not
// map onto the grid are dropped with a warning.
func (s *Simulator) release(t float64) error {
	if s.schedule == nil {
		return nil
	}
	f := s.env.Field
	for _, ev := range s.schedule.Due(t) {
		pts, err := ev.Source.Positions(f, s.env.Rand)
		if err != nil {
			return err
		}
		for _, pt := range pts {
			p := particle.New(len(s.pop), f.Is3D(), f.Nz())
			p.SetLon(pt.Lon)
			p.SetLat(pt.Lat)
			p.SetDepth(pt.Depth)
			if !p.Geo2Grid(f) {
				s.log().WithFields(logrus.Fields{"lon": pt.Lon, "lat": pt.Lat}).Warn("release point outside the grid")
				continue
			}
			p.Grid2Geo(f)
			for _, tf := range s.traits {
				p.AddTrait(tf())
			}
			s.pop = append(s.pop, p)
		}
		s.log().WithFields(logrus.Fields{"time": t, "particles": len(pts)}).Debug("released")
	}
	return nil
}

// stepParticle runs one step of a living particle: transport, coast and
// edge checks, biology, then the traits.
func (s *Simulator) stepParticle(p *particle.Particle, t, dt float64) error {
	f := s.env.Field
	if p.Age > s.env.TransportDuration {
		s.kill(p, particle.DeadOld, t)
		return nil
	}

	if p.IsLocked() {
		p.DiscardMove()
	} else {
		for _, a := range s.physical {
			if err := a.Execute(p, t, dt); err != nil {
				return err
			}
			if !p.IsLiving() {
				s.logDeath(p, t)
				return nil
			}
		}
		s.coastline.Move(p, f)
		if !p.IsLiving() {
			s.logDeath(p, t)
			return nil
		}
	}
	p.Grid2Geo(f)

	for _, a := range s.biological {
		if err := a.Execute(p, t, dt); err != nil {
			return err
		}
		if !p.IsLiving() {
			s.logDeath(p, t)
			return nil
		}
	}
	if p.IsLocked() {
		p.DiscardMove()
	} else {
		p.ApplyMove()
	}
	p.Grid2Geo(f)

	p.ApplyTraits(t, dt)
	p.Grid2Geo(f)
	p.IncrementAge(dt)
	return nil
}

func (s *Simulator) kill(p *particle.Particle, c particle.Cause, t float64) {
	p.Kill(c)
	s.logDeath(p, t)
}

func (s *Simulator) logDeath(p *particle.Particle, t float64) {
	s.log().WithFields(logrus.Fields{
		"particle": p.Index,
		"cause":    p.Cause().String(),
		"age":      math.Round(p.Age),
		"time":     t,
	}).Debug("particle died")
}
