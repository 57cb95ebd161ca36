package integrators

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/drift"
)

// DefaultCFLThreshold is one grid cell per step.
const DefaultCFLThreshold = 1.0

// CFLCheck wraps a scheme and warns whenever a stage displacement, a
// sampled velocity times dt, exceeds Threshold grid cells on any axis.
// The move itself is never altered.
type CFLCheck struct {
	Scheme    Scheme
	Threshold float64
	Log       logrus.FieldLogger
}

func NewCFLCheck(s Scheme, threshold float64, log logrus.FieldLogger) *CFLCheck {
	if threshold <= 0 {
		threshold = DefaultCFLThreshold
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CFLCheck{Scheme: s, Threshold: threshold, Log: log}
}

func (c *CFLCheck) Advect(f Field, p drift.Point, t, dt float64) drift.Point {
	return c.Scheme.Advect(&stageCheck{Field: f, cfl: c, dt: dt}, p, t, dt)
}

// stageCheck sees every velocity sample a scheme takes.
type stageCheck struct {
	Field
	cfl   *CFLCheck
	dt    float64
	stage int
}

func (s *stageCheck) Velocity(p drift.Point, t float64) drift.Point {
	v := s.Field.Velocity(p, t)
	s.stage++
	for _, ax := range []struct {
		name string
		v    float64
	}{{"u", v.X}, {"v", v.Y}, {"w", v.Z}} {
		if move := ax.v * s.dt; math.Abs(move) > s.cfl.Threshold {
			s.cfl.Log.WithFields(logrus.Fields{
				"axis":      ax.name,
				"stage":     s.stage,
				"move":      move,
				"threshold": s.cfl.Threshold,
				"time":      t,
			}).Warn("CFL broken")
		}
	}
	return v
}
