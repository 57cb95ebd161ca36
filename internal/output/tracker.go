package output

import (
	"fmt"
	"math"

	"github.com/san-kum/driftsim/internal/action"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// Tracker samples one extra variable per living particle.
type Tracker interface {
	Name() string
	Units() string
	Sample(p *particle.Particle, t float64) float64
}

// FieldSampler reads scalar fields at a grid position.
type FieldSampler interface {
	Scalar(name string, p drift.Point, t float64) (float64, error)
	HasField(name string) bool
}

// NewTracker resolves a tracker name: length, stage and recruited read the
// particle traits, anything else names a scalar field of the dataset.
func NewTracker(name string, f FieldSampler) (Tracker, error) {
	switch name {
	case "length":
		return lengthTracker{}, nil
	case "stage":
		return stageTracker{}, nil
	case "recruited":
		return recruitedTracker{}, nil
	}
	if f == nil || !f.HasField(name) {
		return nil, fmt.Errorf("output: tracker %q: %w", name, drift.ErrUnknownField)
	}
	return &fieldTracker{field: name, f: f}, nil
}

type fieldTracker struct {
	field string
	f     FieldSampler
}

func (ft *fieldTracker) Name() string  { return ft.field }
func (ft *fieldTracker) Units() string { return "" }

func (ft *fieldTracker) Sample(p *particle.Particle, t float64) float64 {
	x, y, z := p.Grid()
	v, err := ft.f.Scalar(ft.field, drift.Point{X: x, Y: y, Z: z}, t)
	if err != nil {
		return math.NaN()
	}
	return v
}

type lengthTracker struct{}

func (lengthTracker) Name() string  { return "length" }
func (lengthTracker) Units() string { return "mm" }

func (lengthTracker) Sample(p *particle.Particle, _ float64) float64 {
	if l, ok := action.LengthOf(p); ok {
		return l
	}
	return math.NaN()
}

type stageTracker struct{}

func (stageTracker) Name() string  { return "stage" }
func (stageTracker) Units() string { return "0 egg, 1 yolk-sac, 2 feeding" }

func (stageTracker) Sample(p *particle.Particle, _ float64) float64 {
	if s, ok := action.StageOf(p); ok {
		return float64(s)
	}
	return math.NaN()
}

type recruitedTracker struct{}

func (recruitedTracker) Name() string  { return "recruited" }
func (recruitedTracker) Units() string { return "zone index, -1 before recruitment" }

func (recruitedTracker) Sample(p *particle.Particle, _ float64) float64 {
	if z, ok := action.RecruitedZone(p); ok {
		return float64(z)
	}
	return math.NaN()
}
