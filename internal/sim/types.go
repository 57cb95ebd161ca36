package sim

import (
	"fmt"

	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/particle"
)

// Metric summarises the population after every step.
type Metric interface {
	Name() string
	Observe(pop []*particle.Particle, t float64)
	Value() float64
	Reset()
}

// Observer sees the population after every step, step 0 being the state
// right after the first release. An error stops the run.
type Observer interface {
	OnStep(step int, t float64, pop []*particle.Particle) error
}

// FrameUpdater keeps the dataset frames around the simulation time.
type FrameUpdater interface {
	Init(t float64) error
	Update(t float64) error
}

// TraitFactory builds the trait attached to each released particle.
type TraitFactory func() particle.Trait

// Config is the time frame of one run, in seconds of the dataset time
// axis. A negative Dt runs backward from Start.
type Config struct {
	Start             float64
	Dt                float64
	Duration          float64
	TransportDuration float64
}

func DefaultConfig() Config {
	return Config{
		Dt:                3600,
		Duration:          5 * 86400,
		TransportDuration: 30 * 86400,
	}
}

// Steps is the number of steps Duration spans.
func (c Config) Steps() int {
	dt := c.Dt
	if dt < 0 {
		dt = -dt
	}
	return int(c.Duration / dt)
}

func (c Config) validate() error {
	if c.Dt == 0 {
		return fmt.Errorf("sim: dt must be non-zero: %w", drift.ErrInvalidConfig)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %g: %w", c.Duration, drift.ErrInvalidConfig)
	}
	if c.TransportDuration <= 0 {
		return fmt.Errorf("sim: transport duration must be positive, got %g: %w", c.TransportDuration, drift.ErrInvalidConfig)
	}
	return nil
}

type Result struct {
	StepsTaken int
	Times      []float64 // one per observation, starting at Start
	Alive      []int     // living particles at each time
	Released   int
	Causes     map[string]int // final population by cause
	Metrics    map[string]float64
}

// Census counts particles by cause.
func Census(pop []*particle.Particle) map[string]int {
	out := make(map[string]int, len(particle.Causes))
	for _, c := range particle.Causes {
		out[c.String()] = 0
	}
	for _, p := range pop {
		out[p.Cause().String()]++
	}
	return out
}

func countAlive(pop []*particle.Particle) int {
	n := 0
	for _, p := range pop {
		if p.IsLiving() {
			n++
		}
	}
	return n
}
