// Package experiment assembles a simulation from a config: dataset, frame
// manager, interpolator, actions, traits, release schedule and output.
package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/action"
	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/interp"
	"github.com/san-kum/driftsim/internal/output"
	"github.com/san-kum/driftsim/internal/release"
	"github.com/san-kum/driftsim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	log       logrus.FieldLogger
	reader    dataset.Reader
	field     *interp.Interpolator
	simulator *sim.Simulator
	writer    *output.Writer
}

func New(cfg *config.Config, log logrus.FieldLogger) *Experiment {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      log,
	}
}

// Setup opens the dataset and builds the simulator. The output file, when
// configured, is created here and closed by Run.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	reader, err := e.registry.OpenDataset(cfg.Dataset, e.log)
	if err != nil {
		return err
	}
	e.reader = reader

	dir := drift.DirectionOf(cfg.Dt)
	manager := dataset.NewManager(reader, cfg.Dataset.Scalars, dir, e.log)
	if err := manager.Init(cfg.Start); err != nil {
		return err
	}
	e.field = interp.New(manager, e.log)

	env := &action.Env{
		Field:             e.field,
		Rand:              rand.New(rand.NewSource(cfg.Seed)),
		Log:               e.log,
		TransportDuration: cfg.TransportDuration,
	}
	for _, tc := range cfg.Traits {
		if tc.Name == "growth" {
			env.Growth = true
		}
	}

	schedule, err := release.New(cfg.Release, cfg.Start, dir, e.log)
	if err != nil {
		return err
	}
	s := sim.New(manager, env, schedule)

	coast, err := action.ParseCoastline(cfg.Coastline)
	if err != nil {
		return err
	}
	s.SetCoastline(coast)

	for _, ac := range cfg.Actions {
		a, err := e.registry.GetAction(ac.Name, env, ac.Params)
		if err != nil {
			return fmt.Errorf("action %s: %w", ac.Name, err)
		}
		s.AddAction(a)
	}
	for _, tc := range cfg.Traits {
		tf, err := e.registry.GetTrait(tc.Name, env, tc.Params)
		if err != nil {
			return fmt.Errorf("trait %s: %w", tc.Name, err)
		}
		s.AddTrait(tf)
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}

	if cfg.Output.File != "" {
		if err := e.openOutput(s, schedule); err != nil {
			return err
		}
	}

	e.simulator = s
	return nil
}

func (e *Experiment) openOutput(s *sim.Simulator, schedule *release.Schedule) error {
	cfg := e.cfg
	n, err := schedule.Capacity(e.field)
	if err != nil {
		return err
	}
	trackers := make([]output.Tracker, 0, len(cfg.Output.Trackers))
	for _, name := range cfg.Output.Trackers {
		tr, err := output.NewTracker(name, e.field)
		if err != nil {
			return err
		}
		trackers = append(trackers, tr)
	}
	path := cfg.Output.File
	if cfg.Output.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Output.Dir, path)
	}
	w, err := output.Create(path, n, output.Options{
		RecordFrequency: cfg.Output.RecordFrequency,
		Trackers:        trackers,
		Attributes: map[string]string{
			"title":     cfg.Name,
			"dataset":   cfg.Dataset.Type,
			"coastline": cfg.Coastline,
		},
		Log: e.log,
	})
	if err != nil {
		return err
	}
	e.writer = w
	s.AddObserver(w)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	defer e.Close()

	return e.simulator.Run(ctx, e.SimConfig())
}

// SimConfig is the time frame of the configured run.
func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Start:             e.cfg.Start,
		Dt:                e.cfg.Dt,
		Duration:          e.cfg.Duration,
		TransportDuration: e.cfg.TransportDuration,
	}
}

// Close releases the dataset and finishes the output file.
func (e *Experiment) Close() error {
	var first error
	if e.writer != nil {
		first = e.writer.Close()
		e.writer = nil
	}
	if e.reader != nil {
		if err := e.reader.Close(); err != nil && first == nil {
			first = err
		}
		e.reader = nil
	}
	return first
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Field is the interpolator over the opened dataset, nil before Setup.
func (e *Experiment) Field() *interp.Interpolator { return e.field }

// OutputPath is the trajectory file of the run, empty without output.
func (e *Experiment) OutputPath() string {
	if e.writer == nil {
		return ""
	}
	return e.writer.Path()
}

// RunEnsemble runs n realisations seeded from cfg.Seed onward. Every
// member opens its own dataset; members do not write trajectory files.
func RunEnsemble(ctx context.Context, cfg *config.Config, n int, log logrus.FieldLogger) ([]*sim.Result, error) {
	var (
		mu   sync.Mutex
		exps []*Experiment
	)
	defer func() {
		for _, e := range exps {
			e.Close()
		}
	}()

	build := func(seed int64) (*sim.Simulator, error) {
		c := *cfg
		c.Seed = seed
		c.Output.File = ""
		e := New(&c, log)
		mu.Lock()
		exps = append(exps, e)
		mu.Unlock()
		if err := e.Setup(e.registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return e.simulator, nil
	}
	return sim.NewEnsemble(build, n, cfg.Seed).Run(ctx, New(cfg, log).SimConfig())
}
