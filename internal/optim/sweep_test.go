package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/sim"
)

func eggs() *config.Config {
	c := *config.GetPreset("eggs", "buoyant")
	c.Duration = 6 * 3600
	c.Release.Number = 10
	c.Serial = []config.SerialParam{
		{Target: "buoyancy.particle_density", Values: []float64{1.020, 1.025, 1.030}},
		{Target: "buoyancy.age_max", Values: []float64{2, 4}},
	}
	return &c
}

func TestPoints(t *testing.T) {
	g, err := NewGridSearch(eggs())
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 6 {
		t.Fatalf("expected 6 points, got %d", g.Size())
	}
	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(points))
	}
	if points[0]["buoyancy.particle_density"] != 1.020 || points[1]["buoyancy.particle_density"] != 1.025 {
		t.Errorf("first target should vary fastest: %v %v", points[0], points[1])
	}
	if points[2]["buoyancy.age_max"] != 2 || points[3]["buoyancy.age_max"] != 4 {
		t.Errorf("second target should vary slowest: %v %v", points[2], points[3])
	}
	if points[5].String() != "buoyancy.age_max=4 buoyancy.particle_density=1.03" {
		t.Errorf("got %q", points[5].String())
	}
}

func TestNoSerialIsOneRun(t *testing.T) {
	g, err := NewGridSearch(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 1 || len(g.Points()) != 1 {
		t.Errorf("expected a single run, got %d", g.Size())
	}
}

func TestNewGridSearchErrors(t *testing.T) {
	for _, target := range []string{"nodot", "teleport.speed"} {
		cfg := config.DefaultConfig()
		cfg.Serial = []config.SerialParam{{Target: target, Values: []float64{1}}}
		if _, err := NewGridSearch(cfg); !errors.Is(err, drift.ErrInvalidConfig) {
			t.Errorf("%s: expected invalid config, got %v", target, err)
		}
	}
	cfg := config.DefaultConfig()
	cfg.Serial = []config.SerialParam{{Target: "advection.scheme"}}
	if _, err := NewGridSearch(cfg); !errors.Is(err, drift.ErrInvalidConfig) {
		t.Errorf("empty values: expected invalid config, got %v", err)
	}
}

func TestApplyCopies(t *testing.T) {
	cfg := eggs()
	c := Apply(cfg, Point{"buoyancy.particle_density": 1.1})

	if c.Serial != nil {
		t.Error("applied config still has serial parameters")
	}
	if v := c.Actions[2].Params["particle_density"]; v != 1.1 {
		t.Errorf("density not applied: %v", v)
	}
	if v := cfg.Actions[2].Params["particle_density"]; v != 1.0245 {
		t.Errorf("source config modified: %v", v)
	}
}

func TestSearch(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := eggs()
	cfg.Serial = cfg.Serial[:1]
	g, err := NewGridSearch(cfg)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := g.Search(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, r := range runs {
		if r.Result.Released != 10 {
			t.Errorf("run %d released %d", i, r.Result.Released)
		}
	}
	if runs[2].Config.Name != "eggs-buoyant_s3" {
		t.Errorf("run name %s", runs[2].Config.Name)
	}
}

func TestBest(t *testing.T) {
	runs := []Run{
		{Index: 0, Result: &sim.Result{Metrics: map[string]float64{"survival": 0.5}}},
		{Index: 1, Result: &sim.Result{Metrics: map[string]float64{"survival": 0.9}}},
		{Index: 2, Result: &sim.Result{Metrics: map[string]float64{}}},
	}
	if r, ok := Best(runs, "survival", true); !ok || r.Index != 1 {
		t.Errorf("maximize picked %d", r.Index)
	}
	if r, ok := Best(runs, "survival", false); !ok || r.Index != 0 {
		t.Errorf("minimize picked %d", r.Index)
	}
	if _, ok := Best(runs, "spread_km", false); ok {
		t.Error("expected no run with a missing metric")
	}
}
