// Package optim runs a config over every combination of its serial
// parameters and ranks the runs by a metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/drift"
	"github.com/san-kum/driftsim/internal/experiment"
	"github.com/san-kum/driftsim/internal/sim"
)

// Point is one combination of serial values, keyed by target.
type Point map[string]float64

func (p Point) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

type Run struct {
	Index  int
	Point  Point
	Config *config.Config
	Result *sim.Result
}

type GridSearch struct {
	targets []string
	values  [][]float64
}

// NewGridSearch reads the serial parameters of cfg. Every target must name
// an action or trait of cfg.
func NewGridSearch(cfg *config.Config) (*GridSearch, error) {
	g := &GridSearch{}
	for _, sp := range cfg.Serial {
		name, _, ok := strings.Cut(sp.Target, ".")
		if !ok {
			return nil, fmt.Errorf("serial target %q is not name.param: %w", sp.Target, drift.ErrInvalidConfig)
		}
		if len(sp.Values) == 0 {
			return nil, fmt.Errorf("serial target %q has no value: %w", sp.Target, drift.ErrInvalidConfig)
		}
		if findAction(cfg, name) == nil {
			return nil, fmt.Errorf("serial target %q: no action or trait %s: %w", sp.Target, name, drift.ErrInvalidConfig)
		}
		g.targets = append(g.targets, sp.Target)
		g.values = append(g.values, sp.Values)
	}
	return g, nil
}

func findAction(cfg *config.Config, name string) *config.ActionConfig {
	for i := range cfg.Actions {
		if cfg.Actions[i].Name == name {
			return &cfg.Actions[i]
		}
	}
	for i := range cfg.Traits {
		if cfg.Traits[i].Name == name {
			return &cfg.Traits[i]
		}
	}
	return nil
}

// Size is the number of runs, the product of the value counts.
func (g *GridSearch) Size() int {
	n := 1
	for _, v := range g.values {
		n *= len(v)
	}
	return n
}

// Points enumerates the combinations, the first target varying fastest.
func (g *GridSearch) Points() []Point {
	points := make([]Point, 0, g.Size())
	g.searchRecursive(0, Point{}, &points)
	return points
}

func (g *GridSearch) searchRecursive(depth int, current Point, out *[]Point) {
	if depth == len(g.targets) {
		p := make(Point, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	last := len(g.targets) - 1 - depth
	for _, val := range g.values[last] {
		current[g.targets[last]] = val
		g.searchRecursive(depth+1, current, out)
	}
}

// Apply returns a copy of cfg with the values of p set and no serial
// parameters left.
func Apply(cfg *config.Config, p Point) *config.Config {
	c := *cfg
	c.Serial = nil
	c.Actions = copyActions(cfg.Actions)
	c.Traits = copyActions(cfg.Traits)
	for target, v := range p {
		name, param, _ := strings.Cut(target, ".")
		if a := findAction(&c, name); a != nil {
			a.Params[param] = v
		}
	}
	return &c
}

func copyActions(in []config.ActionConfig) []config.ActionConfig {
	out := make([]config.ActionConfig, len(in))
	for i, a := range in {
		out[i] = config.ActionConfig{Name: a.Name, Params: make(config.Params, len(a.Params)+1)}
		for k, v := range a.Params {
			out[i].Params[k] = v
		}
	}
	return out
}

// Search runs every point in turn. Output files get a _sN suffix. A
// failing run stops the search and returns the runs done so far.
func (g *GridSearch) Search(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) ([]Run, error) {
	points := g.Points()
	runs := make([]Run, 0, len(points))
	for i, p := range points {
		c := Apply(cfg, p)
		if len(points) > 1 {
			c.Name = fmt.Sprintf("%s_s%d", cfg.Name, i+1)
			if c.Output.File != "" {
				c.Output.File = fmt.Sprintf("s%d_%s", i+1, c.Output.File)
			}
		}
		log.WithFields(logrus.Fields{"run": i + 1, "of": len(points), "point": p.String()}).Info("serial run")

		exp := experiment.New(c, log)
		if err := exp.Setup(experiment.NewRegistry().DefaultMetrics()); err != nil {
			exp.Close()
			return runs, fmt.Errorf("serial run %d (%s): %w", i+1, p, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return runs, fmt.Errorf("serial run %d (%s): %w", i+1, p, err)
		}
		runs = append(runs, Run{Index: i, Point: p, Config: c, Result: result})
	}
	return runs, nil
}

// Best returns the run with the lowest metric, or the highest when
// maximize is set. Runs without the metric are skipped.
func Best(runs []Run, metric string, maximize bool) (Run, bool) {
	best := math.Inf(1)
	var found *Run
	for i := range runs {
		v, ok := runs[i].Result.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if maximize {
			v = -v
		}
		if v < best {
			best = v
			found = &runs[i]
		}
	}
	if found == nil {
		return Run{}, false
	}
	return *found, true
}
