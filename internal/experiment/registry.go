package experiment

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/driftsim/internal/action"
	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/dataset"
	"github.com/san-kum/driftsim/internal/metrics"
	"github.com/san-kum/driftsim/internal/particle"
	"github.com/san-kum/driftsim/internal/sim"
)

type (
	ActionFactory  func(env *action.Env, params config.Params) (action.Action, error)
	TraitFactory   func(env *action.Env, params config.Params) (sim.TraitFactory, error)
	DatasetFactory func(cfg config.DatasetConfig, log logrus.FieldLogger) (dataset.Reader, error)
)

type Registry struct {
	actions  map[string]ActionFactory
	traits   map[string]TraitFactory
	datasets map[string]DatasetFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		actions:  make(map[string]ActionFactory),
		traits:   make(map[string]TraitFactory),
		datasets: make(map[string]DatasetFactory),
	}

	r.actions["advection"] = action.NewAdvection
	r.actions["hdisp"] = action.NewHDisp
	r.actions["vdisp"] = action.NewVDisp
	r.actions["buoyancy"] = action.NewBuoyancy
	r.actions["migration"] = action.NewMigration
	r.actions["lethal_temp"] = action.NewLethalTemp

	r.traits["growth"] = func(env *action.Env, params config.Params) (sim.TraitFactory, error) {
		m, err := action.NewGrowth(env, params)
		if err != nil {
			return nil, err
		}
		return m.NewTrait, nil
	}
	r.traits["recruitment"] = func(env *action.Env, params config.Params) (sim.TraitFactory, error) {
		m, err := action.NewRecruitment(env, params)
		if err != nil {
			return nil, err
		}
		return m.NewTrait, nil
	}

	r.datasets["analytic"] = func(cfg config.DatasetConfig, _ logrus.FieldLogger) (dataset.Reader, error) {
		return dataset.NewAnalytic(AnalyticSpec(cfg.Analytic))
	}
	r.datasets["roms"] = func(cfg config.DatasetConfig, log logrus.FieldLogger) (dataset.Reader, error) {
		return dataset.OpenNetCDF(cfg.Files, dataset.ROMSNames(), log)
	}
	r.datasets["mars"] = func(cfg config.DatasetConfig, log logrus.FieldLogger) (dataset.Reader, error) {
		return dataset.OpenNetCDF(cfg.Files, dataset.MARSNames(), log)
	}

	return r
}

func (r *Registry) GetAction(name string, env *action.Env, params config.Params) (action.Action, error) {
	fn, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", name)
	}
	return fn(env, params)
}

func (r *Registry) GetTrait(name string, env *action.Env, params config.Params) (sim.TraitFactory, error) {
	fn, ok := r.traits[name]
	if !ok {
		return nil, fmt.Errorf("unknown trait: %s", name)
	}
	return fn(env, params)
}

func (r *Registry) OpenDataset(cfg config.DatasetConfig, log logrus.FieldLogger) (dataset.Reader, error) {
	fn, ok := r.datasets[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown dataset type: %s", cfg.Type)
	}
	return fn(cfg, log)
}

func (r *Registry) ListActions() []string  { return sortedKeys(r.actions) }
func (r *Registry) ListTraits() []string   { return sortedKeys(r.traits) }
func (r *Registry) ListDatasets() []string { return sortedKeys(r.datasets) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	ms := []sim.Metric{
		metrics.NewSurvival(),
		metrics.NewMeanAge(),
		metrics.NewMeanDepth(),
		metrics.NewSpread(),
	}
	for _, c := range particle.Causes[1:] {
		ms = append(ms, metrics.NewDeaths(c))
	}
	return ms
}

// AnalyticSpec turns the analytic section of a config into a dataset spec.
// Zero fields keep the defaults of dataset.DefaultAnalyticSpec.
func AnalyticSpec(c config.AnalyticConfig) dataset.AnalyticSpec {
	s := dataset.DefaultAnalyticSpec()
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setFloat := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setInt(&s.Grid.Nx, c.Nx)
	setInt(&s.Grid.Ny, c.Ny)
	setInt(&s.Records, c.Records)
	setFloat(&s.Grid.Lon0, c.Lon0)
	setFloat(&s.Grid.Lat0, c.Lat0)
	setFloat(&s.Grid.DLon, c.DLon)
	setFloat(&s.Grid.DLat, c.DLat)
	setFloat(&s.Depth, c.Depth)
	setFloat(&s.Period, c.Period)
	setFloat(&s.Kv, c.Kv)
	setFloat(&s.Interval, c.Interval)
	s.Nz = c.Nz
	s.U, s.V = c.U, c.V

	if len(c.Land) > 0 {
		land := make(map[[2]int]bool, len(c.Land))
		for _, ij := range c.Land {
			land[ij] = true
		}
		depth := s.Depth
		s.Grid.Depth = func(i, j int) float64 {
			if land[[2]int{i, j}] {
				return 0
			}
			return depth
		}
	}
	return s
}
