package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/driftsim/internal/drift"
)

const (
	DefaultDt                = 3600.0
	DefaultDuration          = 5 * 86400.0
	DefaultTransportDuration = 30 * 86400.0
	DefaultParticles         = 100
	DefaultRecordFrequency   = 1
	DefaultCFLThreshold      = 1.0
	DefaultCoastline         = "beaching"
	DefaultScheme            = "rk4"
)

// Config describes one simulation. Times are seconds in the dataset's own
// time axis; a negative Dt runs backward.
type Config struct {
	Name              string         `yaml:"name"`
	Dataset           DatasetConfig  `yaml:"dataset"`
	Start             float64        `yaml:"start"`
	Dt                float64        `yaml:"dt"`
	Duration          float64        `yaml:"duration"`
	TransportDuration float64        `yaml:"transport_duration"`
	Seed              int64          `yaml:"seed"`
	Coastline         string         `yaml:"coastline"`
	Release           ReleaseConfig  `yaml:"release"`
	Actions           []ActionConfig `yaml:"actions"`
	Traits            []ActionConfig `yaml:"traits"`
	Output            OutputConfig   `yaml:"output"`
	Serial            []SerialParam  `yaml:"serial,omitempty"`
}

type DatasetConfig struct {
	Type     string         `yaml:"type"` // analytic, roms or mars
	Files    []string       `yaml:"files"`
	Scalars  []string       `yaml:"scalars"`
	Analytic AnalyticConfig `yaml:"analytic"`
}

type AnalyticConfig struct {
	Nx       int      `yaml:"nx"`
	Ny       int      `yaml:"ny"`
	Nz       int      `yaml:"nz"`
	Lon0     float64  `yaml:"lon0"`
	Lat0     float64  `yaml:"lat0"`
	DLon     float64  `yaml:"dlon"`
	DLat     float64  `yaml:"dlat"`
	Depth    float64  `yaml:"depth"`
	U        float64  `yaml:"u"`
	V        float64  `yaml:"v"`
	Period   float64  `yaml:"period"`
	Kv       float64  `yaml:"kv"`
	Land     [][2]int `yaml:"land"` // dry (i, j) cells
	Interval float64  `yaml:"interval"`
	Records  int      `yaml:"records"`
}

type ReleaseConfig struct {
	Type     string       `yaml:"type"` // zone, text or netcdf
	Number   int          `yaml:"number"`
	Polygon  [][2]float64 `yaml:"polygon"` // lon, lat vertices
	DepthMin float64      `yaml:"depth_min"`
	DepthMax float64      `yaml:"depth_max"`
	File     string       `yaml:"file"`
	Times    []float64    `yaml:"times"` // empty releases once at Start
}

// SerialParam lists the values an action or trait parameter takes across
// a sweep. Target is "name.param", e.g. "buoyancy.particle_density".
type SerialParam struct {
	Target string    `yaml:"target"`
	Values []float64 `yaml:"values"`
}

// ActionConfig names a registered action or trait with its parameters.
type ActionConfig struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params,omitempty"`
}

type OutputConfig struct {
	Dir             string   `yaml:"dir"`
	File            string   `yaml:"file"`
	RecordFrequency int      `yaml:"record_frequency"`
	Trackers        []string `yaml:"trackers"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Dataset: DatasetConfig{
			Type:    "analytic",
			Scalars: []string{"temp", "salt"},
			Analytic: AnalyticConfig{
				Nx: 30, Ny: 20, Nz: 10,
				Lon0: -5, Lat0: 44,
				DLon: 0.05, DLat: 0.05,
				Depth:    100,
				U:        0.1,
				Kv:       1e-3,
				Interval: 3600,
				Records:  24 * 30,
			},
		},
		Dt:                DefaultDt,
		Duration:          DefaultDuration,
		TransportDuration: DefaultTransportDuration,
		Seed:              1,
		Coastline:         DefaultCoastline,
		Release: ReleaseConfig{
			Type:     "zone",
			Number:   DefaultParticles,
			Polygon:  [][2]float64{{-4.6, 44.3}, {-4.4, 44.3}, {-4.4, 44.5}, {-4.6, 44.5}},
			DepthMin: -30,
			DepthMax: 0,
		},
		Actions: []ActionConfig{
			{Name: "advection", Params: Params{"scheme": DefaultScheme}},
		},
		Output: OutputConfig{
			RecordFrequency: DefaultRecordFrequency,
		},
	}
}

// Validate reports the first inconsistency in c.
func (c *Config) Validate() error {
	if c.Dt == 0 {
		return fmt.Errorf("config: dt must be non-zero: %w", drift.ErrInvalidConfig)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %g: %w", c.Duration, drift.ErrInvalidConfig)
	}
	if c.TransportDuration <= 0 {
		return fmt.Errorf("config: transport_duration must be positive, got %g: %w", c.TransportDuration, drift.ErrInvalidConfig)
	}
	if c.Release.Type != "netcdf" && c.Release.Type != "text" && c.Release.Number <= 0 {
		return fmt.Errorf("config: release.number must be positive: %w", drift.ErrInvalidConfig)
	}
	if c.Output.RecordFrequency < 0 {
		return fmt.Errorf("config: output.record_frequency must not be negative: %w", drift.ErrInvalidConfig)
	}
	return nil
}

// Steps is the number of time steps Duration spans.
func (c *Config) Steps() int {
	dt := c.Dt
	if dt < 0 {
		dt = -dt
	}
	return int(c.Duration / dt)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
