package config

var Presets = map[string]map[string]*Config{
	"surface": {
		"drifter":    surface("drifter", 1),
		"backtrack":  backtrack(),
		"dispersive": dispersive(),
	},
	"eggs": {
		"buoyant": eggs("buoyant", 1.0245),
		"dense":   eggs("dense", 1.030),
	},
	"larvae": {
		"migration":   larvae("migration", false),
		"recruitment": larvae("recruitment", true),
	},
}

func surface(name string, dir float64) *Config {
	c := DefaultConfig()
	c.Name = "surface-" + name
	c.Dataset.Analytic.Nz = 0
	c.Dataset.Analytic.Period = 2 * 86400
	c.Dt = dir * 1800
	c.Release.DepthMin, c.Release.DepthMax = 0, 0
	return c
}

func backtrack() *Config {
	c := surface("backtrack", -1)
	c.Start = 10 * 86400
	return c
}

func dispersive() *Config {
	c := surface("dispersive", 1)
	c.Actions = append(c.Actions, ActionConfig{Name: "hdisp", Params: Params{"epsilon": 1e-9}})
	return c
}

func eggs(name string, density float64) *Config {
	c := DefaultConfig()
	c.Name = "eggs-" + name
	c.Dataset.Scalars = []string{"temp", "salt", "AKt"}
	c.Actions = []ActionConfig{
		{Name: "advection", Params: Params{"scheme": "rk4"}},
		{Name: "vdisp", Params: Params{"kv_field": "AKt"}},
		{Name: "buoyancy", Params: Params{"particle_density": density, "age_max": 4.0}},
	}
	c.Output.Trackers = []string{"temp"}
	return c
}

func larvae(name string, recruit bool) *Config {
	c := DefaultConfig()
	c.Name = "larvae-" + name
	c.Duration = 20 * 86400
	c.Actions = []ActionConfig{
		{Name: "advection", Params: Params{"scheme": "rk4"}},
		{Name: "hdisp", Params: Params{"epsilon": 1e-9}},
		{Name: "migration", Params: Params{"day_depth": 40.0, "night_depth": 5.0, "sunrise": "06:00", "sunset": "18:00"}},
		{Name: "lethal_temp", Params: Params{"cold": 8.0, "hot": 26.0}},
	}
	c.Traits = []ActionConfig{
		{Name: "growth", Params: Params{"coeff1": 0.02, "coeff2": 0.03, "threshold": 10.0}},
	}
	if recruit {
		c.Traits = append(c.Traits, ActionConfig{Name: "recruitment", Params: Params{
			"polygon":      [][2]float64{{-4.0, 44.0}, {-3.6, 44.0}, {-3.6, 44.9}, {-4.0, 44.9}},
			"length_min":   6.0,
			"duration_min": 0.5,
			"stop_moving":  true,
		}})
	}
	c.Output.Trackers = []string{"temp", "length", "stage"}
	return c
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	return names
}
