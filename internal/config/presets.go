package config

import "sort"

// Presets tune the default configuration for a kind of dataset.
var Presets = map[string]func(*Config){
	"ecoli": func(c *Config) {
		c.Name = "ecoli"
	},
	"tumor": func(c *Config) {
		c.Name = "tumor"
		c.Fit.Baseline = "gompertz"
	},
	"strict": func(c *Config) {
		c.Name = "strict"
		c.Fit.Tolerance = 0.02
		c.Fit.Starts = 5
		c.Model.RelTol = 1e-8
		c.Model.AbsTol = 1e-10
	},
	"fast": func(c *Config) {
		c.Name = "fast"
		c.Fit.Starts = 1
		c.Fit.MaxEvaluations = 1000
		c.Model.RelTol = 1e-5
		c.Model.AbsTol = 1e-7
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
