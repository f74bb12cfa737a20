package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/growthfit/internal/baseline"
	"github.com/san-kum/growthfit/internal/dynamo"
	"github.com/san-kum/growthfit/internal/fit"
	"github.com/san-kum/growthfit/internal/growth"
	"github.com/san-kum/growthfit/internal/logging"
	"github.com/san-kum/growthfit/internal/series"
)

const (
	DefaultDataDir = "./runs"
	DefaultName    = "growthfit"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Name    string         `yaml:"name" validate:"required"`
	DataDir string         `yaml:"data_dir" env:"GROWTHFIT_DATA_DIR" validate:"required"`
	Model   ModelConfig    `yaml:"model" env:""`
	Fit     FitConfig      `yaml:"fit" env:""`
	Batch   BatchConfig    `yaml:"batch" env:""`
	Log     logging.Config `yaml:"log" env:""`
}

type ModelConfig struct {
	Bifurcation float64 `yaml:"bifurcation" validate:"gt=0,lt=1"`
	Attractor   float64 `yaml:"attractor" validate:"gtfield=Bifurcation,lte=1"`
	Steepness   float64 `yaml:"steepness" validate:"gt=0"`
	Engage      float64 `yaml:"engage" validate:"gt=0"`
	RelTol      float64 `yaml:"rel_tol" validate:"gt=0"`
	AbsTol      float64 `yaml:"abs_tol" validate:"gt=0"`
	MaxSteps    int     `yaml:"max_steps" validate:"gt=0"`
}

type FitConfig struct {
	Tolerance        float64 `yaml:"tolerance" validate:"gte=0,lt=1"`
	RMin             float64 `yaml:"r_min" validate:"gt=0"`
	RMax             float64 `yaml:"r_max" validate:"gtfield=RMin"`
	DMin             float64 `yaml:"d_min" validate:"gte=0"`
	DMax             float64 `yaml:"d_max" validate:"gtfield=DMin"`
	KMinFactor       float64 `yaml:"k_min_factor" validate:"gte=1"`
	KMaxFactor       float64 `yaml:"k_max_factor" validate:"gtfield=KMinFactor"`
	InitialR         float64 `yaml:"initial_r"`
	InitialD         float64 `yaml:"initial_d"`
	InitialKFactor   float64 `yaml:"initial_k_factor"`
	MaxEvaluations   int     `yaml:"max_evaluations" validate:"gte=1"`
	Starts           int     `yaml:"starts" validate:"gte=1,lte=27"`
	Baseline         string  `yaml:"baseline" validate:"oneof=logistic gompertz"`
	SuppressWarnings bool    `yaml:"suppress_warnings"`
}

type BatchConfig struct {
	Workers   int `yaml:"workers" env:"GROWTHFIT_WORKERS" validate:"gte=0"`
	MinPoints int `yaml:"min_points" validate:"gte=4"`
}

func DefaultConfig() *Config {
	c := growth.DefaultConstants()
	solver := dynamo.DefaultConfig()
	f := fit.DefaultConfig()

	return &Config{
		Name:    DefaultName,
		DataDir: DefaultDataDir,
		Model: ModelConfig{
			Bifurcation: c.Bifurcation,
			Attractor:   c.Attractor,
			Steepness:   c.Steepness,
			Engage:      c.Engage,
			RelTol:      solver.Tolerance.Rel,
			AbsTol:      solver.Tolerance.Abs,
			MaxSteps:    solver.MaxSteps,
		},
		Fit: FitConfig{
			Tolerance:      f.Tolerance,
			RMin:           f.RBounds[0],
			RMax:           f.RBounds[1],
			DMin:           f.DBounds[0],
			DMax:           f.DBounds[1],
			KMinFactor:     f.KFactors[0],
			KMaxFactor:     f.KFactors[1],
			InitialR:       f.InitialR,
			InitialD:       f.InitialD,
			InitialKFactor: f.InitialKFactor,
			MaxEvaluations: f.MaxEvaluations,
			Starts:         f.Starts,
			Baseline:       string(f.Baseline),
		},
		Batch: BatchConfig{
			MinPoints: series.MinBatchPoints,
		},
		Log: logging.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Validate checks struct tags and the relations between fit bounds and
// initial guesses.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	f := c.Fit
	if f.InitialR < f.RMin || f.InitialR > f.RMax {
		return fmt.Errorf("%w: initial_r %g outside [%g, %g]", ErrInvalid, f.InitialR, f.RMin, f.RMax)
	}
	if f.InitialD < f.DMin || f.InitialD > f.DMax {
		return fmt.Errorf("%w: initial_d %g outside [%g, %g]", ErrInvalid, f.InitialD, f.DMin, f.DMax)
	}
	if f.InitialKFactor < f.KMinFactor || f.InitialKFactor > f.KMaxFactor {
		return fmt.Errorf("%w: initial_k_factor %g outside [%g, %g]", ErrInvalid, f.InitialKFactor, f.KMinFactor, f.KMaxFactor)
	}
	return nil
}

func (c *Config) Constants() growth.Constants {
	return growth.Constants{
		Bifurcation: c.Model.Bifurcation,
		Attractor:   c.Model.Attractor,
		Steepness:   c.Model.Steepness,
		Engage:      c.Model.Engage,
	}
}

func (c *Config) SolverConfig() dynamo.Config {
	s := dynamo.DefaultConfig()
	s.Tolerance = dynamo.Tolerance{Rel: c.Model.RelTol, Abs: c.Model.AbsTol}
	s.MaxSteps = c.Model.MaxSteps
	return s
}

func (c *Config) NewModel() *growth.Model {
	return growth.NewModel(c.Constants(), growth.WithSolverConfig(c.SolverConfig()))
}

func (c *Config) FitterConfig() (fit.Config, error) {
	kind, err := baseline.ParseKind(c.Fit.Baseline)
	if err != nil {
		return fit.Config{}, err
	}

	out := fit.DefaultConfig()
	out.Tolerance = c.Fit.Tolerance
	out.RBounds = [2]float64{c.Fit.RMin, c.Fit.RMax}
	out.DBounds = [2]float64{c.Fit.DMin, c.Fit.DMax}
	out.KFactors = [2]float64{c.Fit.KMinFactor, c.Fit.KMaxFactor}
	out.InitialR = c.Fit.InitialR
	out.InitialD = c.Fit.InitialD
	out.InitialKFactor = c.Fit.InitialKFactor
	out.MaxEvaluations = c.Fit.MaxEvaluations
	out.Starts = c.Fit.Starts
	out.Baseline = kind
	out.SuppressWarnings = c.Fit.SuppressWarnings
	return out, nil
}
