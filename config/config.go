// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/latticehmc/action"
	"github.com/katalvlaran/latticehmc/checkpoint"
	"github.com/katalvlaran/latticehmc/hmc"
	"github.com/katalvlaran/latticehmc/integrator"
	"github.com/katalvlaran/latticehmc/rng"
)

// Action type names accepted in ActionConfig.Type.
const (
	TypeWilsonGauge             = "wilson-gauge"
	TypeTwoFlavour              = "two-flavour"
	TypeTwoFlavourRatio         = "two-flavour-ratio"
	TypeOneFlavourRational      = "one-flavour-rational"
	TypeOneFlavourRatioRational = "one-flavour-ratio-rational"
	TypeExactOneFlavourRatio    = "exact-one-flavour-ratio"
)

// Checkpoint backends.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Run defaults.
const (
	DefaultSerialSeeds   = "1 2 3 4 5"
	DefaultParallelSeeds = "6 7 8 9 10"
	DefaultCheckpointDir = "ckpoint"
)

// Config is the root of a run file.
type Config struct {
	RunID      string           `yaml:"run_id" validate:"omitempty,uuid"`
	Lattice    LatticeConfig    `yaml:"lattice"`
	RNG        RNGConfig        `yaml:"rng"`
	HMC        HMCConfig        `yaml:"hmc"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Solver     SolverConfig     `yaml:"solver"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Levels     []LevelConfig    `yaml:"levels" validate:"required,min=1,dive"`
}

// LatticeConfig describes the geometry and fermion boundary conditions.
type LatticeConfig struct {
	Dims             []int `yaml:"dims" validate:"required,min=1,max=4,dive,min=2"`
	AntiperiodicTime bool  `yaml:"antiperiodic_time"`
}

// RNGConfig holds whitespace-separated seed lists.
type RNGConfig struct {
	SerialSeeds   string `yaml:"serial_seeds" validate:"required,seeds"`
	ParallelSeeds string `yaml:"parallel_seeds" validate:"required,seeds"`
}

// HMCConfig mirrors hmc.Params.
type HMCConfig struct {
	Trajectories      int     `yaml:"trajectories" validate:"gte=0"`
	StartTrajectory   int     `yaml:"start_trajectory" validate:"gte=0"`
	Start             string  `yaml:"start" validate:"required,start"`
	TepidWidth        float64 `yaml:"tepid_width" validate:"gte=0"`
	NoMetropolisUntil int     `yaml:"no_metropolis_until" validate:"gte=0"`
	MetropolisTest    bool    `yaml:"metropolis_test"`
	SaveInterval      int     `yaml:"save_interval" validate:"gte=0"`
}

// IntegratorConfig mirrors integrator.Params.
type IntegratorConfig struct {
	Scheme      string  `yaml:"scheme" validate:"required,scheme"`
	Steps       int     `yaml:"steps" validate:"gte=1"`
	Length      float64 `yaml:"length" validate:"gt=0"`
	Concurrency int     `yaml:"concurrency" validate:"gte=0"` // 0 means GOMAXPROCS
}

// SolverConfig mirrors action.SolverParams; it applies to every fermion action.
type SolverConfig struct {
	ActionTolerance   float64 `yaml:"action_tolerance" validate:"gt=0,lt=1"`
	ForceTolerance    float64 `yaml:"force_tolerance" validate:"gt=0,lt=1"`
	HeatbathTolerance float64 `yaml:"heatbath_tolerance" validate:"gt=0,lt=1"`
	MaxIterations     int     `yaml:"max_iterations" validate:"gte=1"`
	RelaxFactor       float64 `yaml:"relax_factor" validate:"gte=1"`
	MixedPrecision    bool    `yaml:"mixed_precision"`
	InnerTolerance    float64 `yaml:"inner_tolerance" validate:"gt=0,lt=1"`
	MaxRestarts       int     `yaml:"max_restarts" validate:"gte=1"`
}

// CheckpointConfig selects the snapshot store.
type CheckpointConfig struct {
	Backend      string `yaml:"backend" validate:"required,oneof=none file badger"`
	Dir          string `yaml:"dir" validate:"required_unless=Backend none"`
	ConfigPrefix string `yaml:"config_prefix" validate:"required,nefield=RNGPrefix"`
	RNGPrefix    string `yaml:"rng_prefix" validate:"required"`
}

// LevelConfig is one timescale.
type LevelConfig struct {
	Multiplier int            `yaml:"multiplier" validate:"gte=1"`
	Actions    []ActionConfig `yaml:"actions" validate:"required,min=1,dive"`
}

// ActionConfig describes one action. Which optional blocks are required
// depends on Type.
type ActionConfig struct {
	Type          string          `yaml:"type" validate:"required,oneof=wilson-gauge two-flavour two-flavour-ratio one-flavour-rational one-flavour-ratio-rational exact-one-flavour-ratio"`
	Beta          float64         `yaml:"beta" validate:"gte=0"`
	Mass          float64         `yaml:"mass"`           // fermion mass (denominator for ratios)
	NumeratorMass float64         `yaml:"numerator_mass"` // ratio numerator (heavier) mass
	EvenOdd       bool            `yaml:"even_odd"`
	Smear         *SmearConfig    `yaml:"smear,omitempty"`
	Rational      *RationalConfig `yaml:"rational,omitempty"`
	EOFA          *EOFAConfig     `yaml:"eofa,omitempty"`
}

// SmearConfig wraps the action in stout smearing.
type SmearConfig struct {
	Rho   float64 `yaml:"rho" validate:"gte=0"`
	Steps int     `yaml:"steps" validate:"gte=0"`
}

// RationalConfig mirrors action.RationalParams.
type RationalConfig struct {
	Lo              float64 `yaml:"lo" validate:"gt=0"`
	Hi              float64 `yaml:"hi" validate:"gtfield=Lo"`
	Degree          int     `yaml:"degree" validate:"gte=1"`
	MDDegree        int     `yaml:"md_degree" validate:"gte=0"`
	Tolerance       float64 `yaml:"tolerance" validate:"gte=0"`
	MDTolerance     float64 `yaml:"md_tolerance" validate:"gte=0"`
	BoundsCheckFreq int     `yaml:"bounds_check_freq" validate:"gte=0"`
	LanczosSteps    int     `yaml:"lanczos_steps" validate:"gte=0"`
}

// EOFAConfig mirrors action.EOFAParams.
type EOFAConfig struct {
	Shift             float64 `yaml:"shift" validate:"gt=0"`
	HeatbathLo        float64 `yaml:"heatbath_lo" validate:"gt=0,lt=1"`
	HeatbathDegree    int     `yaml:"heatbath_degree" validate:"gte=1"`
	HeatbathTolerance float64 `yaml:"heatbath_tolerance" validate:"gte=0"`
	BoundsCheckFreq   int     `yaml:"bounds_check_freq" validate:"gte=0"`
	LanczosSteps      int     `yaml:"lanczos_steps" validate:"gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("seeds", func(fl validator.FieldLevel) bool {
		_, err := rng.ParseSeeds(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("scheme", func(fl validator.FieldLevel) bool {
		_, err := integrator.ParseScheme(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("start", func(fl validator.FieldLevel) bool {
		_, err := hmc.ParseStart(fl.Field().String())
		return err == nil
	})
}

// Default returns the stock run configuration without
// any action levels.
func Default() *Config {
	sp := action.DefaultSolverParams()

	return &Config{
		RNG: RNGConfig{SerialSeeds: DefaultSerialSeeds, ParallelSeeds: DefaultParallelSeeds},
		HMC: HMCConfig{
			Trajectories:   hmc.DefaultTrajectories,
			Start:          hmc.StartCold.String(),
			TepidWidth:     hmc.DefaultTepidWidth,
			MetropolisTest: true,
			SaveInterval:   hmc.DefaultSaveInterval,
		},
		Integrator: IntegratorConfig{
			Scheme: integrator.LeapFrog.String(),
			Steps:  integrator.DefaultSteps,
			Length: integrator.DefaultLength,
		},
		Solver: SolverConfig{
			ActionTolerance:   sp.ActionTolerance,
			ForceTolerance:    sp.ForceTolerance,
			HeatbathTolerance: sp.HeatbathTolerance,
			MaxIterations:     sp.MaxIterations,
			RelaxFactor:       sp.RelaxFactor,
			InnerTolerance:    sp.InnerTolerance,
			MaxRestarts:       sp.MaxRestarts,
		},
		Checkpoint: CheckpointConfig{
			Backend:      BackendFile,
			Dir:          DefaultCheckpointDir,
			ConfigPrefix: checkpoint.DefaultConfigPrefix,
			RNGPrefix:    checkpoint.DefaultRNGPrefix,
		},
	}
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected; empty input keeps the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("Parse: %v: %w", err, ErrInvalidConfig)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Load(%s): %w", path, err)
	}

	return c, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate runs the tag rules and the per-type requirements of every action.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("Validate: %v: %w", err, ErrInvalidConfig)
	}
	if c.HMC.Start == hmc.StartCheckpoint.String() && c.Checkpoint.Backend == BackendNone {
		return fmt.Errorf("Validate: checkpoint start without a store: %w", ErrInvalidConfig)
	}
	for i, lv := range c.Levels {
		if i > 0 && lv.Multiplier < c.Levels[i-1].Multiplier {
			return fmt.Errorf("Validate: level %d multiplier %d < %d: %w", i, lv.Multiplier, c.Levels[i-1].Multiplier, ErrInvalidConfig)
		}
		for j, a := range lv.Actions {
			if err := a.check(); err != nil {
				return fmt.Errorf("Validate: level %d action %d: %w", i, j, err)
			}
		}
	}

	return nil
}

// check enforces the blocks each action type needs.
func (a ActionConfig) check() error {
	switch a.Type {
	case TypeWilsonGauge:
		if !(a.Beta > 0) {
			return fmt.Errorf("%s: beta %g: %w", a.Type, a.Beta, ErrInvalidConfig)
		}
	case TypeTwoFlavour:
	case TypeTwoFlavourRatio:
		if a.NumeratorMass == a.Mass {
			return fmt.Errorf("%s: numerator mass equals mass: %w", a.Type, ErrInvalidConfig)
		}
	case TypeOneFlavourRational, TypeOneFlavourRatioRational:
		if a.Rational == nil {
			return fmt.Errorf("%s: missing rational block: %w", a.Type, ErrInvalidConfig)
		}
		if a.Type == TypeOneFlavourRatioRational && a.NumeratorMass == a.Mass {
			return fmt.Errorf("%s: numerator mass equals mass: %w", a.Type, ErrInvalidConfig)
		}
	case TypeExactOneFlavourRatio:
		if a.EOFA == nil {
			return fmt.Errorf("%s: missing eofa block: %w", a.Type, ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%q: %w", a.Type, ErrUnknownActionType)
	}

	return nil
}

// runID parses the configured run identifier or generates one.
func (c *Config) runID() (uuid.UUID, error) {
	if c.RunID == "" {
		return uuid.New(), nil
	}

	return uuid.Parse(c.RunID)
}

func (s SolverConfig) params() action.SolverParams {
	return action.SolverParams{
		ActionTolerance:   s.ActionTolerance,
		ForceTolerance:    s.ForceTolerance,
		HeatbathTolerance: s.HeatbathTolerance,
		MaxIterations:     s.MaxIterations,
		RelaxFactor:       s.RelaxFactor,
		MixedPrecision:    s.MixedPrecision,
		InnerTolerance:    s.InnerTolerance,
		MaxRestarts:       s.MaxRestarts,
	}
}

func (r RationalConfig) params() action.RationalParams {
	return action.RationalParams{
		Lo:              r.Lo,
		Hi:              r.Hi,
		Degree:          r.Degree,
		MDDegree:        r.MDDegree,
		Tolerance:       r.Tolerance,
		MDTolerance:     r.MDTolerance,
		BoundsCheckFreq: r.BoundsCheckFreq,
		LanczosSteps:    r.LanczosSteps,
	}
}

func (e EOFAConfig) params() action.EOFAParams {
	return action.EOFAParams{
		Shift:             e.Shift,
		HeatbathLo:        e.HeatbathLo,
		HeatbathDegree:    e.HeatbathDegree,
		HeatbathTolerance: e.HeatbathTolerance,
		BoundsCheckFreq:   e.BoundsCheckFreq,
		LanczosSteps:      e.LanczosSteps,
	}
}
