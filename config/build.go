// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/action"
	"github.com/katalvlaran/latticehmc/checkpoint"
	"github.com/katalvlaran/latticehmc/hmc"
	"github.com/katalvlaran/latticehmc/integrator"
	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/smear"
)

// Store is a checkpoint backend owned by a Run.
type Store interface {
	hmc.Checkpointer
	Close() error
}

// Run is a fully wired simulation.
type Run struct {
	Config     *Config
	RunID      uuid.UUID
	Field      *lattice.GaugeField
	RNG        *rng.Context
	Set        *action.Set
	Integrator *integrator.Integrator
	Engine     *hmc.Engine
	Metrics    *hmc.Metrics // nil without a registerer
	Store      Store        // nil for backend "none"
}

// Close releases the checkpoint store.
func (r *Run) Close() error {
	if r.Store == nil {
		return nil
	}

	return r.Store.Close()
}

type buildOptions struct {
	log    *zap.Logger
	reg    prometheus.Registerer
	onTraj func(hmc.Result)
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger sets the logger passed to every component; nil is ignored.
func WithLogger(l *zap.Logger) BuildOption {
	return func(o *buildOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRegisterer registers run metrics on reg.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(o *buildOptions) { o.reg = reg }
}

// WithOnTrajectory forwards fn to the engine.
func WithOnTrajectory(fn func(hmc.Result)) BuildOption {
	return func(o *buildOptions) { o.onTraj = fn }
}

// Build validates c and wires a Run. The caller must Close it.
func Build(c *Config, opts ...BuildOption) (*Run, error) {
	o := buildOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	id, err := c.runID()
	if err != nil {
		return nil, fmt.Errorf("Build: run id: %v: %w", err, ErrInvalidConfig)
	}
	log := o.log.With(zap.String("run_id", id.String()))

	// Stage 1: Lattice and RNG
	g, err := lattice.NewGeometry(c.Lattice.Dims...)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	serial, err := rng.ParseSeeds(c.RNG.SerialSeeds)
	if err != nil {
		return nil, fmt.Errorf("Build: serial seeds: %w", err)
	}
	parallel, err := rng.ParseSeeds(c.RNG.ParallelSeeds)
	if err != nil {
		return nil, fmt.Errorf("Build: parallel seeds: %w", err)
	}
	r, err := rng.New(serial, parallel)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	run := &Run{Config: c, RunID: id, Field: lattice.NewGaugeField(g), RNG: r}
	if o.reg != nil {
		run.Metrics = hmc.NewMetrics(o.reg)
	}

	// Stage 2: Actions and levels
	ab := actionBuilder{
		geom:  g,
		lat:   c.Lattice,
		cache: rational.NewCache(),
		common: []action.Option{
			action.WithSolverParams(c.Solver.params()),
			action.WithLogger(log),
		},
	}
	if run.Metrics != nil {
		ab.common = append(ab.common, action.WithSolveObserver(run.Metrics.ObserveSolve))
	}
	levels := make([]action.Level, len(c.Levels))
	for i, lv := range c.Levels {
		levels[i].Multiplier = lv.Multiplier
		for j, ac := range lv.Actions {
			a, err := ab.build(ac)
			if err != nil {
				return nil, fmt.Errorf("Build: level %d action %d: %w", i, j, err)
			}
			levels[i].Actions = append(levels[i].Actions, a)
		}
	}
	if run.Set, err = action.NewSet(levels...); err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	// Stage 3: Integrator
	scheme, err := integrator.ParseScheme(c.Integrator.Scheme)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	iopts := []integrator.Option{integrator.WithLogger(log)}
	if c.Integrator.Concurrency > 0 {
		iopts = append(iopts, integrator.WithConcurrency(c.Integrator.Concurrency))
	}
	run.Integrator, err = integrator.New(run.Set,
		integrator.Params{Scheme: scheme, Steps: c.Integrator.Steps, Length: c.Integrator.Length}, iopts...)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	// Stage 4: Store and engine
	p, err := c.HMC.params()
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	eopts := []hmc.Option{hmc.WithLogger(log), hmc.WithRunID(id), hmc.WithMetrics(run.Metrics)}
	if o.onTraj != nil {
		eopts = append(eopts, hmc.WithOnTrajectory(o.onTraj))
	}
	if c.Checkpoint.Backend != BackendNone {
		if run.Store, err = openStore(c.Checkpoint, id, log); err != nil {
			return nil, fmt.Errorf("Build: %w", err)
		}
		eopts = append(eopts, hmc.WithCheckpointer(run.Store))
	}
	if run.Engine, err = hmc.New(run.Field, run.Integrator, r, p, eopts...); err != nil {
		return nil, errors.Join(fmt.Errorf("Build: %w", err), run.Close())
	}

	return run, nil
}

func openStore(c CheckpointConfig, id uuid.UUID, log *zap.Logger) (Store, error) {
	opts := []checkpoint.Option{checkpoint.WithRunID(id), checkpoint.WithLogger(log)}
	if c.Backend == BackendBadger {
		s, err := checkpoint.OpenBadger(c.Dir, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := checkpoint.NewFileStore(c.Dir, append(opts, checkpoint.WithPrefixes(c.ConfigPrefix, c.RNGPrefix))...)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (h HMCConfig) params() (hmc.Params, error) {
	start, err := hmc.ParseStart(h.Start)
	if err != nil {
		return hmc.Params{}, err
	}

	return hmc.Params{
		Trajectories:      h.Trajectories,
		StartTrajectory:   h.StartTrajectory,
		Start:             start,
		TepidWidth:        h.TepidWidth,
		NoMetropolisUntil: h.NoMetropolisUntil,
		MetropolisTest:    h.MetropolisTest,
		SaveInterval:      h.SaveInterval,
	}, nil
}

// actionBuilder turns ActionConfig entries into actions sharing one
// approximation cache.
type actionBuilder struct {
	geom   *lattice.Geometry
	lat    LatticeConfig
	cache  *rational.Cache
	common []action.Option
}

func (b actionBuilder) operator(mass float64, evenOdd bool) (lattice.ChiralOperator, error) {
	var wopts []lattice.WilsonOption
	if b.lat.AntiperiodicTime {
		wopts = append(wopts, lattice.WithAntiperiodicTime())
	}
	if evenOdd {
		return lattice.NewSchur(b.geom, mass, wopts...)
	}

	return lattice.NewWilson(b.geom, mass, wopts...)
}

func (b actionBuilder) build(ac ActionConfig) (action.Action, error) {
	opts := append(append([]action.Option(nil), b.common...), action.WithCache(b.cache))
	var (
		a   action.Action
		err error
	)
	switch ac.Type {
	case TypeWilsonGauge:
		a, err = action.NewWilsonGauge(ac.Beta)
	case TypeTwoFlavour:
		var op lattice.ChiralOperator
		if op, err = b.operator(ac.Mass, ac.EvenOdd); err == nil {
			a, err = action.NewTwoFlavour(op, opts...)
		}
	case TypeTwoFlavourRatio, TypeOneFlavourRatioRational:
		var num, den lattice.ChiralOperator
		if num, err = b.operator(ac.NumeratorMass, ac.EvenOdd); err != nil {
			return nil, err
		}
		if den, err = b.operator(ac.Mass, ac.EvenOdd); err != nil {
			return nil, err
		}
		if ac.Type == TypeTwoFlavourRatio {
			a, err = action.NewTwoFlavourRatio(num, den, opts...)
		} else {
			a, err = action.NewOneFlavourRatioRational(num, den, ac.Rational.params(), opts...)
		}
	case TypeOneFlavourRational:
		var op lattice.ChiralOperator
		if op, err = b.operator(ac.Mass, ac.EvenOdd); err == nil {
			a, err = action.NewOneFlavourRational(op, ac.Rational.params(), opts...)
		}
	case TypeExactOneFlavourRatio:
		var op lattice.ChiralOperator
		if op, err = b.operator(ac.Mass, ac.EvenOdd); err == nil {
			a, err = action.NewExactOneFlavourRatio(op, ac.EOFA.params(), opts...)
		}
	default:
		return nil, fmt.Errorf("%q: %w", ac.Type, ErrUnknownActionType)
	}
	if err != nil {
		return nil, err
	}
	if ac.Smear == nil {
		return a, nil
	}
	st, err := smear.NewStout(ac.Smear.Rho, ac.Smear.Steps)
	if err != nil {
		return nil, err
	}

	return action.NewSmeared(a, st)
}
