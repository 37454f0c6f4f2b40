// SPDX-License-Identifier: MIT

package hmc

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/integrator"
	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// Checkpointer persists (trajectory, gauge field, RNG state) snapshots.
// checkpoint.BadgerStore and checkpoint.FileStore implement it.
type Checkpointer interface {
	Save(ctx context.Context, traj int, u *lattice.GaugeField, rngState []byte) error
	// Load overwrites u and returns the RNG state; a missing snapshot is an
	// error wrapping checkpoint.ErrNotFound.
	Load(ctx context.Context, traj int, u *lattice.GaugeField) ([]byte, error)
}

// Result describes one completed trajectory.
type Result struct {
	Trajectory        int
	Accepted          bool
	Tested            bool    // false when accepted without a Metropolis test
	DeltaH            float64 // H_final − H_initial
	Probability       float64 // min(1, e^{−ΔH})
	Plaquette         float64 // average plaquette after accept/reject
	TopologicalCharge float64 // 2D only
	ForceEvaluations  []int
	Duration          time.Duration
}

// Summary aggregates a run.
type Summary struct {
	RunID        uuid.UUID
	Trajectories int
	Accepted     int
	Last         int // index of the next trajectory (the restart point)
}

// AcceptanceRate returns Accepted/Trajectories, or 0 for an empty run.
func (s Summary) AcceptanceRate() float64 {
	if s.Trajectories == 0 {
		return 0
	}

	return float64(s.Accepted) / float64(s.Trajectories)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records every trajectory into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCheckpointer sets the snapshot store.
func WithCheckpointer(c Checkpointer) Option {
	return func(e *Engine) { e.store = c }
}

// WithOnTrajectory registers a callback invoked after every trajectory.
func WithOnTrajectory(fn func(Result)) Option {
	return func(e *Engine) { e.onTraj = fn }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(e *Engine) { e.runID = id }
}

// Engine owns the gauge field, the integrator and the RNG for a run.
type Engine struct {
	params  Params
	integ   *integrator.Integrator
	u       *lattice.GaugeField
	rnd     *rng.Context
	store   Checkpointer
	log     *zap.Logger
	metrics *Metrics
	onTraj  func(Result)
	runID   uuid.UUID

	snapshot *lattice.GaugeField
}

// New validates p and returns an engine evolving u.
func New(u *lattice.GaugeField, it *integrator.Integrator, r *rng.Context, p Params, opts ...Option) (*Engine, error) {
	if u == nil || it == nil || r == nil {
		return nil, fmt.Errorf("hmc.New: nil field, integrator or RNG: %w", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("hmc.New: %w", err)
	}
	e := &Engine{
		params:   p,
		integ:    it,
		u:        u,
		rnd:      r,
		log:      zap.NewNop(),
		snapshot: u.Clone(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == uuid.Nil {
		e.runID = uuid.New()
	}
	if e.store == nil && (p.Start == StartCheckpoint || p.SaveInterval > 0) {
		if p.Start == StartCheckpoint {
			return nil, fmt.Errorf("hmc.New: start from checkpoint: %w", ErrNoCheckpointer)
		}
		e.params.SaveInterval = 0
	}
	e.log = e.log.With(zap.String("run_id", e.runID.String()))

	return e, nil
}

// RunID returns the run identifier.
func (e *Engine) RunID() uuid.UUID { return e.runID }

// Field returns the gauge field.
func (e *Engine) Field() *lattice.GaugeField { return e.u }

// RNG returns the random context.
func (e *Engine) RNG() *rng.Context { return e.rnd }

// Run generates the configured trajectories. It returns ctx.Err() when the
// context is cancelled between trajectories, and the Summary of what completed.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: e.runID, Last: e.params.StartTrajectory}

	// Stage 1: Initial field
	if err := e.start(ctx); err != nil {
		return sum, err
	}
	e.log.Info("run started",
		zap.Stringer("start", e.params.Start),
		zap.Int("start_trajectory", e.params.StartTrajectory),
		zap.Int("trajectories", e.params.Trajectories),
		zap.Stringer("lattice", e.u.Geometry()),
		zap.Float64("plaquette", e.u.AveragePlaquette()))

	// Stage 2: Markov chain
	end := e.params.StartTrajectory + e.params.Trajectories
	for traj := e.params.StartTrajectory; traj < end; traj++ {
		if err := ctx.Err(); err != nil {
			e.log.Info("run cancelled", zap.Int("trajectory", traj), zap.Error(err))
			return sum, err
		}
		res, err := e.Trajectory(traj)
		if err != nil {
			return sum, err
		}
		sum.Trajectories++
		sum.Last = traj + 1
		if res.Accepted {
			sum.Accepted++
		}
		e.metrics.observe(res, sum.Accepted, sum.Trajectories)
		if e.onTraj != nil {
			e.onTraj(res)
		}

		// Stage 3: Checkpoint, indexed by completed trajectories
		if e.params.SaveInterval > 0 && (traj+1)%e.params.SaveInterval == 0 {
			if err = e.save(ctx, traj+1); err != nil {
				return sum, err
			}
		}
	}
	e.log.Info("run finished",
		zap.Int("trajectories", sum.Trajectories),
		zap.Float64("acceptance", sum.AcceptanceRate()))

	return sum, nil
}

func (e *Engine) start(ctx context.Context) error {
	switch e.params.Start {
	case StartCold:
		e.u.Cold()
	case StartHot:
		e.u.Hot(e.rnd)
	case StartTepid:
		e.u.Tepid(e.rnd, e.params.TepidWidth)
	case StartCheckpoint:
		state, err := e.store.Load(ctx, e.params.StartTrajectory, e.u)
		if err != nil {
			return fmt.Errorf("load checkpoint %d: %w", e.params.StartTrajectory, err)
		}
		if err = e.rnd.UnmarshalBinary(state); err != nil {
			return fmt.Errorf("load checkpoint %d: %w", e.params.StartTrajectory, err)
		}
	}

	return nil
}

func (e *Engine) save(ctx context.Context, traj int) error {
	state, err := e.rnd.MarshalBinary()
	if err != nil {
		return fmt.Errorf("checkpoint %d: %w", traj, err)
	}
	if err = e.store.Save(ctx, traj, e.u, state); err != nil {
		return fmt.Errorf("checkpoint %d: %w", traj, err)
	}
	e.log.Debug("checkpoint saved", zap.Int("trajectory", traj))

	return nil
}

// Trajectory runs one trajectory with index traj: snapshot, refresh,
// integrate, Metropolis. On any error the field is restored to the snapshot.
func (e *Engine) Trajectory(traj int) (Result, error) {
	began := time.Now()
	if err := e.snapshot.CopyFrom(e.u); err != nil {
		return Result{}, err
	}
	restore := func() {
		_ = e.u.CopyFrom(e.snapshot)
		e.integ.Reset()
	}

	// Stage 1: Molecular dynamics
	if err := e.integ.Refresh(e.u, e.rnd); err != nil {
		restore()
		return Result{}, fmt.Errorf("trajectory %d: %w", traj, err)
	}
	tr, err := e.integ.Integrate(e.u)
	if err != nil {
		restore()
		return Result{}, fmt.Errorf("trajectory %d: %w", traj, err)
	}
	dh := tr.DeltaH
	if math.IsNaN(dh) || math.IsInf(dh, 0) {
		restore()
		e.log.Error("invalid Hamiltonian",
			zap.Int("trajectory", traj),
			zap.Float64("h_initial", tr.HInitial),
			zap.Float64("h_final", tr.HFinal))
		return Result{}, fmt.Errorf("trajectory %d: ΔH=%g: %w", traj, dh, ErrInvalidHamiltonian)
	}

	// Stage 2: Metropolis
	res := Result{
		Trajectory:       traj,
		DeltaH:           dh,
		Probability:      math.Min(1, math.Exp(-dh)),
		ForceEvaluations: tr.ForceEvaluations,
	}
	if e.params.MetropolisTest && traj >= e.params.NoMetropolisUntil {
		res.Tested = true
		res.Accepted = metropolis(dh, e.rnd.Uniform())
	} else {
		res.Accepted = true
	}
	if !res.Accepted {
		_ = e.u.CopyFrom(e.snapshot)
	}

	// Stage 3: Observables
	res.Plaquette = e.u.AveragePlaquette()
	res.TopologicalCharge = e.u.TopologicalCharge()
	res.Duration = time.Since(began)
	e.log.Info("trajectory",
		zap.Int("trajectory", traj),
		zap.Bool("accepted", res.Accepted),
		zap.Float64("delta_h", dh),
		zap.Float64("probability", res.Probability),
		zap.Float64("plaquette", res.Plaquette),
		zap.Float64("topological_charge", res.TopologicalCharge),
		zap.Duration("duration", res.Duration))

	return res, nil
}

// metropolis accepts with probability min(1, e^{−ΔH}) given a uniform draw rn.
func metropolis(dh, rn float64) bool {
	prob := math.Exp(-dh)

	return prob > 1 || rn <= prob
}
