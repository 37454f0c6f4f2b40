// SPDX-License-Identifier: MIT

package integrator

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/latticehmc/action"
	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// Default trajectory parameters.
const (
	DefaultSteps  = 20
	DefaultLength = 1.0
)

// Params configures one trajectory.
type Params struct {
	Scheme Scheme
	Steps  int     // outer MD steps N
	Length float64 // trajectory length τ; the outer step is τ/N
}

// DefaultParams returns a leapfrog trajectory of 20 steps and unit length.
func DefaultParams() Params {
	return Params{Scheme: LeapFrog, Steps: DefaultSteps, Length: DefaultLength}
}

// Validate checks the parameter domain.
func (p Params) Validate() error {
	if p.Steps < 1 || !(p.Length > 0) || math.IsInf(p.Length, 0) {
		return fmt.Errorf("steps %d, length %g: %w", p.Steps, p.Length, ErrInvalidParams)
	}
	if p.Scheme < LeapFrog || p.Scheme > ForceGradient {
		return fmt.Errorf("%s: %w", p.Scheme, ErrUnknownScheme)
	}

	return nil
}

// Trajectory summarises one integration.
type Trajectory struct {
	HInitial float64
	HFinal   float64
	DeltaH   float64
	// ForceEvaluations counts level force evaluations, indexed by level.
	ForceEvaluations []int
}

// Option configures an Integrator.
type Option func(*Integrator)

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(it *Integrator) {
		if l != nil {
			it.log = l
		}
	}
}

// WithConcurrency bounds the number of actions of one level whose forces are
// evaluated at the same time. Panics if n < 1.
func WithConcurrency(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("integrator: WithConcurrency(%d): must be >= 1", n))
	}

	return func(it *Integrator) { it.conc = n }
}

// Integrator drives one trajectory at a time. It is not safe for concurrent use.
type Integrator struct {
	set    *action.Set
	params Params
	log    *zap.Logger
	conc   int

	state   State
	geom    *lattice.Geometry
	mom     *lattice.AlgebraField
	sum     *lattice.AlgebraField
	forces  [][]*lattice.AlgebraField
	shifted *lattice.GaugeField
	hInit   float64
	hFinal  float64
	evals   []int
}

// New validates p and returns an idle integrator over set.
func New(set *action.Set, p Params, opts ...Option) (*Integrator, error) {
	if set == nil {
		return nil, fmt.Errorf("integrator.New: %w", action.ErrEmptySet)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("integrator.New: %w", err)
	}
	it := &Integrator{
		set:    set,
		params: p,
		log:    zap.NewNop(),
		conc:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(it)
	}

	return it, nil
}

// State returns the current state.
func (it *Integrator) State() State { return it.state }

// Params returns the trajectory parameters.
func (it *Integrator) Params() Params { return it.params }

// Set returns the action set.
func (it *Integrator) Set() *action.Set { return it.set }

// Momentum returns the momentum field; nil before the first Refresh.
func (it *Integrator) Momentum() *lattice.AlgebraField { return it.mom }

// Reset abandons the current trajectory and returns to Idle.
func (it *Integrator) Reset() { it.state = Idle }

// alloc (re)allocates the field buffers for the geometry of u.
func (it *Integrator) alloc(u *lattice.GaugeField) {
	g := u.Geometry()
	if it.geom != nil && it.geom.Same(g) {
		return
	}
	it.geom = g
	it.mom = lattice.NewAlgebraField(g)
	it.sum = lattice.NewAlgebraField(g)
	it.shifted = lattice.NewGaugeField(g)
	it.forces = make([][]*lattice.AlgebraField, it.set.Levels())
	for i := range it.forces {
		lv := it.set.Level(i)
		it.forces[i] = make([]*lattice.AlgebraField, len(lv.Actions))
		for j := range it.forces[i] {
			it.forces[i][j] = lattice.NewAlgebraField(g)
		}
	}
}

// Hamiltonian returns ½‖P‖² + Σ S_a at u.
func (it *Integrator) Hamiltonian(u *lattice.GaugeField) (float64, error) {
	s, err := it.set.Energy(u)
	if err != nil {
		return 0, err
	}

	return 0.5*it.mom.Norm2() + s, nil
}

// Refresh samples Gaussian momenta, refreshes every action in level order and
// records H_initial. Legal from Idle and Completed.
func (it *Integrator) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	if it.state != Idle && it.state != Completed {
		return fmt.Errorf("Refresh in state %s: %w", it.state, ErrInvalidState)
	}
	it.alloc(u)
	it.state = Idle
	it.mom.Gaussian(r)
	if err := it.set.Refresh(u, r); err != nil {
		return fmt.Errorf("Refresh: %w", err)
	}
	h, err := it.Hamiltonian(u)
	if err != nil {
		return fmt.Errorf("Refresh: %w", err)
	}
	it.hInit = h
	it.state = MomentumRefreshed

	return nil
}

// Integrate evolves u through one trajectory and records H_final.
// Legal from MomentumRefreshed only; any error returns the integrator to Idle.
func (it *Integrator) Integrate(u *lattice.GaugeField) (Trajectory, error) {
	if it.state != MomentumRefreshed {
		return Trajectory{}, fmt.Errorf("Integrate in state %s: %w", it.state, ErrInvalidState)
	}
	if !it.geom.Same(u.Geometry()) {
		it.state = Idle
		return Trajectory{}, fmt.Errorf("Integrate: %s vs %s: %w", u.Geometry(), it.geom, ErrGeometryMismatch)
	}
	it.state = Integrating
	it.evals = make([]int, it.set.Levels())

	// Stage 1: Outer steps; first/last mark the unmerged boundary kicks.
	var (
		n   = it.params.Steps
		eps = it.params.Length / float64(n)
	)
	for s := 0; s < n; s++ {
		if err := it.step(u, 0, eps, s == 0, s == n-1); err != nil {
			it.state = Idle
			return Trajectory{}, fmt.Errorf("Integrate: step %d: %w", s, err)
		}
	}

	// Stage 2: Final energy
	h, err := it.Hamiltonian(u)
	if err != nil {
		it.state = Idle
		return Trajectory{}, fmt.Errorf("Integrate: %w", err)
	}
	it.hFinal = h
	it.state = Completed
	tr := Trajectory{
		HInitial:         it.hInit,
		HFinal:           it.hFinal,
		DeltaH:           it.hFinal - it.hInit,
		ForceEvaluations: append([]int(nil), it.evals...),
	}
	it.log.Debug("trajectory integrated",
		zap.Stringer("scheme", it.params.Scheme),
		zap.Float64("h_initial", tr.HInitial),
		zap.Float64("h_final", tr.HFinal),
		zap.Float64("delta_h", tr.DeltaH),
		zap.Ints("force_evaluations", tr.ForceEvaluations))

	return tr, nil
}

// Reverse negates the momenta and re-arms the integrator so that a second
// Integrate retraces the trajectory. Legal from Completed only.
func (it *Integrator) Reverse() error {
	if it.state != Completed {
		return fmt.Errorf("Reverse in state %s: %w", it.state, ErrInvalidState)
	}
	it.mom.Scale(-1)
	it.hInit = it.hFinal
	it.state = MomentumRefreshed

	return nil
}

// step runs Multiplier steps of level over an interval eps of the parent level.
func (it *Integrator) step(u *lattice.GaugeField, level int, eps float64, first, last bool) error {
	m := it.set.Level(level).Multiplier
	eps /= float64(m)
	for e := 0; e < m; e++ {
		f := first && e == 0
		l := last && e == m-1
		var err error
		switch it.params.Scheme {
		case LeapFrog:
			err = it.leapfrog(u, level, eps, f, l)
		case MinimumNorm2:
			err = it.omelyan(u, level, eps, mn2Lambda, f, l, false)
		case ForceGradient:
			err = it.omelyan(u, level, eps, fgLambda, f, l, true)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (it *Integrator) leapfrog(u *lattice.GaugeField, level int, eps float64, first, last bool) error {
	if first {
		if err := it.updateP(u, level, eps/2); err != nil {
			return err
		}
	}
	if err := it.evolve(u, level, eps, first, last); err != nil {
		return err
	}
	mm := 1.0
	if last {
		mm = 0.5
	}

	return it.updateP(u, level, mm*eps)
}

// omelyan runs the two-stage scheme P(λε) Q(ε/2) P'((1−2λ)ε) Q(ε/2) P(λε);
// P' is the force-gradient kick when fg is set.
func (it *Integrator) omelyan(u *lattice.GaugeField, level int, eps, lambda float64, first, last, fg bool) error {
	if first {
		if err := it.updateP(u, level, lambda*eps); err != nil {
			return err
		}
	}
	if err := it.evolve(u, level, eps/2, first, false); err != nil {
		return err
	}
	var err error
	if fg {
		err = it.forceGradientP(u, level, eps, (1-2*lambda)*eps)
	} else {
		err = it.updateP(u, level, (1-2*lambda)*eps)
	}
	if err != nil {
		return err
	}
	if err = it.evolve(u, level, eps/2, false, last); err != nil {
		return err
	}
	mm := 2.0
	if last {
		mm = 1.0
	}

	return it.updateP(u, level, mm*lambda*eps)
}

// evolve advances the field by eps: Update-Q on the innermost level,
// otherwise the next level's steps.
func (it *Integrator) evolve(u *lattice.GaugeField, level int, eps float64, first, last bool) error {
	if level == it.set.Levels()-1 {
		return u.Update(eps, it.mom)
	}

	return it.step(u, level+1, eps, first, last)
}

// updateP applies P −= eps·F_level(u).
func (it *Integrator) updateP(u *lattice.GaugeField, level int, eps float64) error {
	if err := it.levelForce(u, level); err != nil {
		return err
	}
	it.mom.Axpy(-eps, it.sum)

	return nil
}

// forceGradientP applies P −= eps·F_level(u') with u' = u − (ε²/24)·F_level(u),
// which for λ = 1/6 equals u − (2χε³/((1−2λ)ε))·F.
func (it *Integrator) forceGradientP(u *lattice.GaugeField, level int, stepEps, eps float64) error {
	if err := it.levelForce(u, level); err != nil {
		return err
	}
	fgDt := 2 * fgChi * stepEps * stepEps * stepEps / eps
	if err := it.shifted.CopyFrom(u); err != nil {
		return err
	}
	if err := it.shifted.Update(-fgDt, it.sum); err != nil {
		return err
	}

	return it.updateP(it.shifted, level, eps)
}

// levelForce stores the force of level at u in it.sum. Action forces run
// concurrently and are summed in action order.
func (it *Integrator) levelForce(u *lattice.GaugeField, level int) error {
	var (
		lv     = it.set.Level(level)
		forces = it.forces[level]
		g      errgroup.Group
	)
	g.SetLimit(it.conc)
	for i, a := range lv.Actions {
		g.Go(func() error {
			if err := a.Force(u, forces[i]); err != nil {
				return fmt.Errorf("level %d %s force: %w", level, a.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	it.sum.Zero()
	for _, f := range forces {
		it.sum.Axpy(1, f)
	}
	it.evals[level]++
	if ce := it.log.Check(zap.DebugLevel, "level force"); ce != nil {
		ce.Write(
			zap.Int("level", level),
			zap.Float64("norm", math.Sqrt(it.sum.Norm2())),
			zap.Float64("max", it.sum.MaxAbs()))
	}

	return nil
}
