// SPDX-License-Identifier: MIT

package action

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/solver"
)

// Action is one term of the HMC Hamiltonian.
type Action interface {
	// Name identifies the action in logs and metrics.
	Name() string

	// Refresh resamples auxiliary fields (heat bath) for gauge field u.
	Refresh(u *lattice.GaugeField, r *rng.Context) error

	// Energy returns S[u] at the Metropolis tolerance.
	Energy(u *lattice.GaugeField) (float64, error)

	// Force overwrites dst with dS/dθ.
	Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error
}

// Solve phases reported to observers.
const (
	PhaseEnergy   = "energy"
	PhaseForce    = "force"
	PhaseHeatbath = "heatbath"
	PhaseBounds   = "bounds"
)

// SolveObserver receives the diagnostics of every solve.
type SolveObserver func(action, phase string, st solver.Stats)

// Default solver parameters.
const (
	DefaultActionTolerance   = 1e-10
	DefaultForceTolerance    = 1e-8
	DefaultHeatbathTolerance = 1e-10
	DefaultRelaxFactor       = 100.0
	DefaultLanczosSteps      = 40
	DefaultBoundsMargin      = 0.1
)

// SolverParams configures the solves of a pseudofermion action.
type SolverParams struct {
	ActionTolerance   float64 // Metropolis energy (tight)
	ForceTolerance    float64 // MD force (coarser)
	HeatbathTolerance float64 // pseudofermion refresh
	MaxIterations     int     // iteration cap per solve
	RelaxFactor       float64 // force retry multiplies the tolerance by this
	MixedPrecision    bool    // single-shift solves use defect correction with a sloppy operator
	InnerTolerance    float64 // sloppy inner tolerance
	MaxRestarts       int     // outer corrections for mixed precision
}

// DefaultSolverParams returns the default solve configuration.
func DefaultSolverParams() SolverParams {
	return SolverParams{
		ActionTolerance:   DefaultActionTolerance,
		ForceTolerance:    DefaultForceTolerance,
		HeatbathTolerance: DefaultHeatbathTolerance,
		MaxIterations:     solver.DefaultMaxIterations,
		RelaxFactor:       DefaultRelaxFactor,
		InnerTolerance:    solver.DefaultInnerTolerance,
		MaxRestarts:       solver.DefaultMaxRestarts,
	}
}

// Validate checks tolerances and caps.
func (p SolverParams) Validate() error {
	for _, t := range []float64{p.ActionTolerance, p.ForceTolerance, p.HeatbathTolerance} {
		if !(t > 0 && t < 1) {
			return fmt.Errorf("tolerance %g: %w", t, ErrInvalidParameter)
		}
	}
	if p.MaxIterations < 1 || p.RelaxFactor < 1 {
		return fmt.Errorf("cap %d, relax %g: %w", p.MaxIterations, p.RelaxFactor, ErrInvalidParameter)
	}

	return nil
}

// Option configures a pseudofermion action.
type Option func(*base)

// WithSolverParams replaces the solve configuration.
func WithSolverParams(p SolverParams) Option {
	return func(b *base) { b.params = p }
}

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.log = l
		}
	}
}

// WithSolveObserver registers a callback for solver diagnostics.
func WithSolveObserver(o SolveObserver) Option {
	return func(b *base) { b.observe = o }
}

// WithCache shares a rational approximation cache between actions.
func WithCache(c *rational.Cache) Option {
	return func(b *base) { b.cache = c }
}

// base carries what every pseudofermion action shares: its name, solve
// configuration, logger and the pseudofermion itself.
type base struct {
	name    string
	params  SolverParams
	log     *zap.Logger
	observe SolveObserver
	cache   *rational.Cache
	phi     []complex128
}

func newBase(name string, opts []Option) (base, error) {
	b := base{name: name, params: DefaultSolverParams(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.params.Validate(); err != nil {
		return b, fmt.Errorf("%s: %w", name, err)
	}
	if b.cache == nil {
		b.cache = rational.NewCache()
	}
	b.log = b.log.With(zap.String("action", name))

	return b, nil
}

// Name implements Action.
func (b *base) Name() string { return b.name }

// Pseudofermion exposes φ for diagnostics and tests.
func (b *base) Pseudofermion() []complex128 { return b.phi }

func (b *base) refreshed() error {
	if b.phi == nil {
		return fmt.Errorf("%s: %w", b.name, ErrNotRefreshed)
	}

	return nil
}

func (b *base) report(phase string, st solver.Stats) {
	b.log.Debug("solve",
		zap.String("phase", phase),
		zap.Int("iterations", st.Iterations),
		zap.Float64("residual", st.Residual),
		zap.Int("restarts", st.Restarts))
	if b.observe != nil {
		b.observe(b.name, phase, st)
	}
}

func (b *base) tolerance(phase string) float64 {
	switch phase {
	case PhaseForce:
		return b.params.ForceTolerance
	case PhaseHeatbath:
		return b.params.HeatbathTolerance
	default:
		return b.params.ActionTolerance
	}
}

// gaussian draws a complex Gaussian source restricted to op's subspace.
func gaussian(op lattice.FermionOperator, r *rng.Context) []complex128 {
	eta := make([]complex128, op.Size())
	r.FillComplexGaussian(eta)
	if p, ok := op.(lattice.Projector); ok {
		p.Project(eta)
	}

	return eta
}

// normal returns the operator M†M at gauge field u.
func normal(op lattice.FermionOperator, u *lattice.GaugeField) solver.LinearOperator {
	tmp := make([]complex128, op.Size())

	return solver.OperatorFunc(func(dst, src []complex128) {
		op.M(u, tmp, src)
		op.Mdag(u, dst, tmp)
	})
}

// solve returns x = A^{-1} src for A = M†M at the phase tolerance; sloppy is
// used as the inner operator when mixed precision is enabled. Force solves
// retry once with a relaxed tolerance.
func (b *base) solve(phase string, a, sloppy solver.LinearOperator, src []complex128) ([]complex128, error) {
	x := make([]complex128, len(src))
	tol := b.tolerance(phase)
	st, err := b.singleSolver(tol, sloppy).Solve(a, x, src)
	b.report(phase, st)
	if err != nil && phase == PhaseForce && errors.Is(err, solver.ErrNonConvergence) {
		relaxed := min(tol*b.params.RelaxFactor, 0.5)
		b.log.Warn("force solve did not converge, retrying relaxed",
			zap.Float64("tolerance", tol), zap.Float64("relaxed", relaxed), zap.Error(err))
		st, err = b.singleSolver(relaxed, sloppy).Solve(a, x, src)
		b.report(phase, st)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s solve: %w", b.name, phase, err)
	}

	return x, nil
}

func (b *base) singleSolver(tol float64, sloppy solver.LinearOperator) solver.Solver {
	if b.params.MixedPrecision && sloppy != nil {
		return solver.MixedPrecisionCG{
			Tolerance:      tol,
			MaxIterations:  b.params.MaxIterations,
			InnerTolerance: b.params.InnerTolerance,
			MaxRestarts:    b.params.MaxRestarts,
			Sloppy:         sloppy,
		}
	}

	return solver.NewCG(tol, b.params.MaxIterations)
}

// solveShifted runs a multi-shift solve with the same retry policy.
func (b *base) solveShifted(phase string, a solver.LinearOperator, src []complex128, shifts []float64) ([][]complex128, error) {
	tol := b.tolerance(phase)
	sols, st, err := solver.NewMultiShiftCG(tol, b.params.MaxIterations).SolveShifted(a, src, shifts)
	b.report(phase, st)
	if err != nil && phase == PhaseForce && errors.Is(err, solver.ErrNonConvergence) {
		relaxed := min(tol*b.params.RelaxFactor, 0.5)
		b.log.Warn("multi-shift force solve did not converge, retrying relaxed",
			zap.Float64("tolerance", tol), zap.Float64("relaxed", relaxed), zap.Error(err))
		sols, st, err = solver.NewMultiShiftCG(relaxed, b.params.MaxIterations).SolveShifted(a, src, shifts)
		b.report(phase, st)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s multi-shift solve: %w", b.name, phase, err)
	}

	return sols, nil
}

// sloppyNormal returns the single-precision M†M when mixed precision is on.
func (b *base) sloppyNormal(op lattice.FermionOperator, u *lattice.GaugeField) solver.LinearOperator {
	if !b.params.MixedPrecision {
		return nil
	}

	return normal(lattice.NewSloppy(op), u)
}
