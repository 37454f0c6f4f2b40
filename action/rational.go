// SPDX-License-Identifier: MIT

package action

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/solver"
)

// RationalParams configures the approximations of a rational action.
type RationalParams struct {
	Lo, Hi          float64 // spectral bounds of M†M (and V†V)
	Degree          int     // poles of the action and heat-bath fits
	MDDegree        int     // poles of the force fits; 0 means Degree
	Tolerance       float64 // max relative error of the action fits; 0 disables
	MDTolerance     float64 // max relative error of the force fits; 0 disables
	BoundsCheckFreq int     // refreshes between Lanczos checks; 0 disables
	LanczosSteps    int     // Lanczos iterations per check; 0 means DefaultLanczosSteps
}

// Validate checks bounds and degrees.
func (p RationalParams) Validate() error {
	if !(p.Lo > 0) || !(p.Hi > p.Lo) {
		return fmt.Errorf("bounds [%g, %g]: %w", p.Lo, p.Hi, ErrInvalidParameter)
	}
	if p.Degree < 1 || p.Degree > rational.MaxDegree || p.MDDegree < 0 || p.MDDegree > rational.MaxDegree {
		return fmt.Errorf("degree %d, md degree %d: %w", p.Degree, p.MDDegree, ErrInvalidParameter)
	}
	if p.Tolerance < 0 || p.MDTolerance < 0 || p.BoundsCheckFreq < 0 || p.LanczosSteps < 0 {
		return fmt.Errorf("negative tolerance or frequency: %w", ErrInvalidParameter)
	}

	return nil
}

// fit returns the approximation parameters for x^power.
func (p RationalParams) fit(power float64, md bool) rational.Params {
	q := rational.Params{Lo: p.Lo, Hi: p.Hi, Power: power, Degree: p.Degree, Tolerance: p.Tolerance}
	if md {
		q.Tolerance = p.MDTolerance
		if p.MDDegree > 0 {
			q.Degree = p.MDDegree
		}
	}

	return q
}

// rationalBase adds approximation bookkeeping and spectral checks to base.
type rationalBase struct {
	base
	rp        RationalParams
	powers    []float64
	refreshes int
	spectrum  solver.Bounds
}

func newRationalBase(name string, rp RationalParams, opts []Option, powers ...float64) (rationalBase, error) {
	if err := rp.Validate(); err != nil {
		return rationalBase{}, fmt.Errorf("%s: %w", name, err)
	}
	if rp.LanczosSteps == 0 {
		rp.LanczosSteps = DefaultLanczosSteps
	}
	b, err := newBase(name, opts)
	if err != nil {
		return rationalBase{}, err
	}
	r := rationalBase{base: b, rp: rp, powers: powers}
	// Fit everything up front so that construction fails instead of the first trajectory.
	if err = r.fitAll(); err != nil {
		return rationalBase{}, err
	}

	return r, nil
}

func (r *rationalBase) fitAll() error {
	for _, pw := range r.powers {
		for _, md := range []bool{false, true} {
			if _, err := r.approx(pw, md); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *rationalBase) approx(power float64, md bool) (*rational.Approximation, error) {
	a, err := r.cache.Get(r.rp.fit(power, md))
	if err != nil {
		return nil, fmt.Errorf("%s: fit x^%g: %w", r.name, power, err)
	}

	return a, nil
}

// Params returns the current rational parameters.
func (r *rationalBase) Params() RationalParams { return r.rp }

// Spectrum returns the bounds measured by the last Lanczos check.
func (r *rationalBase) Spectrum() solver.Bounds { return r.spectrum }

// Rebound refits every approximation on bounds widened to cover [lo, hi]
// with DefaultBoundsMargin. It is the recovery path after
// rational.ErrApproximationOutOfRange.
func (r *rationalBase) Rebound(lo, hi float64) error {
	wide := rational.Widen(rational.Params{Lo: r.rp.Lo, Hi: r.rp.Hi}, lo, hi, DefaultBoundsMargin)
	next := r.rp
	next.Lo, next.Hi = wide.Lo, wide.Hi
	prev := r.rp
	r.rp = next
	if err := r.fitAll(); err != nil {
		r.rp = prev
		return err
	}
	r.log.Info("rational bounds widened",
		zap.Float64("lo", next.Lo), zap.Float64("hi", next.Hi))

	return nil
}

// boundsDue counts a refresh and reports whether it needs a spectral check:
// every BoundsCheckFreq refreshes, starting with the first one.
func (r *rationalBase) boundsDue() bool {
	n := r.refreshes
	r.refreshes++

	return r.rp.BoundsCheckFreq > 0 && n%r.rp.BoundsCheckFreq == 0
}

// checkBounds estimates the spectrum of a with Lanczos from start and checks
// it against every fit.
func (r *rationalBase) checkBounds(label string, a solver.LinearOperator, start []complex128, fits ...*rational.Approximation) error {
	b, err := solver.Lanczos(a, start, r.rp.LanczosSteps)
	if err != nil {
		return fmt.Errorf("%s: %s bounds: %w", r.name, label, err)
	}
	r.spectrum = b
	r.report(PhaseBounds, solver.Stats{Iterations: b.Steps})
	for _, f := range fits {
		if err = f.CheckSpectrum(b.Lo, b.Hi); err != nil {
			return fmt.Errorf("%s: %s: %w", r.name, label, err)
		}
	}

	return nil
}

// applyRational returns dst = r(A)·src with one multi-shift solve.
func (r *rationalBase) applyRational(phase string, f *rational.Approximation, a solver.LinearOperator, src []complex128) ([]complex128, [][]complex128, error) {
	sols, err := r.solveShifted(phase, a, src, f.Shifts)
	if err != nil {
		return nil, nil, err
	}
	dst := make([]complex128, len(src))
	if err = f.Apply(dst, src, sols); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.name, err)
	}

	return dst, sols, nil
}

const (
	nameOneFlavour      = "one-flavour-rational"
	nameOneFlavourRatio = "one-flavour-ratio-rational"
)

// OneFlavourRational is S = φ† r_{-1/2}(M†M) φ, representing det(M†M)^{1/2}.
type OneFlavourRational struct {
	rationalBase
	op lattice.FermionOperator
}

// NewOneFlavourRational fits the approximations and returns the action.
func NewOneFlavourRational(op lattice.FermionOperator, rp RationalParams, opts ...Option) (*OneFlavourRational, error) {
	if op == nil {
		return nil, fmt.Errorf("NewOneFlavourRational: %w", ErrInvalidParameter)
	}
	rb, err := newRationalBase(nameOneFlavour, rp, opts, -0.5, 0.25)
	if err != nil {
		return nil, err
	}

	return &OneFlavourRational{rationalBase: rb, op: op}, nil
}

// Refresh samples φ = r_{1/4}(M†M)η.
func (a *OneFlavourRational) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	eta := gaussian(a.op, r)
	act, err := a.approx(-0.5, false)
	if err != nil {
		return err
	}
	hb, err := a.approx(0.25, false)
	if err != nil {
		return err
	}
	mm := normal(a.op, u)
	if a.boundsDue() {
		if err = a.checkBounds("M†M", mm, eta, act, hb); err != nil {
			return err
		}
	}
	phi, _, err := a.applyRational(PhaseHeatbath, hb, mm, eta)
	if err != nil {
		return err
	}
	a.phi = phi

	return nil
}

// Energy implements Action.
func (a *OneFlavourRational) Energy(u *lattice.GaugeField) (float64, error) {
	if err := a.refreshed(); err != nil {
		return 0, err
	}
	act, err := a.approx(-0.5, false)
	if err != nil {
		return 0, err
	}
	w, _, err := a.applyRational(PhaseEnergy, act, normal(a.op, u), a.phi)
	if err != nil {
		return 0, err
	}

	return matrix.RealDot(a.phi, w), nil
}

// Force implements Action: dS = −Σ_k 2 r_k Re((M X_k)† dM X_k),
// X_k = (M†M + s_k)^{-1}φ, using the force approximation.
func (a *OneFlavourRational) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	if err := a.refreshed(); err != nil {
		return err
	}
	md, err := a.approx(-0.5, true)
	if err != nil {
		return err
	}
	xs, err := a.solveShifted(PhaseForce, normal(a.op, u), a.phi, md.Shifts)
	if err != nil {
		return err
	}
	dst.Zero()
	mx := make([]complex128, a.op.Size())
	for k, x := range xs {
		a.op.M(u, mx, x)
		a.op.Deriv(u, dst, mx, x, -2*md.Residues[k])
	}

	return nil
}

// OneFlavourRatioRational is S = ψ† r_{-1/2}(M†M) ψ with ψ = r_{1/4}(V†V)φ,
// representing det(M†M)^{1/2}/det(V†V)^{1/2}.
type OneFlavourRatioRational struct {
	rationalBase
	num lattice.FermionOperator // V
	den lattice.FermionOperator // M
}

// NewOneFlavourRatioRational fits the approximations and returns the action.
// Both kernels share the bounds of rp.
func NewOneFlavourRatioRational(num, den lattice.FermionOperator, rp RationalParams, opts ...Option) (*OneFlavourRatioRational, error) {
	if num == nil || den == nil {
		return nil, fmt.Errorf("NewOneFlavourRatioRational: %w", ErrInvalidParameter)
	}
	if num.Size() != den.Size() {
		return nil, fmt.Errorf("NewOneFlavourRatioRational: %d vs %d: %w", num.Size(), den.Size(), ErrOperatorMismatch)
	}
	rb, err := newRationalBase(nameOneFlavourRatio, rp, opts, -0.5, 0.25, -0.25)
	if err != nil {
		return nil, err
	}

	return &OneFlavourRatioRational{rationalBase: rb, num: num, den: den}, nil
}

// Refresh samples φ = r_{-1/4}(V†V) r_{1/4}(M†M) η.
func (a *OneFlavourRatioRational) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	eta := gaussian(a.den, r)
	fits := make(map[float64]*rational.Approximation, 3)
	for _, pw := range []float64{-0.5, 0.25, -0.25} {
		f, err := a.approx(pw, false)
		if err != nil {
			return err
		}
		fits[pw] = f
	}
	mm := normal(a.den, u)
	vv := normal(a.num, u)
	if a.boundsDue() {
		if err := a.checkBounds("M†M", mm, eta, fits[-0.5], fits[0.25]); err != nil {
			return err
		}
		if err := a.checkBounds("V†V", vv, eta, fits[0.25], fits[-0.25]); err != nil {
			return err
		}
	}
	tmp, _, err := a.applyRational(PhaseHeatbath, fits[0.25], mm, eta)
	if err != nil {
		return err
	}
	phi, _, err := a.applyRational(PhaseHeatbath, fits[-0.25], vv, tmp)
	if err != nil {
		return err
	}
	a.phi = phi

	return nil
}

// Energy implements Action.
func (a *OneFlavourRatioRational) Energy(u *lattice.GaugeField) (float64, error) {
	if err := a.refreshed(); err != nil {
		return 0, err
	}
	q, err := a.approx(0.25, false)
	if err != nil {
		return 0, err
	}
	act, err := a.approx(-0.5, false)
	if err != nil {
		return 0, err
	}
	psi, _, err := a.applyRational(PhaseEnergy, q, normal(a.num, u), a.phi)
	if err != nil {
		return 0, err
	}
	w, _, err := a.applyRational(PhaseEnergy, act, normal(a.den, u), psi)
	if err != nil {
		return 0, err
	}

	return matrix.RealDot(psi, w), nil
}

// Force implements Action. With B = V†V, A = M†M, Y_j = (B+t_j)^{-1}φ,
// X_k = (A+s_k)^{-1}ψ, W = r(A)ψ and Z_j = (B+t_j)^{-1}W:
//
//	dS = −Σ_k 2 r_k Re((M X_k)† dM X_k)
//	     −Σ_j 2 q_j [Re((V Y_j)† dV Z_j) + Re((V Z_j)† dV Y_j)]
func (a *OneFlavourRatioRational) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	if err := a.refreshed(); err != nil {
		return err
	}
	q, err := a.approx(0.25, true)
	if err != nil {
		return err
	}
	md, err := a.approx(-0.5, true)
	if err != nil {
		return err
	}
	vv := normal(a.num, u)

	// Stage 1: ψ and Y_j
	psi, ys, err := a.applyRational(PhaseForce, q, vv, a.phi)
	if err != nil {
		return err
	}

	// Stage 2: W and X_k
	w, xs, err := a.applyRational(PhaseForce, md, normal(a.den, u), psi)
	if err != nil {
		return err
	}

	// Stage 3: Z_j
	zs, err := a.solveShifted(PhaseForce, vv, w, q.Shifts)
	if err != nil {
		return err
	}

	// Stage 4: Accumulate
	dst.Zero()
	tmp := make([]complex128, a.den.Size())
	for k, x := range xs {
		a.den.M(u, tmp, x)
		a.den.Deriv(u, dst, tmp, x, -2*md.Residues[k])
	}
	for j := range ys {
		c := -2 * q.Residues[j]
		a.num.M(u, tmp, ys[j])
		a.num.Deriv(u, dst, tmp, zs[j], c)
		a.num.M(u, tmp, zs[j])
		a.num.Deriv(u, dst, tmp, ys[j], c)
	}

	return nil
}
