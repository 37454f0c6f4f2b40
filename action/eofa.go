// SPDX-License-Identifier: MIT

package action

import (
	"fmt"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/solver"
)

// EOFAParams configures ExactOneFlavourRatio.
type EOFAParams struct {
	Shift             float64 // Δ > 0 in H_R = H_L + Δ·Ω
	HeatbathLo        float64 // lower bound of the x^{1/2} fit on [HeatbathLo, 1]
	HeatbathDegree    int     // poles of the x^{1/2} fit
	HeatbathTolerance float64 // max relative error of the fit; 0 disables
	BoundsCheckFreq   int     // refreshes between Lanczos checks of H_L; 0 disables
	LanczosSteps      int     // 0 means DefaultLanczosSteps
}

// Validate checks the parameter domain.
func (p EOFAParams) Validate() error {
	switch {
	case !(p.Shift > 0):
		return fmt.Errorf("shift %g: %w", p.Shift, ErrInvalidParameter)
	case !(p.HeatbathLo > 0 && p.HeatbathLo < 1):
		return fmt.Errorf("heatbath lower bound %g: %w", p.HeatbathLo, ErrInvalidParameter)
	case p.HeatbathDegree < 1 || p.HeatbathDegree > rational.MaxDegree:
		return fmt.Errorf("heatbath degree %d: %w", p.HeatbathDegree, ErrInvalidParameter)
	case p.HeatbathTolerance < 0 || p.BoundsCheckFreq < 0 || p.LanczosSteps < 0:
		return fmt.Errorf("negative tolerance or frequency: %w", ErrInvalidParameter)
	}

	return nil
}

// ExactOneFlavourRatio represents det(H_L)/det(H_R) with H_L = M̂†M̂ and
// H_R = H_L + Δ·Ω, Ω = ½(1 − γ5). With K = 1 + Δ·Ω H_L^{-1} Ω:
//
//	S = φ†Kφ = φ†φ + Δ·(Ωφ)† H_L^{-1} (Ωφ)
//
// The heat bath draws φ = K^{-1/2}η. By Woodbury K^{-1} = 1 − Δ·Ω H_R^{-1} Ω,
// whose spectrum lies in [λ/(λ+Δ), 1] for λ = λ_min(H_L); its square root is
// applied through a rational x^{1/2} fit, one H_L + s·Ω solve per pole.
type ExactOneFlavourRatio struct {
	base
	op        lattice.ChiralOperator
	ep        EOFAParams
	hb        *rational.Approximation
	refreshes int
	spectrum  solver.Bounds
}

// NewExactOneFlavourRatio fits the heat-bath approximation and returns the
// action on op (usually a lattice.Schur).
func NewExactOneFlavourRatio(op lattice.ChiralOperator, ep EOFAParams, opts ...Option) (*ExactOneFlavourRatio, error) {
	if op == nil {
		return nil, fmt.Errorf("NewExactOneFlavourRatio: %w", ErrInvalidParameter)
	}
	if err := ep.Validate(); err != nil {
		return nil, fmt.Errorf("NewExactOneFlavourRatio: %w", err)
	}
	if ep.LanczosSteps == 0 {
		ep.LanczosSteps = DefaultLanczosSteps
	}
	b, err := newBase("exact-one-flavour-ratio", opts)
	if err != nil {
		return nil, err
	}
	hb, err := b.cache.Get(rational.Params{
		Lo:        ep.HeatbathLo,
		Hi:        1,
		Power:     0.5,
		Degree:    ep.HeatbathDegree,
		Tolerance: ep.HeatbathTolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("NewExactOneFlavourRatio: %w", err)
	}

	return &ExactOneFlavourRatio{base: b, op: op, ep: ep, hb: hb}, nil
}

// Spectrum returns the H_L bounds measured by the last Lanczos check.
func (a *ExactOneFlavourRatio) Spectrum() solver.Bounds { return a.spectrum }

// chiralShifted returns H + s·Ω.
func (a *ExactOneFlavourRatio) chiralShifted(h solver.LinearOperator, s float64) solver.LinearOperator {
	if h == nil {
		return nil
	}
	omega := make([]complex128, a.op.Size())
	cs := complex(s, 0)

	return solver.OperatorFunc(func(dst, src []complex128) {
		h.Apply(dst, src)
		a.op.ChiralMinus(src, omega)
		for i := range dst {
			dst[i] += cs * omega[i]
		}
	})
}

// Refresh samples φ = K^{-1/2}η.
func (a *ExactOneFlavourRatio) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	eta := gaussian(a.op, r)
	hl := normal(a.op, u)
	n := a.refreshes
	a.refreshes++
	if a.ep.BoundsCheckFreq > 0 && n%a.ep.BoundsCheckFreq == 0 {
		if err := a.checkBounds(hl, eta); err != nil {
			return err
		}
	}

	var (
		delta    = a.ep.Shift
		sloppy   = a.sloppyNormal(a.op, u)
		omegaEta = make([]complex128, len(eta))
		phi      = make([]complex128, len(eta))
		term     = make([]complex128, len(eta))
	)
	a.op.ChiralMinus(eta, omegaEta)
	for i := range phi {
		phi[i] = complex(a.hb.A0, 0) * eta[i]
	}
	// (K^{-1} + p)^{-1}η = c[η + c·Δ·Ω(H_L + s·Ω)^{-1}Ωη], c = 1/(1+p), s = Δ·p·c.
	for k, p := range a.hb.Shifts {
		c := 1 / (1 + p)
		s := delta * p * c
		y, err := a.solve(PhaseHeatbath, a.chiralShifted(hl, s), a.chiralShifted(sloppy, s), omegaEta)
		if err != nil {
			return err
		}
		a.op.ChiralMinus(y, term)
		matrix.Scale(c*delta, term)
		matrix.AxpyReal(1, eta, term)
		matrix.AxpyReal(a.hb.Residues[k]*c, term, phi)
	}
	a.phi = phi

	return nil
}

// checkBounds verifies λ_min/(λ_min+Δ) ≥ HeatbathLo for the Lanczos estimate
// of λ_min(H_L).
func (a *ExactOneFlavourRatio) checkBounds(hl solver.LinearOperator, start []complex128) error {
	b, err := solver.Lanczos(hl, start, a.ep.LanczosSteps)
	if err != nil {
		return fmt.Errorf("%s: bounds: %w", a.name, err)
	}
	a.spectrum = b
	a.report(PhaseBounds, solver.Stats{Iterations: b.Steps})
	lo := b.Lo / (b.Lo + a.ep.Shift)
	if err = a.hb.CheckSpectrum(lo, 1); err != nil {
		return fmt.Errorf("%s: heat-bath kernel: %w", a.name, err)
	}

	return nil
}

// omegaPhi returns Ωφ.
func (a *ExactOneFlavourRatio) omegaPhi() []complex128 {
	out := make([]complex128, len(a.phi))
	a.op.ChiralMinus(a.phi, out)

	return out
}

// Energy implements Action.
func (a *ExactOneFlavourRatio) Energy(u *lattice.GaugeField) (float64, error) {
	if err := a.refreshed(); err != nil {
		return 0, err
	}
	op := a.omegaPhi()
	x, err := a.solve(PhaseEnergy, normal(a.op, u), a.sloppyNormal(a.op, u), op)
	if err != nil {
		return 0, err
	}

	return matrix.Norm2(a.phi) + a.ep.Shift*matrix.RealDot(op, x), nil
}

// Force implements Action: dS = −2Δ Re((M̂X)† dM̂ X), X = H_L^{-1}Ωφ.
func (a *ExactOneFlavourRatio) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	if err := a.refreshed(); err != nil {
		return err
	}
	x, err := a.solve(PhaseForce, normal(a.op, u), a.sloppyNormal(a.op, u), a.omegaPhi())
	if err != nil {
		return err
	}
	mx := make([]complex128, len(x))
	a.op.M(u, mx, x)
	dst.Zero()
	a.op.Deriv(u, dst, mx, x, -2*a.ep.Shift)

	return nil
}
