// SPDX-License-Identifier: MIT

package action

import (
	"fmt"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/rng"
)

// TwoFlavour is the straight pseudofermion action S = φ†(M†M)^{-1}φ.
type TwoFlavour struct {
	base
	op lattice.FermionOperator
}

// NewTwoFlavour returns the action for operator op.
func NewTwoFlavour(op lattice.FermionOperator, opts ...Option) (*TwoFlavour, error) {
	if op == nil {
		return nil, fmt.Errorf("NewTwoFlavour: %w", ErrInvalidParameter)
	}
	b, err := newBase("two-flavour", opts)
	if err != nil {
		return nil, err
	}

	return &TwoFlavour{base: b, op: op}, nil
}

// Refresh samples φ = M†η, so that S = η†η at the current field.
func (a *TwoFlavour) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	eta := gaussian(a.op, r)
	a.phi = make([]complex128, a.op.Size())
	a.op.Mdag(u, a.phi, eta)

	return nil
}

// Energy implements Action.
func (a *TwoFlavour) Energy(u *lattice.GaugeField) (float64, error) {
	if err := a.refreshed(); err != nil {
		return 0, err
	}
	x, err := a.solve(PhaseEnergy, normal(a.op, u), a.sloppyNormal(a.op, u), a.phi)
	if err != nil {
		return 0, err
	}

	return matrix.RealDot(a.phi, x), nil
}

// Force implements Action: dS = −2 Re((MX)† dM X) with X = (M†M)^{-1}φ.
func (a *TwoFlavour) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	if err := a.refreshed(); err != nil {
		return err
	}
	x, err := a.solve(PhaseForce, normal(a.op, u), a.sloppyNormal(a.op, u), a.phi)
	if err != nil {
		return err
	}
	mx := make([]complex128, len(x))
	a.op.M(u, mx, x)
	dst.Zero()
	a.op.Deriv(u, dst, mx, x, -2)

	return nil
}

// TwoFlavourRatio is S = φ†V(M†M)^{-1}V†φ, representing det(M†M)/det(V†V).
// V is typically the same operator at a heavier mass (Hasenbusch) or a
// Pauli-Villars regulator.
type TwoFlavourRatio struct {
	base
	num lattice.FermionOperator // V
	den lattice.FermionOperator // M
}

// NewTwoFlavourRatio returns the ratio action with numerator num and
// denominator den. Returns ErrOperatorMismatch when their sizes differ.
func NewTwoFlavourRatio(num, den lattice.FermionOperator, opts ...Option) (*TwoFlavourRatio, error) {
	if num == nil || den == nil {
		return nil, fmt.Errorf("NewTwoFlavourRatio: %w", ErrInvalidParameter)
	}
	if num.Size() != den.Size() {
		return nil, fmt.Errorf("NewTwoFlavourRatio: %d vs %d: %w", num.Size(), den.Size(), ErrOperatorMismatch)
	}
	b, err := newBase("two-flavour-ratio", opts)
	if err != nil {
		return nil, err
	}

	return &TwoFlavourRatio{base: b, num: num, den: den}, nil
}

// Refresh samples φ = V(V†V)^{-1}M†η.
func (a *TwoFlavourRatio) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	eta := gaussian(a.den, r)
	src := make([]complex128, len(eta))
	a.den.Mdag(u, src, eta)
	y, err := a.solve(PhaseHeatbath, normal(a.num, u), a.sloppyNormal(a.num, u), src)
	if err != nil {
		return err
	}
	a.phi = make([]complex128, len(eta))
	a.num.M(u, a.phi, y)

	return nil
}

// vdagPhi returns V†φ at the current field.
func (a *TwoFlavourRatio) vdagPhi(u *lattice.GaugeField) []complex128 {
	psi := make([]complex128, len(a.phi))
	a.num.Mdag(u, psi, a.phi)

	return psi
}

// Energy implements Action.
func (a *TwoFlavourRatio) Energy(u *lattice.GaugeField) (float64, error) {
	if err := a.refreshed(); err != nil {
		return 0, err
	}
	psi := a.vdagPhi(u)
	x, err := a.solve(PhaseEnergy, normal(a.den, u), a.sloppyNormal(a.den, u), psi)
	if err != nil {
		return 0, err
	}

	return matrix.RealDot(psi, x), nil
}

// Force implements Action:
// dS = 2 Re(φ† dV X) − 2 Re((MX)† dM X) with X = (M†M)^{-1}V†φ.
func (a *TwoFlavourRatio) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	if err := a.refreshed(); err != nil {
		return err
	}
	x, err := a.solve(PhaseForce, normal(a.den, u), a.sloppyNormal(a.den, u), a.vdagPhi(u))
	if err != nil {
		return err
	}
	mx := make([]complex128, len(x))
	a.den.M(u, mx, x)
	dst.Zero()
	a.num.Deriv(u, dst, a.phi, x, 2)
	a.den.Deriv(u, dst, mx, x, -2)

	return nil
}
