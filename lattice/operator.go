// SPDX-License-Identifier: MIT

package lattice

// FermionOperator is a gauge-field dependent linear operator on spinor
// fields. Implementations are stateless with respect to the gauge field, so
// the same operator can be applied to a fundamental or a smeared field.
//
// dst and src must not alias.
type FermionOperator interface {
	// Size returns the length of the spinor vectors the operator acts on.
	Size() int

	// M computes dst = M[u]·src.
	M(u *GaugeField, dst, src []complex128)

	// Mdag computes dst = M[u]†·src.
	Mdag(u *GaugeField, dst, src []complex128)

	// Deriv adds coeff·Re(left† ∂M/∂θ_l right) to force on every link l.
	Deriv(u *GaugeField, force *AlgebraField, left, right []complex128, coeff float64)
}

// Projector is implemented by operators acting on a subspace (e.g. odd
// sites); Project zeroes the complement in place.
type Projector interface {
	Project(v []complex128)
}

// ChiralOperator exposes the chiral projector Ω = ½(1 − γ5) on the operator's
// spinor space.
type ChiralOperator interface {
	FermionOperator
	ChiralMinus(in, out []complex128)
}
