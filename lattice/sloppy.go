// SPDX-License-Identifier: MIT

package lattice

import "github.com/katalvlaran/latticehmc/matrix"

// Sloppy applies a wrapped operator in single precision: inputs and outputs
// are rounded through complex64. It is the inner operator of
// mixed-precision solves.
type Sloppy struct {
	Op FermionOperator
}

// NewSloppy wraps op.
func NewSloppy(op FermionOperator) *Sloppy { return &Sloppy{Op: op} }

// Size forwards to the wrapped operator.
func (s *Sloppy) Size() int { return s.Op.Size() }

// M computes dst ≈ M·src in single precision.
func (s *Sloppy) M(u *GaugeField, dst, src []complex128) {
	in := matrix.CloneVec(src)
	matrix.RoundComplex64(in)
	s.Op.M(u, dst, in)
	matrix.RoundComplex64(dst)
}

// Mdag computes dst ≈ M†·src in single precision.
func (s *Sloppy) Mdag(u *GaugeField, dst, src []complex128) {
	in := matrix.CloneVec(src)
	matrix.RoundComplex64(in)
	s.Op.Mdag(u, dst, in)
	matrix.RoundComplex64(dst)
}

// Deriv forwards in full precision; forces are never computed sloppily.
func (s *Sloppy) Deriv(u *GaugeField, force *AlgebraField, left, right []complex128, coeff float64) {
	s.Op.Deriv(u, force, left, right, coeff)
}

// Project forwards when the wrapped operator acts on a subspace.
func (s *Sloppy) Project(v []complex128) {
	if p, ok := s.Op.(Projector); ok {
		p.Project(v)
	}
}
