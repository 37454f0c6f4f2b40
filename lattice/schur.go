// SPDX-License-Identifier: MIT

package lattice

import "fmt"

// Schur is the even-odd preconditioned Wilson operator acting on odd sites:
//
//	M̂ = a − H_oe·H_eo / a,   a = m + Nd,   H = ½·hop.
//
// Vectors keep full lattice length; even-site components are zero.
type Schur struct {
	w   *Wilson
	a   float64
	odd []bool
}

// NewSchur builds the preconditioned operator. Returns ErrOddExtent when some
// extent is odd, plus the NewWilson errors.
func NewSchur(g *Geometry, mass float64, opts ...WilsonOption) (*Schur, error) {
	if !g.EvenExtents() {
		return nil, fmt.Errorf("NewSchur: %s: %w", g, ErrOddExtent)
	}
	w, err := NewWilson(g, mass, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewSchur: %w", err)
	}
	s := &Schur{w: w, a: w.diag, odd: make([]bool, g.volume)}
	for site := range s.odd {
		s.odd[site] = g.Parity(site) == 1
	}

	return s, nil
}

// Size returns the full spinor length; only odd sites carry data.
func (s *Schur) Size() int { return s.w.Size() }

// Wilson returns the unpreconditioned operator.
func (s *Schur) Wilson() *Wilson { return s.w }

// Project zeroes the even-site components of v.
func (s *Schur) Project(v []complex128) { s.mask(v, true) }

// mask zeroes odd sites when keepOdd is false and even sites otherwise.
func (s *Schur) mask(v []complex128, keepOdd bool) {
	ns := s.w.gb.ns
	for site, odd := range s.odd {
		if odd != keepOdd {
			for i := site * ns; i < site*ns+ns; i++ {
				v[i] = 0
			}
		}
	}
}

// halfHop writes dst = P_to·½·hop(P_from·src), with sign as in Wilson.hop.
func (s *Schur) halfHop(u *GaugeField, dst, src []complex128, sign float64, toOdd bool) {
	s.w.hop(u, dst, src, sign)
	for i := range dst {
		dst[i] *= 0.5
	}
	s.mask(dst, toOdd)
}

func (s *Schur) apply(u *GaugeField, dst, src []complex128, sign float64) {
	in := make([]complex128, len(src))
	copy(in, src)
	s.mask(in, true)
	tmp := make([]complex128, len(src))
	s.halfHop(u, tmp, in, sign, false)
	s.halfHop(u, dst, tmp, sign, true)
	inv := complex(1/s.a, 0)
	a := complex(s.a, 0)
	for i := range dst {
		dst[i] = a*in[i] - inv*dst[i]
	}
}

// M computes dst = M̂·src.
func (s *Schur) M(u *GaugeField, dst, src []complex128) { s.apply(u, dst, src, +1) }

// Mdag computes dst = M̂†·src.
func (s *Schur) Mdag(u *GaugeField, dst, src []complex128) { s.apply(u, dst, src, -1) }

// Deriv adds coeff·Re(L† ∂M̂/∂θ R) using
// ∂M̂ = −(∂H·P_e·H + H·P_e·∂H)/a and ∂M_wilson = −∂H.
func (s *Schur) Deriv(u *GaugeField, force *AlgebraField, left, right []complex128, coeff float64) {
	l := make([]complex128, len(left))
	r := make([]complex128, len(right))
	copy(l, left)
	copy(r, right)
	s.mask(l, true)
	s.mask(r, true)

	hr := make([]complex128, len(right))
	s.halfHop(u, hr, r, +1, false)
	hl := make([]complex128, len(left))
	s.halfHop(u, hl, l, -1, false)

	c := coeff / s.a
	s.w.Deriv(u, force, l, hr, c)
	s.w.Deriv(u, force, hl, r, c)
}

// ChiralMinus writes out = ½(1 − γ5)·in.
func (s *Schur) ChiralMinus(in, out []complex128) { s.w.ChiralMinus(in, out) }
