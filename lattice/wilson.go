// SPDX-License-Identifier: MIT

package lattice

import (
	"fmt"
	"math/cmplx"

	"github.com/katalvlaran/latticehmc/matrix"
)

// Wilson is the Wilson-Dirac operator with U(1) links.
type Wilson struct {
	geom   *Geometry
	gb     *gammaBasis
	mass   float64
	diag   float64      // m + Nd
	phases []complex128 // boundary phase per direction
}

// WilsonOption configures a Wilson operator.
type WilsonOption func(*Wilson)

// WithBoundaryPhases sets the phase picked up by links that wrap around the
// lattice in each direction. NewWilson rejects a list whose length is not Nd.
func WithBoundaryPhases(ph ...complex128) WilsonOption {
	return func(w *Wilson) { w.phases = append([]complex128(nil), ph...) }
}

// WithAntiperiodicTime makes the last direction antiperiodic.
func WithAntiperiodicTime() WilsonOption {
	return func(w *Wilson) {
		if len(w.phases) > 0 {
			w.phases[len(w.phases)-1] = -1
		}
	}
}

// NewWilson builds the operator on g with bare mass m.
// Returns ErrUnsupportedNd or ErrBadPhases.
func NewWilson(g *Geometry, mass float64, opts ...WilsonOption) (*Wilson, error) {
	gb, err := newGammaBasis(g.Nd())
	if err != nil {
		return nil, fmt.Errorf("NewWilson: Nd=%d: %w", g.Nd(), err)
	}
	w := &Wilson{
		geom:   g,
		gb:     gb,
		mass:   mass,
		diag:   mass + float64(g.Nd()),
		phases: make([]complex128, g.Nd()),
	}
	for mu := range w.phases {
		w.phases[mu] = 1
	}
	for _, opt := range opts {
		opt(w)
	}
	if len(w.phases) != g.Nd() {
		return nil, fmt.Errorf("NewWilson: %d phases for Nd=%d: %w", len(w.phases), g.Nd(), ErrBadPhases)
	}

	return w, nil
}

// Size returns Volume·Ns.
func (w *Wilson) Size() int { return w.geom.volume * w.gb.ns }

// Ns returns the number of spin components per site.
func (w *Wilson) Ns() int { return w.gb.ns }

// Mass returns the bare mass.
func (w *Wilson) Mass() float64 { return w.mass }

// Geometry returns the lattice.
func (w *Wilson) Geometry() *Geometry { return w.geom }

// phasedLink returns U_mu(site) times the boundary phase when the link wraps.
func (w *Wilson) phasedLink(u *GaugeField, site, mu int) complex128 {
	l := cmplx.Rect(1, u.theta[w.geom.Link(site, mu)])
	if w.geom.coords[site][mu] == w.geom.dims[mu]-1 {
		l *= w.phases[mu]
	}

	return l
}

// hop writes dst = Σ_mu [(1 − sγ_mu) W_mu(x) src(x+mu) + (1 + sγ_mu) W_mu(x−mu)* src(x−mu)]
// where s = +1 for M and −1 for M†.
func (w *Wilson) hop(u *GaugeField, dst, src []complex128, sign float64) {
	var (
		ns         = w.gb.ns
		g          = w.geom
		site, mu   int
		nb, i      int
		link       complex128
		proj, accu [4]complex128
	)
	for site = 0; site < g.volume; site++ {
		accu = [4]complex128{}
		for mu = 0; mu < g.nd; mu++ {
			// forward neighbour
			nb = g.fwd[mu][site]
			link = w.phasedLink(u, site, mu)
			w.gb.project(mu, -sign, src[nb*ns:nb*ns+ns], proj[:ns])
			for i = 0; i < ns; i++ {
				accu[i] += link * proj[i]
			}
			// backward neighbour
			nb = g.bwd[mu][site]
			link = cmplx.Conj(w.phasedLink(u, nb, mu))
			w.gb.project(mu, sign, src[nb*ns:nb*ns+ns], proj[:ns])
			for i = 0; i < ns; i++ {
				accu[i] += link * proj[i]
			}
		}
		copy(dst[site*ns:site*ns+ns], accu[:ns])
	}
}

// M computes dst = M·src.
func (w *Wilson) M(u *GaugeField, dst, src []complex128) {
	w.hop(u, dst, src, +1)
	d := complex(w.diag, 0)
	for i := range dst {
		dst[i] = d*src[i] - 0.5*dst[i]
	}
}

// Mdag computes dst = M†·src.
func (w *Wilson) Mdag(u *GaugeField, dst, src []complex128) {
	w.hop(u, dst, src, -1)
	d := complex(w.diag, 0)
	for i := range dst {
		dst[i] = d*src[i] - 0.5*dst[i]
	}
}

// Deriv adds coeff·Re(L† ∂M/∂θ R). For link (x,mu) with W = U·phase:
//
//	∂M/∂θ contributes −½(1−γ_mu)(iW) from x+mu to x
//	and −½(1+γ_mu)(−iW*) from x to x+mu.
func (w *Wilson) Deriv(u *GaugeField, force *AlgebraField, left, right []complex128, coeff float64) {
	var (
		ns       = w.gb.ns
		g        = w.geom
		site, mu int
		nb       int
		link, t  complex128
		proj     [4]complex128
	)
	for site = 0; site < g.volume; site++ {
		for mu = 0; mu < g.nd; mu++ {
			nb = g.fwd[mu][site]
			link = w.phasedLink(u, site, mu)

			w.gb.project(mu, -1, right[nb*ns:nb*ns+ns], proj[:ns])
			t = -0.5i * link * matrix.Dot(left[site*ns:site*ns+ns], proj[:ns])

			w.gb.project(mu, +1, right[site*ns:site*ns+ns], proj[:ns])
			t += 0.5i * cmplx.Conj(link) * matrix.Dot(left[nb*ns:nb*ns+ns], proj[:ns])

			force.data[g.Link(site, mu)] += coeff * real(t)
		}
	}
}

// G5 writes out = γ5·in.
func (w *Wilson) G5(in, out []complex128) { w.gb.applyG5(in, out) }

// ChiralMinus writes out = ½(1 − γ5)·in.
func (w *Wilson) ChiralMinus(in, out []complex128) { w.gb.chiralMinus(in, out) }
