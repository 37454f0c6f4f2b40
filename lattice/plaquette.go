// SPDX-License-Identifier: MIT

package lattice

import "math"

// plaqSigns are the orientations of the four links around a plaquette:
// θ_p = θ_mu(x) + θ_nu(x+mu) − θ_mu(x+nu) − θ_nu(x).
var plaqSigns = [4]float64{+1, +1, -1, -1}

// plaquetteLinks returns the flat link indices of the (mu,nu) plaquette at site.
func (u *GaugeField) plaquetteLinks(site, mu, nu int) [4]int {
	g := u.geom

	return [4]int{
		g.Link(site, mu),
		g.Link(g.Fwd(site, mu), nu),
		g.Link(g.Fwd(site, nu), mu),
		g.Link(site, nu),
	}
}

// PlaquetteAngle returns θ_p for the (mu,nu) plaquette at site, mu < nu.
func (u *GaugeField) PlaquetteAngle(site, mu, nu int) float64 {
	l := u.plaquetteLinks(site, mu, nu)

	return u.theta[l[0]] + u.theta[l[1]] - u.theta[l[2]] - u.theta[l[3]]
}

// forEachPlaquette visits every oriented plaquette (mu < nu) in site order.
func (u *GaugeField) forEachPlaquette(fn func(links [4]int, theta float64)) {
	g := u.geom
	var site, mu, nu int
	for site = 0; site < g.volume; site++ {
		for mu = 0; mu < g.nd; mu++ {
			for nu = mu + 1; nu < g.nd; nu++ {
				l := u.plaquetteLinks(site, mu, nu)
				fn(l, u.theta[l[0]]+u.theta[l[1]]-u.theta[l[2]]-u.theta[l[3]])
			}
		}
	}
}

// NumPlaquettes returns V·Nd(Nd−1)/2.
func (g *Geometry) NumPlaquettes() int { return g.volume * g.nd * (g.nd - 1) / 2 }

// PlaquetteAction returns Σ_p (1 − cos θ_p).
func (u *GaugeField) PlaquetteAction() float64 {
	var s float64
	u.forEachPlaquette(func(_ [4]int, th float64) { s += 1 - math.Cos(th) })

	return s
}

// AveragePlaquette returns the mean of cos θ_p; 1 on a cold start.
func (u *GaugeField) AveragePlaquette() float64 {
	n := u.geom.NumPlaquettes()
	if n == 0 {
		return 1
	}
	var s float64
	u.forEachPlaquette(func(_ [4]int, th float64) { s += math.Cos(th) })

	return s / float64(n)
}

// AddPlaquetteGradient adds coeff·∂/∂θ Σ_p (1 − cos θ_p) into dst.
// Complexity: O(V·Nd²).
func (u *GaugeField) AddPlaquetteGradient(coeff float64, dst *AlgebraField) {
	u.forEachPlaquette(func(l [4]int, th float64) {
		s := coeff * math.Sin(th)
		for k := 0; k < 4; k++ {
			dst.data[l[k]] += plaqSigns[k] * s
		}
	})
}

// AddPlaquetteHessian adds coeff·H·v into dst, where H is the Hessian of
// Σ_p (1 − cos θ_p): H·v = Σ_p cos θ_p (∂θ_p·v) ∂θ_p.
func (u *GaugeField) AddPlaquetteHessian(coeff float64, v, dst *AlgebraField) {
	u.forEachPlaquette(func(l [4]int, th float64) {
		var dv float64
		for k := 0; k < 4; k++ {
			dv += plaqSigns[k] * v.data[l[k]]
		}
		s := coeff * math.Cos(th) * dv
		for k := 0; k < 4; k++ {
			dst.data[l[k]] += plaqSigns[k] * s
		}
	})
}

// TopologicalCharge returns the geometric charge Q = (1/2π) Σ_x arg(U_01(x))
// with arg in (−π, π]. Defined for Nd = 2 only; other Nd return 0.
func (u *GaugeField) TopologicalCharge() float64 {
	if u.geom.nd != 2 {
		return 0
	}
	var q float64
	u.forEachPlaquette(func(_ [4]int, th float64) { q += wrapAngle(th) })

	return q / (2 * math.Pi)
}

// wrapAngle maps th into (−π, π].
func wrapAngle(th float64) float64 {
	w := math.Mod(th+math.Pi, 2*math.Pi)
	if w <= 0 {
		w += 2 * math.Pi
	}

	return w - math.Pi
}
