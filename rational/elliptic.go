// SPDX-License-Identifier: MIT

package rational

import "math"

// agmTol bounds the last AGM correction term.
const agmTol = 1e-16

// ellipticK returns the complete elliptic integral of the first kind K(k)
// given the complementary modulus kp = sqrt(1 − k²), via the AGM.
func ellipticK(kp float64) float64 {
	a, b := 1.0, kp
	for i := 0; i < 64 && math.Abs(a-b) > agmTol*a; i++ {
		a, b = (a+b)/2, math.Sqrt(a*b)
	}

	return math.Pi / (2 * a)
}

// jacobiSnCn returns sn(u|k) and cn(u|k) by the descending AGM (Abramowitz &
// Stegun 16.4), with the modulus given through its complement kp.
func jacobiSnCn(u, kp float64) (sn, cn float64) {
	var (
		a     = [65]float64{1}
		c     = [65]float64{}
		b     = kp
		n     int
		phi   float64
		k2    = (1 - kp) * (1 + kp)
		twoN  = 1.0
		limit = len(a) - 1
	)
	c[0] = math.Sqrt(k2)
	for n = 0; n < limit && math.Abs(c[n]) > agmTol; n++ {
		a[n+1] = (a[n] + b) / 2
		c[n+1] = (a[n] - b) / 2
		b = math.Sqrt(a[n] * b)
		twoN *= 2
	}
	phi = twoN * a[n] * u
	for ; n > 0; n-- {
		phi = (phi + math.Asin(c[n]*math.Sin(phi)/a[n])) / 2
	}

	return math.Sin(phi), math.Cos(phi)
}
