// SPDX-License-Identifier: MIT

package rational

import "math"

// zolotarevCoefficients returns c_1..c_{2n−1} of Zolotarev's optimal
// approximation to y^{-1/2} on [1, b]:
//
//	c_l = sn²(lK'/2n | κ') / cn²(lK'/2n | κ'),   κ' = sqrt(1 − 1/b).
//
// The symmetry c_l·c_{2n−l} = b is used for l > n, where cn is tiny.
func zolotarevCoefficients(b float64, n int) []float64 {
	kp := 1 / math.Sqrt(b) // complementary modulus of κ'
	kk := ellipticK(kp)
	c := make([]float64, 2*n) // index 0 unused
	for l := 1; l <= n; l++ {
		sn, cn := jacobiSnCn(float64(l)*kk/float64(2*n), kp)
		c[l] = (sn * sn) / (cn * cn)
	}
	for l := n + 1; l < 2*n; l++ {
		c[l] = b / c[2*n-l]
	}

	return c
}

// zolotarevShifts returns the n positive shifts s_k (poles at −s_k) of the
// optimal x^{-1/2} approximation on [lo, hi], ascending.
func zolotarevShifts(lo, hi float64, n int) []float64 {
	c := zolotarevCoefficients(hi/lo, n)
	s := make([]float64, n)
	for l := 1; l <= n; l++ {
		s[l-1] = lo * c[2*l-1]
	}

	return s
}

// zolotarevZeros returns the n−1 numerator roots t_l (zeros at −t_l).
func zolotarevZeros(lo, hi float64, n int) []float64 {
	c := zolotarevCoefficients(hi/lo, n)
	t := make([]float64, n-1)
	for l := 1; l < n; l++ {
		t[l-1] = lo * c[2*l]
	}

	return t
}

// zolotarevResidues converts the product form D·Π(x+t_l)/Π(x+s_k) into
// partial fractions and fixes D so that the relative error of x^{-1/2}
// equioscillates about zero on grid.
func zolotarevResidues(shifts, zeros, grid []float64) []float64 {
	n := len(shifts)
	res := make([]float64, n)
	for k, sk := range shifts {
		num := 1.0
		for _, t := range zeros {
			num *= t - sk
		}
		den := 1.0
		for j, sj := range shifts {
			if j != k {
				den *= sj - sk
			}
		}
		res[k] = num / den
	}

	// normalise: g(x) = P(x)·sqrt(x) should straddle 1 symmetrically
	gmin, gmax := math.Inf(1), math.Inf(-1)
	for _, x := range grid {
		var p float64
		for k, sk := range shifts {
			p += res[k] / (x + sk)
		}
		g := p * math.Sqrt(x)
		gmin = math.Min(gmin, g)
		gmax = math.Max(gmax, g)
	}
	d := 2 / (gmax + gmin)
	for k := range res {
		res[k] *= d
	}

	return res
}
