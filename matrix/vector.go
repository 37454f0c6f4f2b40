// SPDX-License-Identifier: MIT

// Package matrix: complex vector kernels shared by the fermion fields and the
// Krylov solvers. All reductions run sequentially in index order so results
// are bit-reproducible for a fixed input.
package matrix

import "math"

// Dot returns the hermitian inner product a†b = Σ conj(a_i)·b_i.
// Panics if the lengths differ (programmer error in a hot path).
// Complexity: O(n).
func Dot(a, b []complex128) complex128 {
	if len(a) != len(b) {
		panic("matrix.Dot: length mismatch")
	}
	var re, im float64
	var i int
	for i = range a {
		ar, ai := real(a[i]), imag(a[i])
		br, bi := real(b[i]), imag(b[i])
		re += ar*br + ai*bi
		im += ar*bi - ai*br
	}

	return complex(re, im)
}

// RealDot returns Re(a†b).
// Complexity: O(n).
func RealDot(a, b []complex128) float64 {
	if len(a) != len(b) {
		panic("matrix.RealDot: length mismatch")
	}
	var sum float64
	var i int
	for i = range a {
		sum += real(a[i])*real(b[i]) + imag(a[i])*imag(b[i])
	}

	return sum
}

// Norm2 returns ‖a‖² = a†a.
// Complexity: O(n).
func Norm2(a []complex128) float64 {
	var sum float64
	var i int
	for i = range a {
		sum += real(a[i])*real(a[i]) + imag(a[i])*imag(a[i])
	}

	return sum
}

// Norm returns ‖a‖.
func Norm(a []complex128) float64 {
	return math.Sqrt(Norm2(a))
}

// Axpy computes y += alpha·x in place.
// Complexity: O(n).
func Axpy(alpha complex128, x, y []complex128) {
	if len(x) != len(y) {
		panic("matrix.Axpy: length mismatch")
	}
	for i := range x {
		y[i] += alpha * x[i]
	}
}

// AxpyReal computes y += alpha·x in place for a real coefficient.
func AxpyReal(alpha float64, x, y []complex128) {
	if len(x) != len(y) {
		panic("matrix.AxpyReal: length mismatch")
	}
	for i := range x {
		y[i] += complex(alpha*real(x[i]), alpha*imag(x[i]))
	}
}

// Xpay computes y = x + beta·y in place (CG search-direction update).
// Complexity: O(n).
func Xpay(x []complex128, beta float64, y []complex128) {
	if len(x) != len(y) {
		panic("matrix.Xpay: length mismatch")
	}
	for i := range x {
		y[i] = x[i] + complex(beta*real(y[i]), beta*imag(y[i]))
	}
}

// Scale multiplies x by the real factor s in place.
func Scale(s float64, x []complex128) {
	for i := range x {
		x[i] = complex(s*real(x[i]), s*imag(x[i]))
	}
}

// Sub stores a − b into dst. dst may alias a or b.
func Sub(dst, a, b []complex128) {
	if len(a) != len(b) || len(dst) != len(a) {
		panic("matrix.Sub: length mismatch")
	}
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// Zero clears x.
func Zero(x []complex128) {
	for i := range x {
		x[i] = 0
	}
}

// CloneVec returns a fresh copy of x.
func CloneVec(x []complex128) []complex128 {
	out := make([]complex128, len(x))
	copy(out, x)

	return out
}

// RoundComplex64 rounds every component of x to single precision in place.
// Used by sloppy operators in mixed-precision solves.
func RoundComplex64(x []complex128) {
	for i := range x {
		x[i] = complex128(complex64(x[i]))
	}
}

// HasNaNInf reports whether any component of x is NaN or ±Inf.
func HasNaNInf(x []complex128) bool {
	for _, v := range x {
		if math.IsNaN(real(v)) || math.IsNaN(imag(v)) || math.IsInf(real(v), 0) || math.IsInf(imag(v), 0) {
			return true
		}
	}

	return false
}
