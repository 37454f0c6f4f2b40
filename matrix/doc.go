// SPDX-License-Identifier: MIT

// Package matrix provides the small linear-algebra layer shared by the solver,
// the rational approximation fitter and the lattice fields.
//
// The package provides:
//
//   - Dense, a row-major float64 matrix used for the (small) linear systems
//     solved by the Remez exchange and for Lanczos tridiagonal matrices.
//   - Complex vector kernels (Dot, Norm2, Axpy, Xpay, Scale, ...) over
//     []complex128, used by the Krylov solvers and the fermion actions.
//
// All kernels iterate in a fixed 0..n-1 order so results are bit-for-bit
// reproducible for a given input; nothing here spawns goroutines.
//
// See the ops subpackage for LU solves and symmetric eigen decomposition.
package matrix
