// SPDX-License-Identifier: MIT

// Package rational computes partial-fraction approximations
//
//	r(x) = a0 + Σ_k r_k / (x + s_k) ≈ x^γ,   x ∈ [Lo, Hi],
//
// used to apply fractional powers of M†M through one multi-shift solve.
//
// Construction:
//
//   - Shifts s_k are the poles of Zolotarev's optimal approximation to
//     x^{-1/2} on [Lo, Hi], computed from Jacobi elliptic functions.
//   - Residues (and a0 for negative powers) come from a linear Remez
//     exchange minimising max |r(x)/x^γ − 1| over a dense logarithmic grid.
//   - Positive powers use x^γ = x · x^{γ−1}: a strictly proper fit of
//     x^{γ−1} is multiplied out, giving a0 = Σ r_k and residues −r_k·s_k.
//
// Every fit is verified on a dense grid; MaxError is the achieved relative
// error. Evaluation outside [Lo, Hi] fails with ErrApproximationOutOfRange:
// the only recovery is Refit with wider bounds.
package rational
