// SPDX-License-Identifier: MIT

// Package solver implements the Krylov solvers used by the pseudofermion
// actions, all over hermitian positive-definite operators on []complex128:
//
//   - CG: Conjugate Gradient with a true-residual check. When the recursive
//     residual claims convergence but ‖b − A·x‖ does not, CG restarts from the
//     current iterate; restarts count against the same iteration cap.
//   - MultiShiftCG: solves (A + σ_i)·x_i = b for every shift from one Krylov
//     sequence (Jegerlehner recurrences on the smallest shift), freezing each
//     shift once converged and polishing drifted shifts with single-shift CG.
//   - MixedPrecisionCG: defect correction with a sloppy (single precision)
//     inner operator and an exact outer residual; the outer loop is bounded
//     by MaxRestarts and the total inner work by MaxIterations.
//   - Lanczos: extreme Ritz values for spectral-bound checks.
//
// Failure to reach the tolerance is reported as *NonConvergenceError, which
// matches ErrNonConvergence under errors.Is. Solvers never log and never
// retry with a relaxed tolerance; that policy belongs to the caller.
package solver
