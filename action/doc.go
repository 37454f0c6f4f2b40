// SPDX-License-Identifier: MIT

// Package action defines the Action capability consumed by the integrator
// and its variants:
//
//   - WilsonGauge: β Σ_p (1 − cos θ_p), no solves.
//   - TwoFlavour: φ†(M†M)^{-1}φ.
//   - TwoFlavourRatio: φ†V(M†M)^{-1}V†φ (Hasenbusch / Pauli-Villars).
//   - OneFlavourRational: φ† r_{-1/2}(M†M) φ through one multi-shift solve.
//   - OneFlavourRatioRational: ψ† r_{-1/2}(M†M) ψ with ψ = r_{1/4}(V†V) φ.
//   - ExactOneFlavourRatio: det(H_L)/det(H_R) with H_R = H_L + Δ·Ω on an
//     even-odd preconditioned operator.
//   - Smeared: decorator evaluating any action on a smeared field and
//     pulling its force back through the smearing.
//
// Force writes dS/dθ; the integrator subtracts ε·Force from the momenta.
//
// Solver policy: energy solves (Metropolis) use ActionTolerance and never
// retry. Force solves use ForceTolerance and, on ErrNonConvergence, retry
// once with the tolerance relaxed by RelaxFactor. Heat-bath solves use
// HeatbathTolerance and never retry.
//
// Levels group actions by time scale. A Set validates at construction that
// every multiplier is >= 1 and that multipliers never decrease with the level
// index (ErrActionLevelOrdering).
package action
