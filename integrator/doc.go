// SPDX-License-Identifier: MIT

// Package integrator implements the molecular-dynamics part of an HMC
// trajectory: a state machine that refreshes the momenta and pseudofermions,
// then evolves (P, θ) with a nested symplectic scheme driven by an
// action.Set.
//
// States:
//
//	Idle → MomentumRefreshed → Integrating → Completed
//
// Refresh is legal from Idle and Completed, Integrate only from
// MomentumRefreshed, Reverse only from Completed. Anything else returns
// ErrInvalidState. An error during integration aborts the trajectory and
// returns the integrator to Idle.
//
// Schemes (per level, nested so that level k runs Multiplier_k inner steps
// per step of level k−1; the trailing momentum kick of one step is merged
// with the leading kick of the next):
//
//   - LeapFrog: P(ε/2) Q(ε) P(ε/2).
//   - MinimumNorm2: P(λε) Q(ε/2) P((1−2λ)ε) Q(ε/2) P(λε), λ = 0.1931833275037836.
//   - ForceGradient: as MinimumNorm2 with λ = 1/6 and the middle kick evaluated
//     at the displaced field θ − (ε²/24)·F.
//
// Update-P evaluates the forces of one level concurrently (errgroup) and sums
// them in action order, so results do not depend on scheduling.
package integrator
