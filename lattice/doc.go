// SPDX-License-Identifier: MIT

// Package lattice is the field layer of the HMC engine: a periodic
// d-dimensional hypercubic lattice carrying a compact U(1) gauge field,
// real Lie-algebra (momentum/force) fields and complex spinor fields.
//
// Layout:
//
//   - Sites are numbered lexicographically with coordinate 0 running fastest.
//   - Links are addressed as site*Nd + mu.
//   - A link is stored as its angle θ; the group element is U = e^{iθ}, the
//     algebra element is a real number and Update-Q is θ ← θ + ε·P.
//   - Spinors store Ns components per site (Ns = 2 for Nd = 2, Ns = 4 for
//     Nd = 4) at index site*Ns + s.
//
// Fermion discretisation:
//
//   - Wilson is the Wilson-Dirac operator
//     M = (m + Nd) − ½ Σ_μ [(1−γ_μ) U_μ(x) ψ(x+μ) + (1+γ_μ) U_μ†(x−μ) ψ(x−μ)]
//     with optional per-direction boundary phases (antiperiodic time).
//   - Schur is its even-odd preconditioned form on odd sites,
//     M̂ = a − H_oe H_eo / a, with a = m + Nd and H the half-hopping term.
//   - Sloppy rounds a wrapped operator through single precision; it is the
//     inner operator of mixed-precision solves.
//
// Every operator exposes Deriv, which accumulates Re(L† ∂M/∂θ R) per link;
// pseudofermion forces are built from it.
//
// Concurrency: fields are plain slices. Readers may share a field; a writer
// must own it exclusively (the integrator guarantees this).
package lattice
