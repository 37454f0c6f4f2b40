// Package latticehmc is a Hybrid Monte Carlo engine for U(1) lattice gauge
// theory with dynamical Wilson fermions.
//
// What is inside?
//
//	A pure-Go, reproducible HMC stack:
//		• Lattice fields: periodic d-dimensional geometry, U(1) links, algebra momenta
//		• Fermion operators: Wilson-Dirac, even-odd Schur complement, sloppy variant
//		• Solvers: CG, multi-shift CG, mixed-precision CG, Lanczos spectral bounds
//		• Rational approximations: Zolotarev poles with Remez residues
//		• Actions: Wilson gauge, two-flavour (+ ratio), rational one-flavour (+ ratio), EOFA
//		• Integrators: leapfrog, minimum-norm 2, force-gradient on nested timescales
//		• Engine: Metropolis chain, checkpoint/restart, Prometheus metrics
//
// Layout, leaves first:
//
//	matrix/        dense float64 matrix + complex vector kernels
//	matrix/ops/    pivoted LU solve, Jacobi symmetric eigen
//	rng/           serial/parallel random streams with binary state
//	lattice/       geometry, gauge/algebra fields, Wilson operators
//	solver/        Krylov solvers and Lanczos bounds
//	rational/      partial-fraction approximations of x^γ and their cache
//	smear/         stout smearing with chain-rule pullback
//	action/        actions, smeared decorator, multi-level action sets
//	integrator/    trajectory state machine and MD schemes
//	hmc/           Metropolis engine, observables, metrics
//	checkpoint/    badger and file stores for configurations + RNG state
//	config/        YAML run description and builder
//	cmd/lathmc/    command-line front end
//
// Quick start:
//
//	lathmc run --config run.yaml --metrics-addr :9090
//	lathmc inspect --store ckpoint
//	lathmc rational --lo 1e-3 --hi 64 --power -0.5 --degree 12
package latticehmc
