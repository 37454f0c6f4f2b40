// SPDX-License-Identifier: MIT

// Package hmc runs the Markov chain: for each trajectory it snapshots the
// gauge field, drives the integrator through one trajectory, applies the
// Metropolis test on ΔH = H_final − H_initial and restores the snapshot on
// rejection.
//
// A NaN or infinite ΔH aborts the run with ErrInvalidHamiltonian; it signals
// solver divergence and is never silently accepted or rejected.
//
// The chain is strictly sequential. Run checks its context only between
// trajectories, so a cancelled run always stops on a completed trajectory and
// the last checkpoint is a valid restart point. A checkpoint stores the gauge
// field and the serialised RNG state, which makes a restart reproduce the
// uninterrupted run exactly.
package hmc
