// SPDX-License-Identifier: MIT

// Package config is the YAML surface of a run. Load reads a file on top of
// Default, Validate checks it with struct tags plus cross-field rules, and
// Build turns it into a ready engine: lattice, RNG, action levels, integrator,
// checkpoint store and metrics.
//
// A minimal file:
//
//	lattice:
//	  dims: [8, 8]
//	levels:
//	  - multiplier: 1
//	    actions:
//	      - type: two-flavour
//	        mass: 0.2
//	        even_odd: true
//	  - multiplier: 4
//	    actions:
//	      - type: wilson-gauge
//	        beta: 2.0
//
// Level 0 is the outermost (coarsest) timescale; multipliers must not
// decrease with the level index.
package config
