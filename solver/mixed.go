// SPDX-License-Identifier: MIT

package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
)

// DefaultInnerTolerance is the floor on the inner (sloppy) tolerance; single
// precision cannot resolve residuals much below it.
const DefaultInnerTolerance = 1e-5

// MixedPrecisionCG is defect-correction CG: the correction d with
// Sloppy·d ≈ r is solved in reduced precision, accumulated into x in double
// precision, and the residual r = b − A·x is recomputed exactly.
type MixedPrecisionCG struct {
	Tolerance      float64        // outer relative residual target
	MaxIterations  int            // cap on the total number of inner iterations
	InnerTolerance float64        // inner target; raised to at least Tolerance
	MaxRestarts    int            // cap on outer corrections
	Sloppy         LinearOperator // reduced-precision approximation of A
}

// Solve implements Solver. op is the exact operator.
func (m MixedPrecisionCG) Solve(op LinearOperator, x, b []complex128) (Stats, error) {
	// Stage 1: Validate
	if err := validate(m.Tolerance, m.MaxIterations); err != nil {
		return Stats{}, fmt.Errorf("MixedPrecisionCG: %w", err)
	}
	if len(x) != len(b) {
		return Stats{}, fmt.Errorf("MixedPrecisionCG: %w", ErrDimensionMismatch)
	}
	sloppy := m.Sloppy
	if sloppy == nil {
		sloppy = op
	}
	restarts := m.MaxRestarts
	if restarts < 1 {
		restarts = DefaultMaxRestarts
	}
	inner := math.Max(m.InnerTolerance, m.Tolerance)
	if inner >= 1 || inner <= 0 {
		inner = math.Max(DefaultInnerTolerance, m.Tolerance)
	}
	bb := matrix.Norm2(b)
	if bb == 0 {
		matrix.Zero(x)
		return Stats{}, nil
	}

	// Stage 2: Outer defect-correction loop
	var (
		n  = len(b)
		r  = make([]complex128, n)
		d  = make([]complex128, n)
		st Stats
	)
	for {
		st.Residual = trueRelResidual(op, x, b, r, bb)
		if st.Residual <= m.Tolerance {
			return st, nil
		}
		if st.Restarts >= restarts || st.Iterations >= m.MaxIterations {
			return st, &NonConvergenceError{Iterations: st.Iterations, Residual: st.Residual}
		}

		// Stage 3: Inner sloppy solve for the correction
		matrix.Zero(d)
		ist, err := NewCG(inner, m.MaxIterations-st.Iterations).Solve(sloppy, d, r)
		st.Iterations += ist.Iterations
		st.Restarts++
		if err != nil && !errors.Is(err, ErrNonConvergence) {
			return st, fmt.Errorf("MixedPrecisionCG: inner: %w", err)
		}
		matrix.AxpyReal(1, d, x)
	}
}
