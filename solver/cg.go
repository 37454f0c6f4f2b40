// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
)

// Default solver parameters.
const (
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 10000
	DefaultMaxRestarts   = 20
)

// CG is the Conjugate Gradient solver.
type CG struct {
	Tolerance     float64 // relative residual target
	MaxIterations int     // cap on operator applications inside the loop
}

// NewCG returns CG with the given tolerance and cap.
func NewCG(tol float64, maxIter int) CG {
	return CG{Tolerance: tol, MaxIterations: maxIter}
}

// Solve runs CG from the initial guess in x. On return x holds the solution
// or, on *NonConvergenceError, the last iterate.
// Complexity: O(iterations · cost(A)).
func (c CG) Solve(op LinearOperator, x, b []complex128) (Stats, error) {
	// Stage 1: Validate
	if err := validate(c.Tolerance, c.MaxIterations); err != nil {
		return Stats{}, fmt.Errorf("CG: %w", err)
	}
	if len(x) != len(b) {
		return Stats{}, fmt.Errorf("CG: len(x)=%d len(b)=%d: %w", len(x), len(b), ErrDimensionMismatch)
	}
	bb := matrix.Norm2(b)
	if bb == 0 {
		matrix.Zero(x)
		return Stats{}, nil
	}

	// Stage 2: Prepare r = b − A·x, p = r
	var (
		n      = len(b)
		r      = make([]complex128, n)
		p      = make([]complex128, n)
		ap     = make([]complex128, n)
		target = c.Tolerance * c.Tolerance * bb
		st     Stats
	)
	trueResidual := func() float64 {
		op.Apply(ap, x)
		matrix.Sub(r, b, ap)
		return matrix.Norm2(r)
	}
	rr := trueResidual()
	copy(p, r)

	// Stage 3: Iterate with true-residual restarts
	var alpha, beta, pap, rrNew float64
	for {
		if rr <= target {
			rr = trueResidual()
			if rr <= target {
				st.Residual = math.Sqrt(rr / bb)
				return st, nil
			}
			st.Restarts++
			copy(p, r)
		}
		if st.Iterations >= c.MaxIterations {
			st.Residual = math.Sqrt(trueResidual() / bb)
			return st, &NonConvergenceError{Iterations: st.Iterations, Residual: st.Residual}
		}

		op.Apply(ap, p)
		st.Iterations++
		pap = matrix.RealDot(p, ap)
		if !(pap > 0) {
			st.Residual = math.Sqrt(trueResidual() / bb)
			return st, fmt.Errorf("CG: iteration %d: p†Ap=%g: %w", st.Iterations, pap, ErrBreakdown)
		}
		alpha = rr / pap
		matrix.AxpyReal(alpha, p, x)
		matrix.AxpyReal(-alpha, ap, r)
		rrNew = matrix.Norm2(r)
		beta = rrNew / rr
		matrix.Xpay(r, beta, p)
		rr = rrNew
	}
}
