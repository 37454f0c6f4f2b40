// SPDX-License-Identifier: MIT

package solver

import "fmt"

// LinearOperator applies a hermitian positive-definite operator.
// dst and src never alias.
type LinearOperator interface {
	Apply(dst, src []complex128)
}

// OperatorFunc adapts a function to LinearOperator.
type OperatorFunc func(dst, src []complex128)

// Apply calls f.
func (f OperatorFunc) Apply(dst, src []complex128) { f(dst, src) }

// Shifted returns the operator A + sigma.
func Shifted(a LinearOperator, sigma float64) LinearOperator {
	if sigma == 0 {
		return a
	}
	s := complex(sigma, 0)

	return OperatorFunc(func(dst, src []complex128) {
		a.Apply(dst, src)
		for i := range dst {
			dst[i] += s * src[i]
		}
	})
}

// Stats reports the diagnostics of one solve.
type Stats struct {
	Iterations int     // operator applications in the Krylov loop(s)
	Residual   float64 // true relative residual ‖b − A·x‖/‖b‖ (max over shifts)
	Restarts   int     // true-residual restarts, polishes or outer corrections
}

// Solver solves A·x = b; x holds the initial guess on entry.
type Solver interface {
	Solve(op LinearOperator, x, b []complex128) (Stats, error)
}

// validate checks the common tolerance/cap contract.
func validate(tol float64, maxIter int) error {
	if !(tol > 0 && tol < 1) || maxIter < 1 {
		return fmt.Errorf("tolerance %g, cap %d: %w", tol, maxIter, ErrBadTolerance)
	}

	return nil
}
