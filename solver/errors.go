// SPDX-License-Identifier: MIT

package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrNonConvergence is matched by every *NonConvergenceError.
	ErrNonConvergence = errors.New("solver: no convergence within iteration cap")

	// ErrBadTolerance is returned when a tolerance is not in (0,1) or a cap is < 1.
	ErrBadTolerance = errors.New("solver: tolerance must be in (0,1) and iteration cap >= 1")

	// ErrShiftNegative is returned when a multi-shift solve receives σ < 0.
	ErrShiftNegative = errors.New("solver: shifts must be non-negative")

	// ErrNoShifts is returned when a multi-shift solve receives no shifts.
	ErrNoShifts = errors.New("solver: empty shift list")

	// ErrDimensionMismatch is returned when x and b differ in length.
	ErrDimensionMismatch = errors.New("solver: vector length mismatch")

	// ErrBreakdown is returned when p†A·p <= 0, i.e. the operator is not
	// positive definite on the Krylov space.
	ErrBreakdown = errors.New("solver: operator not positive definite")
)

// NonConvergenceError carries the diagnostics of a solve that hit its cap.
type NonConvergenceError struct {
	Iterations int     // iterations performed
	Residual   float64 // true relative residual at exit
}

// Error implements error.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("solver: no convergence after %d iterations (residual %.3e)", e.Iterations, e.Residual)
}

// Unwrap lets errors.Is match ErrNonConvergence.
func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }
