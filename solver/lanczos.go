// SPDX-License-Identifier: MIT

package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/matrix/ops"
)

// ErrEmptyStart is returned when Lanczos receives a zero start vector.
var ErrEmptyStart = errors.New("solver: Lanczos start vector is zero")

// Bounds are extreme Ritz values of a hermitian operator. They converge to
// the true extreme eigenvalues from inside the spectrum.
type Bounds struct {
	Lo, Hi float64
	Steps  int
}

// Lanczos runs up to steps Lanczos iterations from start (not modified) and
// returns the extreme eigenvalues of the tridiagonal matrix, computed with
// ops.Eigen. The recursion stops early on an invariant subspace.
// Complexity: O(steps·cost(A) + steps³).
func Lanczos(op LinearOperator, start []complex128, steps int) (Bounds, error) {
	// Stage 1: Validate
	if steps < 1 {
		return Bounds{}, fmt.Errorf("Lanczos: steps=%d: %w", steps, ErrBadTolerance)
	}
	nrm := matrix.Norm(start)
	if nrm == 0 {
		return Bounds{}, ErrEmptyStart
	}

	// Stage 2: Three-term recursion with full re-orthogonalisation
	var (
		n     = len(start)
		basis = make([][]complex128, 0, steps)
		v     = matrix.CloneVec(start)
		w     = make([]complex128, n)
		alpha []float64
		beta  []float64
	)
	matrix.Scale(1/nrm, v)
	for k := 0; k < steps; k++ {
		basis = append(basis, v)
		op.Apply(w, v)
		a := matrix.RealDot(v, w)
		alpha = append(alpha, a)
		for _, q := range basis {
			matrix.Axpy(-matrix.Dot(q, w), q, w)
		}
		b := matrix.Norm(w)
		if k == steps-1 || b <= 1e-12*math.Abs(a) {
			break
		}
		beta = append(beta, b)
		v = matrix.CloneVec(w)
		matrix.Scale(1/b, v)
	}

	// Stage 3: Ritz values
	t, err := matrix.NewSymTridiagonal(alpha, beta)
	if err != nil {
		return Bounds{}, fmt.Errorf("Lanczos: %w", err)
	}
	vals, _, err := ops.Eigen(t, 1e-14*(1+math.Abs(alpha[0])), 100*len(alpha)*len(alpha)+100)
	if err != nil {
		return Bounds{}, fmt.Errorf("Lanczos: %w", err)
	}

	return Bounds{Lo: vals[0], Hi: vals[len(vals)-1], Steps: len(alpha)}, nil
}
