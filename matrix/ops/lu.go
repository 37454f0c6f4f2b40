// Package ops provides advanced matrix operations for the latticehmc/matrix package.
package ops

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
)

// ErrSingular is returned when a pivot vanishes during LU factorisation.
var ErrSingular = errors.New("ops: matrix is singular")

// LU performs Doolittle LU decomposition with partial pivoting on a square
// matrix m: P·m = L·U. It returns L (unit lower triangular), U (upper
// triangular) and the row permutation perm, where row i of P·m is row perm[i]
// of m.
// Returns ErrNonSquare or ErrSingular.
// Time Complexity: O(n³), where n = m.Rows(); Memory: O(n²) for L and U.
func LU(m matrix.Matrix) (matrix.Matrix, matrix.Matrix, []int, error) {
	// Stage 1: Validate input is square
	rows, cols := m.Rows(), m.Cols()
	if rows != cols {
		return nil, nil, nil, fmt.Errorf("LU: non-square matrix %dx%d: %w", rows, cols, matrix.ErrNonSquare)
	}
	n := rows

	// Stage 2: Prepare working copy and permutation
	var (
		a    = make([][]float64, n) // working rows, permuted in place
		perm = make([]int, n)
		i, j int
		v    float64
	)
	for i = 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j = 0; j < n; j++ {
			v, _ = m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, nil, fmt.Errorf("LU: entry (%d,%d): %w", i, j, matrix.ErrNaNInf)
			}
			a[i][j] = v
		}
		perm[i] = i
	}

	// Stage 3: Execute elimination with partial pivoting
	var (
		k, piv   int
		best, lf float64
	)
	for k = 0; k < n; k++ {
		piv, best = k, math.Abs(a[k][k])
		for i = k + 1; i < n; i++ {
			if math.Abs(a[i][k]) > best {
				piv, best = i, math.Abs(a[i][k])
			}
		}
		if best == 0 {
			return nil, nil, nil, fmt.Errorf("LU: zero pivot in column %d: %w", k, ErrSingular)
		}
		if piv != k {
			a[k], a[piv] = a[piv], a[k]
			perm[k], perm[piv] = perm[piv], perm[k]
		}
		for i = k + 1; i < n; i++ {
			lf = a[i][k] / a[k][k]
			a[i][k] = lf // store multiplier in the strictly-lower part
			for j = k + 1; j < n; j++ {
				a[i][j] -= lf * a[k][j]
			}
		}
	}

	// Stage 4: Split into L and U
	L, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("LU: %w", err)
	}
	U, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("LU: %w", err)
	}
	for i = 0; i < n; i++ {
		_ = L.Set(i, i, 1)
		for j = 0; j < n; j++ {
			if j < i {
				_ = L.Set(i, j, a[i][j])
			} else {
				_ = U.Set(i, j, a[i][j])
			}
		}
	}

	return L, U, perm, nil
}

// Solve returns x with m·x = b using LU with partial pivoting.
// Returns ErrNonSquare, ErrDimensionMismatch or ErrSingular.
// Complexity: O(n³).
func Solve(m matrix.Matrix, b []float64) ([]float64, error) {
	if m.Rows() != len(b) {
		return nil, fmt.Errorf("Solve: %d rows, rhs %d: %w", m.Rows(), len(b), matrix.ErrDimensionMismatch)
	}
	L, U, perm, err := LU(m)
	if err != nil {
		return nil, fmt.Errorf("Solve: %w", err)
	}
	n := len(b)
	var (
		i, j   int
		sum, v float64
		y      = make([]float64, n)
		x      = make([]float64, n)
	)
	// forward substitution L·y = P·b
	for i = 0; i < n; i++ {
		sum = b[perm[i]]
		for j = 0; j < i; j++ {
			v, _ = L.At(i, j)
			sum -= v * y[j]
		}
		y[i] = sum
	}
	// back substitution U·x = y
	for i = n - 1; i >= 0; i-- {
		sum = y[i]
		for j = i + 1; j < n; j++ {
			v, _ = U.At(i, j)
			sum -= v * x[j]
		}
		v, _ = U.At(i, i)
		x[i] = sum / v
	}

	return x, nil
}
