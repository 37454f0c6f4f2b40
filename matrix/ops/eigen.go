// Package ops provides advanced matrix operations for the latticehmc/matrix package.
// Eigen computes all eigenvalues and eigenvectors of a real symmetric matrix
// using the Jacobi rotation method.
package ops

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/latticehmc/matrix"
)

// ErrNotSymmetric is returned when the input matrix is not symmetric.
var ErrNotSymmetric = errors.New("ops: matrix is not symmetric")

// ErrEigenFailed is returned if the algorithm does not converge within max iterations.
var ErrEigenFailed = errors.New("ops: eigen decomposition did not converge")

// Eigen performs Jacobi eigenvalue decomposition on a symmetric matrix m.
// It returns the eigenvalues sorted ascending and a matrix Q whose columns
// are the matching eigenvectors.
// tol specifies convergence threshold for off-diagonal elements.
// maxIter caps the number of rotations.
// Returns ErrNonSquare, ErrNotSymmetric, or ErrEigenFailed.
// Complexity: O(n²) per rotation, worst-case O(maxIter·n²); Memory: O(n²).
func Eigen(m matrix.Matrix, tol float64, maxIter int) ([]float64, matrix.Matrix, error) {
	// Stage 1: Validate input
	var (
		n        = m.Rows()
		cols     = m.Cols()
		err      error
		i, j     int
		aij, aji float64
	)
	if n != cols {
		return nil, nil, fmt.Errorf("Eigen: non-square %dx%d: %w", n, cols, matrix.ErrNonSquare)
	}
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			aij, _ = m.At(i, j)
			aji, _ = m.At(j, i)
			if math.Abs(aij-aji) > tol*(1+math.Abs(aij)) {
				return nil, nil, ErrNotSymmetric
			}
		}
	}

	// Stage 2: Prepare A (work) and Q (eigenvectors)
	var A, Q matrix.Matrix
	A = m.Clone()
	Q, err = matrix.NewIdentity(n)
	if err != nil {
		return nil, nil, fmt.Errorf("Eigen: %w", err)
	}

	// Stage 3: Execute Jacobi rotations
	var (
		iter          int
		p, q          int
		maxOff        float64
		theta, t      float64
		c, s          float64
		off, app, aqq float64
		apq, aip, aiq float64
		converged     bool
	)
	for iter = 0; iter < maxIter; iter++ {
		// find largest off-diagonal |A[p][q]|
		maxOff = 0.0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				off, _ = A.At(i, j)
				if math.Abs(off) > maxOff {
					maxOff = math.Abs(off)
					p, q = i, j
				}
			}
		}
		if maxOff < tol {
			converged = true
			break
		}
		app, _ = A.At(p, p)
		aqq, _ = A.At(q, q)
		apq, _ = A.At(p, q)
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0/(math.Abs(theta)+math.Sqrt(theta*theta+1)), theta)
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		for i = 0; i < n; i++ {
			if i != p && i != q {
				aip, _ = A.At(i, p)
				aiq, _ = A.At(i, q)
				_ = A.Set(i, p, c*aip-s*aiq)
				_ = A.Set(p, i, c*aip-s*aiq)
				_ = A.Set(i, q, s*aip+c*aiq)
				_ = A.Set(q, i, s*aip+c*aiq)
			}
		}
		_ = A.Set(p, p, app-t*apq)
		_ = A.Set(q, q, aqq+t*apq)
		_ = A.Set(p, q, 0.0)
		_ = A.Set(q, p, 0.0)

		for i = 0; i < n; i++ {
			aip, _ = Q.At(i, p)
			aiq, _ = Q.At(i, q)
			_ = Q.Set(i, p, c*aip-s*aiq)
			_ = Q.Set(i, q, s*aip+c*aiq)
		}
	}
	if !converged && n > 1 {
		return nil, nil, ErrEigenFailed
	}

	// Stage 4: Finalize eigenvalues sorted ascending, columns of Q follow
	order := make([]int, n)
	eigs := make([]float64, n)
	for i = 0; i < n; i++ {
		order[i] = i
		eigs[i], _ = A.At(i, i)
	}
	sort.SliceStable(order, func(a, b int) bool { return eigs[order[a]] < eigs[order[b]] })
	sorted := make([]float64, n)
	vecs, _ := matrix.NewDense(n, n)
	for j = 0; j < n; j++ {
		sorted[j] = eigs[order[j]]
		for i = 0; i < n; i++ {
			v, _ := Q.At(i, order[j])
			_ = vecs.Set(i, j, v)
		}
	}

	return sorted, vecs, nil
}
