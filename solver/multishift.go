// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
)

// MultiShiftCG solves (A + σ_i)·x_i = b for a set of shifts sharing one
// Krylov sequence.
type MultiShiftCG struct {
	Tolerance     float64 // relative residual target for every shift
	MaxIterations int     // cap on the shared loop plus any polishing
}

// NewMultiShiftCG returns a multi-shift solver.
func NewMultiShiftCG(tol float64, maxIter int) MultiShiftCG {
	return MultiShiftCG{Tolerance: tol, MaxIterations: maxIter}
}

// shiftState is the per-shift recurrence state.
type shiftState struct {
	sigma    float64      // shift relative to the base system
	zeta     float64      // ζ_k
	zetaPrev float64      // ζ_{k−1}
	x, p     []complex128 // solution and search direction
	frozen   bool
}

// SolveShifted returns one solution per shift, in the order given.
// The base Krylov system is the smallest shift; larger shifts converge no
// later than the base. After the shared loop every shift's true residual is
// checked and drifted shifts are polished by single-shift CG.
// Complexity: O(iterations · (cost(A) + len(shifts)·n)).
func (m MultiShiftCG) SolveShifted(op LinearOperator, b []complex128, shifts []float64) ([][]complex128, Stats, error) {
	// Stage 1: Validate
	if err := validate(m.Tolerance, m.MaxIterations); err != nil {
		return nil, Stats{}, fmt.Errorf("MultiShiftCG: %w", err)
	}
	if len(shifts) == 0 {
		return nil, Stats{}, fmt.Errorf("MultiShiftCG: %w", ErrNoShifts)
	}
	base := 0
	for i, s := range shifts {
		if s < 0 || math.IsNaN(s) {
			return nil, Stats{}, fmt.Errorf("MultiShiftCG: shift[%d]=%g: %w", i, s, ErrShiftNegative)
		}
		if s < shifts[base] {
			base = i
		}
	}
	n := len(b)
	sols := make([][]complex128, len(shifts))
	for i := range sols {
		sols[i] = make([]complex128, n)
	}
	bb := matrix.Norm2(b)
	if bb == 0 {
		return sols, Stats{}, nil
	}

	// Stage 2: Prepare shared and per-shift state (x = 0, r = p = b)
	var (
		sigma0 = shifts[base]
		a0     = Shifted(op, sigma0)
		r      = matrix.CloneVec(b)
		p      = matrix.CloneVec(b)
		ap     = make([]complex128, n)
		x      = sols[base]
		target = m.Tolerance * m.Tolerance * bb
		states = make([]*shiftState, len(shifts))
		st     Stats
	)
	for i := range shifts {
		if i == base {
			continue
		}
		states[i] = &shiftState{
			sigma:    shifts[i] - sigma0,
			zeta:     1,
			zetaPrev: 1,
			x:        sols[i],
			p:        matrix.CloneVec(b),
		}
	}

	// Stage 3: Shared Krylov loop
	var (
		rr        = bb
		rrNew     float64
		alpha     float64
		alphaPrev = 1.0
		betaPrev  = 0.0
		beta, pap float64
		zNext     float64
		ratio     float64
		active    int
	)
	for st.Iterations < m.MaxIterations {
		a0.Apply(ap, p)
		st.Iterations++
		pap = matrix.RealDot(p, ap)
		if !(pap > 0) {
			return sols, st, fmt.Errorf("MultiShiftCG: iteration %d: %w", st.Iterations, ErrBreakdown)
		}
		alpha = rr / pap

		// shifted solution updates use ζ_{k+1} from this iteration's α
		for _, s := range states {
			if s == nil || s.frozen {
				continue
			}
			zNext = s.zeta * s.zetaPrev * alphaPrev /
				(alpha*betaPrev*(s.zetaPrev-s.zeta) + s.zetaPrev*alphaPrev*(1+s.sigma*alpha))
			matrix.AxpyReal(alpha*zNext/s.zeta, s.p, s.x)
			s.zetaPrev, s.zeta = s.zeta, zNext
		}

		matrix.AxpyReal(alpha, p, x)
		matrix.AxpyReal(-alpha, ap, r)
		rrNew = matrix.Norm2(r)
		beta = rrNew / rr

		active = 0
		for _, s := range states {
			if s == nil || s.frozen {
				continue
			}
			ratio = s.zeta / s.zetaPrev
			// p^σ ← ζ_{k+1}·r + β(ζ_{k+1}/ζ_k)²·p^σ
			matrix.Scale(beta*ratio*ratio, s.p)
			matrix.AxpyReal(s.zeta, r, s.p)
			if s.zeta*s.zeta*rrNew <= target {
				s.frozen = true
			} else {
				active++
			}
		}
		matrix.Xpay(r, beta, p)

		rr = rrNew
		alphaPrev, betaPrev = alpha, beta
		if rr <= target && active == 0 {
			break
		}
	}

	// Stage 4: True residual per shift; polish drifted shifts
	tmp := make([]complex128, n)
	res := make([]float64, len(shifts))
	var worst float64
	for i, s := range shifts {
		res[i] = trueRelResidual(Shifted(op, s), sols[i], b, tmp, bb)
		if res[i] <= m.Tolerance {
			continue
		}
		budget := m.MaxIterations - st.Iterations
		if budget < 1 {
			budget = 1
		}
		pst, err := NewCG(m.Tolerance, budget).Solve(Shifted(op, s), sols[i], b)
		st.Iterations += pst.Iterations
		st.Restarts++
		res[i] = pst.Residual
		if err != nil {
			st.Residual = math.Max(worst, res[i])
			return sols, st, &NonConvergenceError{Iterations: st.Iterations, Residual: st.Residual}
		}
	}
	for _, v := range res {
		worst = math.Max(worst, v)
	}
	st.Residual = worst

	return sols, st, nil
}

// trueRelResidual returns ‖b − A·x‖/‖b‖ using tmp as scratch.
func trueRelResidual(a LinearOperator, x, b, tmp []complex128, bb float64) float64 {
	a.Apply(tmp, x)
	matrix.Sub(tmp, b, tmp)

	return math.Sqrt(matrix.Norm2(tmp) / bb)
}
