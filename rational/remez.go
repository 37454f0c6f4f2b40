// SPDX-License-Identifier: MIT

package rational

import (
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/matrix/ops"
)

// Remez exchange parameters.
const (
	remezMaxIter    = 60
	remezGridPerDof = 120
	remezMinGrid    = 2000
	remezConverged  = 1e-4 // relative gap between grid max and levelled error
)

// remezProblem is a weighted linear Chebyshev problem with fixed shifts:
// minimise max_x |Σ_j c_j ψ_j(x) − 1|, ψ_k(x) = s_k/((x+s_k)·f(x)) and,
// when withConst, ψ_const(x) = 1/f(x).
type remezProblem struct {
	shifts    []float64
	power     float64
	withConst bool
	grid      []float64
}

// remezResult holds the fitted coefficients in partial-fraction form.
type remezResult struct {
	a0       float64
	residues []float64
	maxErr   float64
}

func (p *remezProblem) dof() int {
	if p.withConst {
		return len(p.shifts) + 1
	}

	return len(p.shifts)
}

// basis writes ψ_j(x) into row.
func (p *remezProblem) basis(x float64, row []float64) {
	w := math.Pow(x, -p.power)
	for k, s := range p.shifts {
		row[k] = s / (x + s) * w
	}
	if p.withConst {
		row[len(p.shifts)] = w
	}
}

// errorAt returns e(x) = Σ c_j ψ_j(x) − 1.
func (p *remezProblem) errorAt(x float64, c, row []float64) float64 {
	p.basis(x, row)
	var e float64
	for j := range c {
		e += c[j] * row[j]
	}

	return e - 1
}

// logGrid returns n log-spaced points covering [lo, hi] including both ends.
func logGrid(lo, hi float64, n int) []float64 {
	g := make([]float64, n)
	a, b := math.Log(lo), math.Log(hi)
	for i := range g {
		g[i] = math.Exp(a + (b-a)*float64(i)/float64(n-1))
	}
	g[0], g[n-1] = lo, hi

	return g
}

// solve runs the exchange and returns the best levelled solution seen.
// Complexity: O(iterations · (m³ + G·m)), m = dof, G = len(grid).
func (p *remezProblem) solve() (*remezResult, error) {
	// Stage 1: Initial reference at Chebyshev nodes in log x
	var (
		m    = p.dof()
		lo   = p.grid[0]
		hi   = p.grid[len(p.grid)-1]
		ref  = make([]float64, m+1)
		row  = make([]float64, m)
		best *remezResult
	)
	for i := 0; i <= m; i++ {
		t := (1 - math.Cos(math.Pi*float64(i)/float64(m))) / 2
		ref[i] = math.Exp(math.Log(lo) + t*(math.Log(hi)-math.Log(lo)))
	}

	// Stage 2: Exchange loop
	errs := make([]float64, len(p.grid))
	for iter := 0; iter < remezMaxIter; iter++ {
		a, err := matrix.NewDense(m+1, m+1)
		if err != nil {
			return nil, err
		}
		rhs := make([]float64, m+1)
		sign := 1.0
		for i, x := range ref {
			p.basis(x, row)
			for j := 0; j < m; j++ {
				_ = a.Set(i, j, row[j])
			}
			_ = a.Set(i, m, -sign)
			rhs[i] = 1
			sign = -sign
		}
		z, err := ops.Solve(a, rhs)
		if err != nil {
			if best != nil {
				return best, nil
			}
			return nil, fmt.Errorf("remez: reference solve: %v: %w", err, ErrRemezFailed)
		}
		c, level := z[:m], math.Abs(z[m])

		// Stage 3: Evaluate on the grid
		var maxErr float64
		for i, x := range p.grid {
			errs[i] = p.errorAt(x, c, row)
			maxErr = math.Max(maxErr, math.Abs(errs[i]))
		}
		if best == nil || maxErr < best.maxErr {
			best = p.result(c, maxErr)
		}
		if maxErr-level <= remezConverged*maxErr {
			break
		}

		// Stage 4: New alternating reference
		next := alternatingExtrema(p.grid, errs, m+1)
		if next == nil {
			break
		}
		ref = next
	}
	if best == nil {
		return nil, ErrRemezFailed
	}

	return best, nil
}

// result converts scaled coefficients into residues.
func (p *remezProblem) result(c []float64, maxErr float64) *remezResult {
	r := &remezResult{residues: make([]float64, len(p.shifts)), maxErr: maxErr}
	for k, s := range p.shifts {
		r.residues[k] = c[k] * s
	}
	if p.withConst {
		r.a0 = c[len(p.shifts)]
	}

	return r
}

// alternatingExtrema picks want points where errs alternates in sign and
// |errs| is locally maximal, always keeping the global maximum. Returns nil
// when fewer than want sign changes exist.
func alternatingExtrema(grid, errs []float64, want int) []float64 {
	type ext struct {
		x, e float64
	}
	// one extremum per constant-sign run
	var list []ext
	for i := 0; i < len(errs); {
		j := i
		bi := i
		pos := errs[i] >= 0
		for j < len(errs) && (errs[j] >= 0) == pos {
			if math.Abs(errs[j]) > math.Abs(errs[bi]) {
				bi = j
			}
			j++
		}
		list = append(list, ext{grid[bi], errs[bi]})
		i = j
	}
	if len(list) < want {
		return nil
	}

	// trim, preserving alternation
	for len(list) > want {
		smallest := 0
		for i := range list {
			if math.Abs(list[i].e) < math.Abs(list[smallest].e) {
				smallest = i
			}
		}
		switch {
		case len(list)-want == 1:
			// drop the weaker end
			if math.Abs(list[0].e) < math.Abs(list[len(list)-1].e) {
				list = list[1:]
			} else {
				list = list[:len(list)-1]
			}
		case smallest == 0 || smallest == len(list)-1:
			list = append(list[:smallest], list[smallest+1:]...)
		default:
			// drop the smallest together with its weaker neighbour
			nb := smallest - 1
			if math.Abs(list[smallest+1].e) < math.Abs(list[nb].e) {
				nb = smallest + 1
			}
			lo := min(nb, smallest)
			list = append(list[:lo], list[lo+2:]...)
		}
	}

	out := make([]float64, want)
	for i := range list {
		out[i] = list[i].x
	}

	return out
}
