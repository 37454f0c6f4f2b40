// SPDX-License-Identifier: MIT

package rational

import (
	"fmt"
	"math"
	"strings"
)

// Fit limits.
const (
	MaxDegree = 64
	// rangeSlack absorbs round-off when checking x against [Lo, Hi].
	rangeSlack = 1e-12
	// verifyFactor sets the verification grid density relative to the fit grid.
	verifyFactor = 4
)

// Params identifies one approximation. It is comparable and used as a cache key.
type Params struct {
	Lo        float64 // lower spectral bound, > 0
	Hi        float64 // upper spectral bound, > Lo
	Power     float64 // γ in (−1, 1) \ {0}
	Degree    int     // number of poles
	Tolerance float64 // max relative error; 0 disables the check
}

// Validate checks the parameter domain.
func (p Params) Validate() error {
	switch {
	case !(p.Lo > 0) || !(p.Hi > p.Lo) || math.IsInf(p.Hi, 0):
		return fmt.Errorf("bounds [%g, %g]: %w", p.Lo, p.Hi, ErrInvalidParams)
	case !(p.Power > -1 && p.Power < 1) || p.Power == 0:
		return fmt.Errorf("power %g: %w", p.Power, ErrInvalidParams)
	case p.Degree < 1 || p.Degree > MaxDegree:
		return fmt.Errorf("degree %d: %w", p.Degree, ErrInvalidParams)
	case p.Tolerance < 0 || math.IsNaN(p.Tolerance):
		return fmt.Errorf("tolerance %g: %w", p.Tolerance, ErrInvalidParams)
	}

	return nil
}

// Approximation is r(x) = A0 + Σ_k Residues[k]/(x + Shifts[k]) on [Lo, Hi].
// It is immutable after Fit.
type Approximation struct {
	Params
	A0       float64
	Residues []float64
	Shifts   []float64
	MaxError float64 // verified max relative error on [Lo, Hi]
}

// Fit computes the approximation for p.
// Returns ErrInvalidParams, ErrRemezFailed or ErrApproximationTolerance; in
// the last case the approximation is returned as well for diagnostics.
// Complexity: O(iterations·(n³ + G·n)).
func Fit(p Params) (*Approximation, error) {
	// Stage 1: Validate
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("Fit: %w", err)
	}

	// Stage 2: Shifts and the strictly-proper or affine fit target
	var (
		n         = p.Degree
		shifts    = zolotarevShifts(p.Lo, p.Hi, n)
		positive  = p.Power > 0
		fitPower  = p.Power
		withConst = true
	)
	if positive {
		fitPower, withConst = p.Power-1, false
	}
	gridN := max(remezMinGrid, remezGridPerDof*(n+1))
	prob := &remezProblem{
		shifts:    shifts,
		power:     fitPower,
		withConst: withConst,
		grid:      logGrid(p.Lo, p.Hi, gridN),
	}

	// Stage 3: Remez, with the closed-form product as fallback for x^{-1/2}
	res, err := prob.solve()
	if fitPower == -0.5 {
		zr := zolotarevResidues(shifts, zolotarevZeros(p.Lo, p.Hi, n), prob.grid)
		alt := &remezResult{residues: zr, maxErr: prob.maxError(0, zr)}
		if err != nil || alt.maxErr < res.maxErr {
			res, err = alt, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("Fit: %w", err)
	}

	// Stage 4: Assemble, multiplying by x for positive powers
	a := &Approximation{Params: p, Shifts: shifts, A0: res.a0, Residues: res.residues}
	if positive {
		var sum float64
		out := make([]float64, n)
		for k, r := range res.residues {
			sum += r
			out[k] = -r * shifts[k]
		}
		a.A0, a.Residues = sum, out
	}

	// Stage 5: Verify on a denser grid
	a.MaxError = a.verify(logGrid(p.Lo, p.Hi, verifyFactor*gridN+1))
	if p.Tolerance > 0 && a.MaxError > p.Tolerance {
		return a, fmt.Errorf("Fit: %s: max error %.3e > %.3e: %w", a, a.MaxError, p.Tolerance, ErrApproximationTolerance)
	}

	return a, nil
}

// maxError evaluates a partial-fraction fit of x^power on the problem grid.
func (p *remezProblem) maxError(a0 float64, res []float64) float64 {
	var m float64
	for _, x := range p.grid {
		v := a0
		for k, s := range p.shifts {
			v += res[k] / (x + s)
		}
		m = math.Max(m, math.Abs(v*math.Pow(x, -p.power)-1))
	}

	return m
}

// value evaluates r(x) without range checks.
func (a *Approximation) value(x float64) float64 {
	v := a.A0
	for k, s := range a.Shifts {
		v += a.Residues[k] / (x + s)
	}

	return v
}

func (a *Approximation) verify(grid []float64) float64 {
	var m float64
	for _, x := range grid {
		m = math.Max(m, math.Abs(a.value(x)/math.Pow(x, a.Power)-1))
	}

	return m
}

// InRange reports whether x lies in [Lo, Hi] up to round-off.
func (a *Approximation) InRange(x float64) bool {
	return x >= a.Lo*(1-rangeSlack) && x <= a.Hi*(1+rangeSlack)
}

// Evaluate returns r(x). Returns ErrApproximationOutOfRange outside [Lo, Hi].
func (a *Approximation) Evaluate(x float64) (float64, error) {
	if math.IsNaN(x) || !a.InRange(x) {
		return 0, fmt.Errorf("Evaluate(%g) on [%g, %g]: %w", x, a.Lo, a.Hi, ErrApproximationOutOfRange)
	}

	return a.value(x), nil
}

// CheckSpectrum returns ErrApproximationOutOfRange unless [lo, hi] ⊆ [Lo, Hi].
func (a *Approximation) CheckSpectrum(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || !a.InRange(lo) || !a.InRange(hi) {
		return fmt.Errorf("spectrum [%g, %g] not within [%g, %g]: %w", lo, hi, a.Lo, a.Hi, ErrApproximationOutOfRange)
	}

	return nil
}

// Apply computes dst = A0·src + Σ_k Residues[k]·shifted[k], where shifted[k]
// solves (A + Shifts[k])·shifted[k] = src. Returns ErrShiftCount.
func (a *Approximation) Apply(dst, src []complex128, shifted [][]complex128) error {
	if len(shifted) != len(a.Shifts) {
		return fmt.Errorf("Apply: %d solutions for %d shifts: %w", len(shifted), len(a.Shifts), ErrShiftCount)
	}
	a0 := complex(a.A0, 0)
	for i := range dst {
		dst[i] = a0 * src[i]
	}
	for k, sol := range shifted {
		r := complex(a.Residues[k], 0)
		for i := range dst {
			dst[i] += r * sol[i]
		}
	}

	return nil
}

// String renders a one-line summary.
func (a *Approximation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "x^%g on [%g, %g] degree %d", a.Power, a.Lo, a.Hi, a.Degree)
	if a.MaxError > 0 {
		fmt.Fprintf(&sb, " err %.2e", a.MaxError)
	}

	return sb.String()
}
