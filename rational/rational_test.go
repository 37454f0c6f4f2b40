// SPDX-License-Identifier: MIT

package rational_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/solver"
)

// RationalSuite exercises fitting, evaluation and the cache.
type RationalSuite struct {
	suite.Suite
	rnd *rng.Context
}

func (s *RationalSuite) SetupTest() {
	s.rnd = rng.MustNew([]uint64{21}, []uint64{22})
}

// TestFit_Powers checks the achieved error on random samples for every power
// used by the pseudofermion actions.
func (s *RationalSuite) TestFit_Powers() {
	cases := []struct {
		power float64
		tol   float64
	}{
		{-0.5, 1e-10},
		{0.5, 1e-10},
		{0.25, 1e-6},
		{-0.25, 1e-7},
	}
	samples := make([]float64, 300)
	for _, tc := range cases {
		p := rational.Params{Lo: 0.1, Hi: 10, Power: tc.power, Degree: 12, Tolerance: tc.tol}
		a, err := rational.Fit(p)
		require.NoError(s.T(), err, "power %g", tc.power)
		require.LessOrEqual(s.T(), a.MaxError, tc.tol)
		require.Len(s.T(), a.Shifts, 12)
		for _, sh := range a.Shifts {
			require.Greater(s.T(), sh, 0.0)
		}

		s.rnd.FillUniform(samples, math.Log(0.1), math.Log(10))
		for _, lx := range samples {
			x := math.Exp(lx)
			v, err := a.Evaluate(x)
			require.NoError(s.T(), err)
			require.InDelta(s.T(), 0, v/math.Pow(x, tc.power)-1, 1.05*a.MaxError+1e-14, "x=%g", x)
		}
		for _, x := range []float64{0.1, 10} {
			_, err = a.Evaluate(x)
			require.NoError(s.T(), err)
		}
	}
}

// TestEvaluate_OutOfRange never clips silently.
func (s *RationalSuite) TestEvaluate_OutOfRange() {
	a, err := rational.Fit(rational.Params{Lo: 0.1, Hi: 10, Power: -0.5, Degree: 8})
	require.NoError(s.T(), err)
	for _, x := range []float64{0.05, 10.5, math.NaN(), -1} {
		_, err = a.Evaluate(x)
		require.ErrorIs(s.T(), err, rational.ErrApproximationOutOfRange, "x=%g", x)
	}
	require.NoError(s.T(), a.CheckSpectrum(0.2, 9))
	require.ErrorIs(s.T(), a.CheckSpectrum(0.09, 9), rational.ErrApproximationOutOfRange)
	require.ErrorIs(s.T(), a.CheckSpectrum(0.2, 11), rational.ErrApproximationOutOfRange)
}

// TestFit_Validation covers the parameter sentinels and the tolerance check.
func (s *RationalSuite) TestFit_Validation() {
	bad := []rational.Params{
		{Lo: 0, Hi: 1, Power: -0.5, Degree: 4},
		{Lo: 2, Hi: 1, Power: -0.5, Degree: 4},
		{Lo: 0.1, Hi: 1, Power: 0, Degree: 4},
		{Lo: 0.1, Hi: 1, Power: 1, Degree: 4},
		{Lo: 0.1, Hi: 1, Power: -0.5, Degree: 0},
		{Lo: 0.1, Hi: 1, Power: -0.5, Degree: rational.MaxDegree + 1},
		{Lo: 0.1, Hi: 1, Power: -0.5, Degree: 4, Tolerance: -1},
	}
	for _, p := range bad {
		_, err := rational.Fit(p)
		require.ErrorIs(s.T(), err, rational.ErrInvalidParams, "%+v", p)
	}

	a, err := rational.Fit(rational.Params{Lo: 1e-4, Hi: 10, Power: 0.25, Degree: 2, Tolerance: 1e-10})
	require.ErrorIs(s.T(), err, rational.ErrApproximationTolerance)
	require.NotNil(s.T(), a)
	require.Greater(s.T(), a.MaxError, 1e-10)
}

// TestApply_MatchesDiagonalPower applies r(A) through one multi-shift solve
// on a diagonal operator and compares with the exact power.
func (s *RationalSuite) TestApply_MatchesDiagonalPower() {
	const n = 40
	eig := make([]float64, n)
	s.rnd.FillUniform(eig, 0.2, 8)
	op := solver.OperatorFunc(func(dst, src []complex128) {
		for i := range src {
			dst[i] = complex(eig[i], 0) * src[i]
		}
	})
	b := make([]complex128, n)
	s.rnd.FillComplexGaussian(b)

	for _, power := range []float64{-0.5, 0.25} {
		a, err := rational.Fit(rational.Params{Lo: 0.1, Hi: 10, Power: power, Degree: 14})
		require.NoError(s.T(), err)
		sols, _, err := solver.NewMultiShiftCG(1e-12, 500).SolveShifted(op, b, a.Shifts)
		require.NoError(s.T(), err)
		out := make([]complex128, n)
		require.NoError(s.T(), a.Apply(out, b, sols))
		for i := range out {
			want := math.Pow(eig[i], power)
			require.InDelta(s.T(), want*real(b[i]), real(out[i]), 1e-6*math.Abs(want)+1e-9)
			require.InDelta(s.T(), want*imag(b[i]), imag(out[i]), 1e-6*math.Abs(want)+1e-9)
		}
		require.ErrorIs(s.T(), a.Apply(out, b, sols[:1]), rational.ErrShiftCount)
	}
}

// TestCache_RefitWidens fits once per Params and widens on demand.
func (s *RationalSuite) TestCache_RefitWidens() {
	c := rational.NewCache()
	p := rational.Params{Lo: 0.1, Hi: 10, Power: -0.5, Degree: 10}
	a1, err := c.Get(p)
	require.NoError(s.T(), err)
	a2, err := c.Get(p)
	require.NoError(s.T(), err)
	require.Same(s.T(), a1, a2)
	require.Equal(s.T(), 1, c.Len())

	require.ErrorIs(s.T(), a1.CheckSpectrum(0.05, 12), rational.ErrApproximationOutOfRange)
	a3, q, err := c.Refit(p, 0.05, 12, 0.1)
	require.NoError(s.T(), err)
	require.NoError(s.T(), a3.CheckSpectrum(0.05, 12))
	require.InDelta(s.T(), 0.05/1.1, q.Lo, 1e-15)
	require.InDelta(s.T(), 13.2, q.Hi, 1e-12)
	require.Equal(s.T(), 2, c.Len())

	_, _, err = c.Refit(p, 0, 1, 0.1)
	require.ErrorIs(s.T(), err, rational.ErrInvalidParams)

	w := rational.Widen(p, 0.5, 5, 0.2)
	require.Equal(s.T(), p, w)
}

func TestRationalSuite(t *testing.T) {
	suite.Run(t, new(RationalSuite))
}
