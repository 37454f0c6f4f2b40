// SPDX-License-Identifier: MIT

package action_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/latticehmc/action"
	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/rational"
	"github.com/katalvlaran/latticehmc/rng"
	"github.com/katalvlaran/latticehmc/smear"
	"github.com/katalvlaran/latticehmc/solver"
)

const fdStep = 1e-5

// tight keeps solver error well below the finite-difference resolution.
func tight() action.Option {
	p := action.DefaultSolverParams()
	p.ActionTolerance, p.ForceTolerance, p.HeatbathTolerance = 1e-12, 1e-12, 1e-12

	return action.WithSolverParams(p)
}

// ActionSuite checks forces against finite differences of the energy and the
// heat baths against S = η†η for every action variant.
type ActionSuite struct {
	suite.Suite
	rnd   *rng.Context
	u     *lattice.GaugeField
	cache *rational.Cache
}

func (s *ActionSuite) SetupSuite() {
	s.cache = rational.NewCache()
}

func (s *ActionSuite) SetupTest() {
	s.rnd = rng.MustNew([]uint64{1, 2, 3}, []uint64{4, 5, 6})
	g, err := lattice.NewGeometry(4, 4)
	s.Require().NoError(err)
	s.u = lattice.NewGaugeField(g)
	s.u.Hot(s.rnd)
}

func (s *ActionSuite) wilson(mass float64) *lattice.Wilson {
	w, err := lattice.NewWilson(s.u.Geometry(), mass, lattice.WithAntiperiodicTime())
	s.Require().NoError(err)

	return w
}

func (s *ActionSuite) schur(mass float64) *lattice.Schur {
	w, err := lattice.NewSchur(s.u.Geometry(), mass, lattice.WithAntiperiodicTime())
	s.Require().NoError(err)

	return w
}

// rationalParams covers M†M for masses 0.5 and 1.0 on any U(1) field.
func rationalParams() action.RationalParams {
	return action.RationalParams{Lo: 0.2, Hi: 26, Degree: 12, Tolerance: 1e-6, MDTolerance: 1e-6}
}

// drawEta reproduces the Gaussian source an action draws during Refresh.
func drawEta(r *rng.Context, op lattice.FermionOperator) []complex128 {
	eta := make([]complex128, op.Size())
	r.FillComplexGaussian(eta)
	if p, ok := op.(lattice.Projector); ok {
		p.Project(eta)
	}

	return eta
}

// checkForce compares Force·v with the central difference of Energy along v.
func (s *ActionSuite) checkForce(a action.Action) {
	req := s.Require()
	g := s.u.Geometry()
	req.NoError(a.Refresh(s.u, s.rnd))

	f := lattice.NewAlgebraField(g)
	req.NoError(a.Force(s.u, f))
	v := lattice.NewAlgebraField(g)
	v.Gaussian(s.rnd)
	want := f.Dot(v)

	up, down := s.u.Clone(), s.u.Clone()
	req.NoError(up.Update(fdStep, v))
	req.NoError(down.Update(-fdStep, v))
	sp, err := a.Energy(up)
	req.NoError(err)
	sm, err := a.Energy(down)
	req.NoError(err)
	got := (sp - sm) / (2 * fdStep)

	req.InDelta(want, got, 1e-5*math.Max(1, math.Abs(want)), a.Name())
	req.False(f.HasNaNInf())
}

// checkHeatbath requires S = η†η right after Refresh.
func (s *ActionSuite) checkHeatbath(a action.Action, op lattice.FermionOperator, eps float64) {
	eta := drawEta(s.rnd.Clone(), op)
	s.Require().NoError(a.Refresh(s.u, s.rnd))
	e, err := a.Energy(s.u)
	s.Require().NoError(err)
	s.Require().InEpsilon(matrix.Norm2(eta), e, eps, a.Name())
}

func (s *ActionSuite) TestWilsonGauge() {
	a, err := action.NewWilsonGauge(2.0)
	s.Require().NoError(err)
	s.checkForce(a)

	cold := lattice.NewGaugeField(s.u.Geometry())
	e, err := a.Energy(cold)
	s.Require().NoError(err)
	s.Require().Zero(e)

	_, err = action.NewWilsonGauge(0)
	s.Require().ErrorIs(err, action.ErrInvalidParameter)
}

func (s *ActionSuite) TestTwoFlavour() {
	for _, op := range []lattice.FermionOperator{s.wilson(0.5), s.schur(0.5)} {
		a, err := action.NewTwoFlavour(op, tight())
		s.Require().NoError(err)
		s.checkForce(a)
		s.checkHeatbath(a, op, 1e-9)
	}
}

func (s *ActionSuite) TestTwoFlavour_NotRefreshed() {
	a, err := action.NewTwoFlavour(s.wilson(0.5))
	s.Require().NoError(err)
	_, err = a.Energy(s.u)
	s.Require().ErrorIs(err, action.ErrNotRefreshed)
	s.Require().ErrorIs(a.Force(s.u, lattice.NewAlgebraField(s.u.Geometry())), action.ErrNotRefreshed)
}

func (s *ActionSuite) TestTwoFlavourRatio() {
	pairs := [][2]lattice.FermionOperator{
		{s.wilson(1.0), s.wilson(0.5)},
		{s.schur(1.0), s.schur(0.5)},
	}
	for _, p := range pairs {
		a, err := action.NewTwoFlavourRatio(p[0], p[1], tight())
		s.Require().NoError(err)
		s.checkForce(a)
		s.checkHeatbath(a, p[1], 1e-9)
	}
}

func (s *ActionSuite) TestTwoFlavourRatio_Mismatch() {
	g, err := lattice.NewGeometry(4, 6)
	s.Require().NoError(err)
	other, err := lattice.NewWilson(g, 0.5)
	s.Require().NoError(err)
	_, err = action.NewTwoFlavourRatio(other, s.wilson(0.5))
	s.Require().ErrorIs(err, action.ErrOperatorMismatch)
}

func (s *ActionSuite) TestOneFlavourRational() {
	for _, op := range []lattice.FermionOperator{s.wilson(0.5), s.schur(0.5)} {
		a, err := action.NewOneFlavourRational(op, rationalParams(), tight(), action.WithCache(s.cache))
		s.Require().NoError(err)
		s.checkForce(a)
		s.checkHeatbath(a, op, 1e-5)
	}
}

func (s *ActionSuite) TestOneFlavourRatioRational() {
	pairs := [][2]lattice.FermionOperator{
		{s.wilson(1.0), s.wilson(0.5)},
		{s.schur(1.0), s.schur(0.5)},
	}
	for _, p := range pairs {
		a, err := action.NewOneFlavourRatioRational(p[0], p[1], rationalParams(), tight(), action.WithCache(s.cache))
		s.Require().NoError(err)
		s.checkForce(a)
		s.checkHeatbath(a, p[1], 1e-5)
	}
}

func (s *ActionSuite) TestRational_BoundsCheck() {
	rp := rationalParams()
	rp.BoundsCheckFreq = 2
	a, err := action.NewOneFlavourRational(s.wilson(0.5), rp, action.WithCache(s.cache))
	s.Require().NoError(err)
	s.Require().NoError(a.Refresh(s.u, s.rnd))
	b := a.Spectrum()
	s.Require().Greater(b.Lo, 0.25-1e-9)
	s.Require().Less(b.Hi, 20.25+1e-9)

	narrow := action.RationalParams{Lo: 1, Hi: 2, Degree: 4, BoundsCheckFreq: 1}
	a, err = action.NewOneFlavourRational(s.wilson(0.5), narrow, action.WithCache(s.cache))
	s.Require().NoError(err)
	err = a.Refresh(s.u, s.rnd)
	s.Require().ErrorIs(err, rational.ErrApproximationOutOfRange)

	// Widening to the measured spectrum is the recovery path.
	b = a.Spectrum()
	s.Require().NoError(a.Rebound(b.Lo, b.Hi))
	s.Require().Less(a.Params().Lo, b.Lo)
	s.Require().Greater(a.Params().Hi, b.Hi)
}

func (s *ActionSuite) TestExactOneFlavourRatio() {
	ep := action.EOFAParams{Shift: 0.5, HeatbathLo: 0.1, HeatbathDegree: 10, HeatbathTolerance: 1e-8, BoundsCheckFreq: 1}
	for _, op := range []lattice.ChiralOperator{s.schur(0.5), s.wilson(0.5)} {
		a, err := action.NewExactOneFlavourRatio(op, ep, tight(), action.WithCache(s.cache))
		s.Require().NoError(err)
		s.checkForce(a)
		s.checkHeatbath(a, op, 1e-6)
		s.Require().Positive(a.Spectrum().Lo)
	}

	_, err := action.NewExactOneFlavourRatio(s.schur(0.5), action.EOFAParams{Shift: -1, HeatbathLo: 0.1, HeatbathDegree: 4})
	s.Require().ErrorIs(err, action.ErrInvalidParameter)
}

func (s *ActionSuite) TestSmeared() {
	st, err := smear.NewStout(0.05, 2)
	s.Require().NoError(err)
	base, err := action.NewTwoFlavour(s.wilson(0.5), tight())
	s.Require().NoError(err)
	a, err := action.NewSmeared(base, st)
	s.Require().NoError(err)
	s.Require().Equal("two-flavour[smeared]", a.Name())
	s.checkForce(a)

	gauge, err := action.NewWilsonGauge(1.5)
	s.Require().NoError(err)
	sg, err := action.NewSmeared(gauge, st)
	s.Require().NoError(err)
	s.checkForce(sg)

	_, err = action.NewSmeared(nil, st)
	s.Require().ErrorIs(err, action.ErrNilAction)
}

func (s *ActionSuite) TestMixedPrecisionMatchesDouble() {
	p := action.DefaultSolverParams()
	p.MixedPrecision = true
	for _, op := range []lattice.FermionOperator{s.wilson(0.5), s.schur(0.5)} {
		mixed, err := action.NewTwoFlavour(op, action.WithSolverParams(p))
		s.Require().NoError(err)
		plain, err := action.NewTwoFlavour(op)
		s.Require().NoError(err)

		s.Require().NoError(mixed.Refresh(s.u, s.rnd.Clone()))
		s.Require().NoError(plain.Refresh(s.u, s.rnd.Clone()))
		em, err := mixed.Energy(s.u)
		s.Require().NoError(err)
		ep, err := plain.Energy(s.u)
		s.Require().NoError(err)
		s.Require().InEpsilon(ep, em, 1e-7)
	}
}

func TestActionSuite(t *testing.T) {
	suite.Run(t, new(ActionSuite))
}

// diagonalOperator is a gauge-independent operator with M = diag(d); M†M has
// the two eigenvalues 1 and 1.5.
type diagonalOperator struct{ d []float64 }

func newDiagonal(n int) *diagonalOperator {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
		if i%2 == 1 {
			d[i] = math.Sqrt(1.5)
		}
	}

	return &diagonalOperator{d: d}
}

func (o *diagonalOperator) Size() int { return len(o.d) }

func (o *diagonalOperator) M(_ *lattice.GaugeField, dst, src []complex128) {
	for i := range src {
		dst[i] = complex(o.d[i], 0) * src[i]
	}
}

func (o *diagonalOperator) Mdag(u *lattice.GaugeField, dst, src []complex128) { o.M(u, dst, src) }

func (o *diagonalOperator) Deriv(*lattice.GaugeField, *lattice.AlgebraField, []complex128, []complex128, float64) {
}

// TestForceRetry checks that only force solves retry with a relaxed tolerance.
func TestForceRetry(t *testing.T) {
	g, err := lattice.NewGeometry(4, 4)
	require.NoError(t, err)
	u := lattice.NewGaugeField(g)
	r := rng.MustNew([]uint64{7}, []uint64{8})

	p := action.DefaultSolverParams()
	p.MaxIterations = 1
	p.RelaxFactor = 4e9
	var phases []string
	observe := func(name, phase string, st solver.Stats) {
		require.Equal(t, "two-flavour", name)
		phases = append(phases, phase)
	}
	a, err := action.NewTwoFlavour(newDiagonal(32), action.WithSolverParams(p), action.WithSolveObserver(observe))
	require.NoError(t, err)
	require.NoError(t, a.Refresh(u, r))

	require.NoError(t, a.Force(u, lattice.NewAlgebraField(g)))
	require.Equal(t, []string{action.PhaseForce, action.PhaseForce}, phases)

	phases = nil
	_, err = a.Energy(u)
	require.True(t, errors.Is(err, solver.ErrNonConvergence))
	require.Equal(t, []string{action.PhaseEnergy}, phases)
}

func TestSolverParams_Validate(t *testing.T) {
	p := action.DefaultSolverParams()
	require.NoError(t, p.Validate())
	p.ForceTolerance = 0
	require.ErrorIs(t, p.Validate(), action.ErrInvalidParameter)
	_, err := action.NewTwoFlavour(newDiagonal(4), action.WithSolverParams(p))
	require.ErrorIs(t, err, action.ErrInvalidParameter)
}
