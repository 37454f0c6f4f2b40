// SPDX-License-Identifier: MIT

package lattice_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// GaugeSuite exercises gauge fields and the plaquette kernels.
type GaugeSuite struct {
	suite.Suite
	geom *lattice.Geometry
	rnd  *rng.Context
}

func (s *GaugeSuite) SetupTest() {
	var err error
	s.geom, err = lattice.NewGeometry(4, 4, 2)
	require.NoError(s.T(), err)
	s.rnd = rng.MustNew([]uint64{1, 2, 3}, []uint64{4, 5, 6})
}

// TestColdStart checks the unit configuration observables.
func (s *GaugeSuite) TestColdStart() {
	u := lattice.NewGaugeField(s.geom)
	require.Equal(s.T(), 0.0, u.PlaquetteAction())
	require.Equal(s.T(), 1.0, u.AveragePlaquette())
	require.Equal(s.T(), complex(1, 0), u.Link(3, 1))
}

// TestVersionBumps verifies every mutator bumps the version.
func (s *GaugeSuite) TestVersionBumps() {
	u := lattice.NewGaugeField(s.geom)
	v := u.Version()
	u.SetAngle(0, 0, 0.1)
	require.Greater(s.T(), u.Version(), v)
	v = u.Version()
	u.Hot(s.rnd)
	require.Greater(s.T(), u.Version(), v)
	v = u.Version()
	require.NoError(s.T(), u.Update(0.1, lattice.NewAlgebraField(s.geom)))
	require.Greater(s.T(), u.Version(), v)

	c := u.Clone()
	require.True(s.T(), c.Equal(u, 0))
	u.Cold()
	require.False(s.T(), c.Equal(u, 0))
	require.NoError(s.T(), u.CopyFrom(c))
	require.True(s.T(), c.Equal(u, 0))

	require.ErrorIs(s.T(), u.SetAngles([]float64{1}), lattice.ErrLength)
	other, _ := lattice.NewGeometry(2, 2)
	require.ErrorIs(s.T(), u.CopyFrom(lattice.NewGaugeField(other)), lattice.ErrGeometryMismatch)
}

// TestPlaquetteGradient compares the analytic gradient with central differences.
func (s *GaugeSuite) TestPlaquetteGradient() {
	u := lattice.NewGaugeField(s.geom)
	u.Hot(s.rnd)
	grad := lattice.NewAlgebraField(s.geom)
	u.AddPlaquetteGradient(1, grad)

	const h = 1e-5
	for _, l := range []int{0, 5, 17, 40, s.geom.Links() - 1} {
		site, mu := l/s.geom.Nd(), l%s.geom.Nd()
		th := u.Angle(site, mu)
		u.SetAngle(site, mu, th+h)
		sp := u.PlaquetteAction()
		u.SetAngle(site, mu, th-h)
		sm := u.PlaquetteAction()
		u.SetAngle(site, mu, th)
		require.InDelta(s.T(), (sp-sm)/(2*h), grad.At(site, mu), 1e-7, "link %d", l)
	}
}

// TestPlaquetteHessian compares H·v with the directional derivative of the gradient.
func (s *GaugeSuite) TestPlaquetteHessian() {
	u := lattice.NewGaugeField(s.geom)
	u.Hot(s.rnd)
	v := lattice.NewAlgebraField(s.geom)
	v.Gaussian(s.rnd)

	hv := lattice.NewAlgebraField(s.geom)
	u.AddPlaquetteHessian(1, v, hv)

	const h = 1e-5
	up, um := u.Clone(), u.Clone()
	require.NoError(s.T(), up.Update(h, v))
	require.NoError(s.T(), um.Update(-h, v))
	gp, gm := lattice.NewAlgebraField(s.geom), lattice.NewAlgebraField(s.geom)
	up.AddPlaquetteGradient(1, gp)
	um.AddPlaquetteGradient(1, gm)
	for i := range hv.Data() {
		require.InDelta(s.T(), (gp.Data()[i]-gm.Data()[i])/(2*h), hv.Data()[i], 1e-6)
	}
}

// TestTopologicalCharge checks Q is an integer in 2D and flips with θ → −θ.
func (s *GaugeSuite) TestTopologicalCharge() {
	g, _ := lattice.NewGeometry(6, 6)
	u := lattice.NewGaugeField(g)
	u.Hot(s.rnd)
	q := u.TopologicalCharge()
	require.InDelta(s.T(), math.Round(q), q, 1e-9)

	neg := make([]float64, len(u.Angles()))
	for i, th := range u.Angles() {
		neg[i] = -th
	}
	require.NoError(s.T(), u.SetAngles(neg))
	require.InDelta(s.T(), -q, u.TopologicalCharge(), 1e-9)

	require.Equal(s.T(), 0.0, lattice.NewGaugeField(s.geom).TopologicalCharge())
}

// TestAlgebraField covers the vector helpers used by the integrator.
func (s *GaugeSuite) TestAlgebraField() {
	a := lattice.NewAlgebraField(s.geom)
	a.Add(1, 2, 3)
	require.Equal(s.T(), 3.0, a.At(1, 2))
	b := a.Clone()
	b.Scale(2)
	a.Axpy(1, b)
	require.Equal(s.T(), 9.0, a.At(1, 2))
	require.Equal(s.T(), 81.0, a.Norm2())
	require.Equal(s.T(), 9.0, a.MaxAbs())
	require.Equal(s.T(), 54.0, a.Dot(b))
	require.False(s.T(), a.HasNaNInf())
	a.Add(0, 0, math.NaN())
	require.True(s.T(), a.HasNaNInf())
	a.Zero()
	require.Equal(s.T(), 0.0, a.Norm2())
}

func TestGaugeSuite(t *testing.T) {
	suite.Run(t, new(GaugeSuite))
}
