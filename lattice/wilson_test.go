// SPDX-License-Identifier: MIT

package lattice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/latticehmc/matrix"
	"github.com/katalvlaran/latticehmc/rng"
)

func randomSpinor(r *rng.Context, n int) []complex128 {
	v := make([]complex128, n)
	r.FillComplexGaussian(v)

	return v
}

func hotField(t *testing.T, r *rng.Context, dims ...int) *GaugeField {
	t.Helper()
	g, err := NewGeometry(dims...)
	require.NoError(t, err)
	u := NewGaugeField(g)
	u.Hot(r)

	return u
}

// TestWilson_FreeConstantMode checks M·ψ = m·ψ for a constant spinor on a cold field.
func TestWilson_FreeConstantMode(t *testing.T) {
	for _, dims := range [][]int{{4, 4}, {2, 2, 2, 4}} {
		g, err := NewGeometry(dims...)
		require.NoError(t, err)
		w, err := NewWilson(g, 0.3)
		require.NoError(t, err)
		u := NewGaugeField(g)

		src := make([]complex128, w.Size())
		for i := range src {
			src[i] = complex(float64(i%w.Ns())+1, -0.5)
		}
		dst := make([]complex128, w.Size())
		w.M(u, dst, src)
		for i := range dst {
			require.InDelta(t, 0.3*real(src[i]), real(dst[i]), 1e-12)
			require.InDelta(t, 0.3*imag(src[i]), imag(dst[i]), 1e-12)
		}
	}
}

// TestWilson_Adjoint verifies a†(M b) = (M† a)† b and γ5-hermiticity.
func TestWilson_Adjoint(t *testing.T) {
	r := rng.MustNew([]uint64{1}, []uint64{2})
	for _, dims := range [][]int{{4, 4}, {2, 2, 2, 4}} {
		u := hotField(t, r, dims...)
		w, err := NewWilson(u.Geometry(), 0.1, WithAntiperiodicTime())
		require.NoError(t, err)
		a := randomSpinor(r, w.Size())
		b := randomSpinor(r, w.Size())

		mb := make([]complex128, w.Size())
		mda := make([]complex128, w.Size())
		w.M(u, mb, b)
		w.Mdag(u, mda, a)
		lhs, rhs := matrix.Dot(a, mb), matrix.Dot(mda, b)
		require.InDelta(t, real(lhs), real(rhs), 1e-10)
		require.InDelta(t, imag(lhs), imag(rhs), 1e-10)

		// γ5 M γ5 = M†
		g5b := make([]complex128, w.Size())
		tmp := make([]complex128, w.Size())
		w.G5(b, g5b)
		w.M(u, tmp, g5b)
		w.G5(tmp, g5b)
		w.Mdag(u, tmp, b)
		for i := range tmp {
			require.InDelta(t, real(tmp[i]), real(g5b[i]), 1e-12)
			require.InDelta(t, imag(tmp[i]), imag(g5b[i]), 1e-12)
		}
	}
}

// TestWilson_BadOptions covers constructor validation.
func TestWilson_BadOptions(t *testing.T) {
	g3, _ := NewGeometry(2, 2, 2)
	_, err := NewWilson(g3, 0.1)
	require.ErrorIs(t, err, ErrUnsupportedNd)

	g2, _ := NewGeometry(4, 4)
	_, err = NewWilson(g2, 0.1, WithBoundaryPhases(1))
	require.ErrorIs(t, err, ErrBadPhases)

	g5, _ := NewGeometry(3, 4)
	_, err = NewSchur(g5, 0.1)
	require.ErrorIs(t, err, ErrOddExtent)
}

// derivCheck compares op.Deriv against central differences of Re(L† M R).
func derivCheck(t *testing.T, op FermionOperator, u *GaugeField, l, rr []complex128) {
	t.Helper()
	force := NewAlgebraField(u.Geometry())
	op.Deriv(u, force, l, rr, 1)

	f := func() float64 {
		dst := make([]complex128, op.Size())
		op.M(u, dst, rr)
		return real(matrix.Dot(l, dst))
	}
	const h = 1e-5
	g := u.Geometry()
	for link := 0; link < g.Links(); link += 3 {
		site, mu := link/g.Nd(), link%g.Nd()
		th := u.Angle(site, mu)
		u.SetAngle(site, mu, th+h)
		fp := f()
		u.SetAngle(site, mu, th-h)
		fm := f()
		u.SetAngle(site, mu, th)
		require.InDelta(t, (fp-fm)/(2*h), force.At(site, mu), 1e-6, "link %d", link)
	}
}

// TestWilson_Deriv checks the link derivative of the full operator.
func TestWilson_Deriv(t *testing.T) {
	r := rng.MustNew([]uint64{3}, []uint64{4})
	for _, dims := range [][]int{{4, 4}, {2, 2, 2, 2}} {
		u := hotField(t, r, dims...)
		w, err := NewWilson(u.Geometry(), 0.2, WithAntiperiodicTime())
		require.NoError(t, err)
		derivCheck(t, w, u, randomSpinor(r, w.Size()), randomSpinor(r, w.Size()))
	}
}

// TestSchur_Deriv checks the link derivative of the preconditioned operator.
func TestSchur_Deriv(t *testing.T) {
	r := rng.MustNew([]uint64{5}, []uint64{6})
	u := hotField(t, r, 4, 4)
	s, err := NewSchur(u.Geometry(), 0.2)
	require.NoError(t, err)
	l, rr := randomSpinor(r, s.Size()), randomSpinor(r, s.Size())
	s.Project(l)
	s.Project(rr)
	derivCheck(t, s, u, l, rr)
}

// TestSchur_Complement checks that the odd-site Schur operator reproduces the
// full operator: with x_e = H_eo·x_o/a the full M·x vanishes on even sites and
// equals M̂·x_o on odd sites.
func TestSchur_Complement(t *testing.T) {
	r := rng.MustNew([]uint64{7}, []uint64{8})
	u := hotField(t, r, 4, 4)
	s, err := NewSchur(u.Geometry(), 0.15)
	require.NoError(t, err)

	xo := randomSpinor(r, s.Size())
	s.Project(xo)
	xe := make([]complex128, s.Size())
	s.halfHop(u, xe, xo, +1, false)
	matrix.Scale(1/s.a, xe)

	x := make([]complex128, s.Size())
	for i := range x {
		x[i] = xo[i] + xe[i]
	}
	full := make([]complex128, s.Size())
	s.Wilson().M(u, full, x)
	hat := make([]complex128, s.Size())
	s.M(u, hat, xo)
	for i := range full {
		require.InDelta(t, real(hat[i]), real(full[i]), 1e-12)
		require.InDelta(t, imag(hat[i]), imag(full[i]), 1e-12)
	}

	// adjoint
	a := randomSpinor(r, s.Size())
	s.Project(a)
	mda := make([]complex128, s.Size())
	s.Mdag(u, mda, a)
	lhs, rhs := matrix.Dot(a, hat), matrix.Dot(mda, xo)
	require.InDelta(t, real(lhs), real(rhs), 1e-10)
	require.InDelta(t, imag(lhs), imag(rhs), 1e-10)
}

// TestSloppy_RoundsToSinglePrecision checks the sloppy operator stays close.
func TestSloppy_RoundsToSinglePrecision(t *testing.T) {
	r := rng.MustNew([]uint64{9}, []uint64{10})
	u := hotField(t, r, 4, 4)
	w, err := NewWilson(u.Geometry(), 0.2)
	require.NoError(t, err)
	sl := NewSloppy(w)
	require.Equal(t, w.Size(), sl.Size())

	b := randomSpinor(r, w.Size())
	exact := make([]complex128, w.Size())
	sloppy := make([]complex128, w.Size())
	w.M(u, exact, b)
	sl.M(u, sloppy, b)
	diff := make([]complex128, w.Size())
	matrix.Sub(diff, exact, sloppy)
	rel := matrix.Norm(diff) / matrix.Norm(exact)
	require.Less(t, rel, 1e-6)
	require.Greater(t, rel, 0.0)
}
