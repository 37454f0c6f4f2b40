// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/latticehmc/matrix"
)

// TestDot_Hermitian checks a†b conjugates the left operand.
func TestDot_Hermitian(t *testing.T) {
	a := []complex128{1 + 2i, 3 - 1i}
	b := []complex128{2 - 1i, 1i}
	want := complex(0, 0)
	for i := range a {
		want += complex(real(a[i]), -imag(a[i])) * b[i]
	}
	require.Equal(t, want, matrix.Dot(a, b))
	require.InDelta(t, real(want), matrix.RealDot(a, b), 1e-15)
	require.InDelta(t, 15.0, matrix.Norm2(a), 1e-15)
	require.InDelta(t, math.Sqrt(15), matrix.Norm(a), 1e-15)
}

// TestAxpyXpayScale exercises the in-place update kernels.
func TestAxpyXpayScale(t *testing.T) {
	x := []complex128{1, 1i}
	y := []complex128{2, 3}
	matrix.Axpy(2i, x, y)
	require.Equal(t, []complex128{2 + 2i, 1}, y)

	matrix.AxpyReal(-1, x, y)
	require.Equal(t, []complex128{1 + 2i, 1 - 1i}, y)

	matrix.Xpay(x, 2, y)
	require.Equal(t, []complex128{3 + 4i, 2 - 1i}, y)

	matrix.Scale(0.5, y)
	require.Equal(t, []complex128{1.5 + 2i, 1 - 0.5i}, y)

	matrix.Sub(y, y, y)
	require.Equal(t, []complex128{0, 0}, y)

	c := matrix.CloneVec(x)
	matrix.Zero(x)
	require.Equal(t, []complex128{1, 1i}, c)
	require.Equal(t, []complex128{0, 0}, x)
}

// TestDot_LengthMismatchPanics documents the programmer-error contract.
func TestDot_LengthMismatchPanics(t *testing.T) {
	require.Panics(t, func() { matrix.Dot([]complex128{1}, []complex128{1, 2}) })
}

// TestRoundComplex64 verifies rounding to single precision.
func TestRoundComplex64(t *testing.T) {
	x := []complex128{complex(1+1e-12, -1e-12)}
	matrix.RoundComplex64(x)
	require.Equal(t, complex128(complex64(complex(1+1e-12, -1e-12))), x[0])
	require.False(t, matrix.HasNaNInf(x))
	require.True(t, matrix.HasNaNInf([]complex128{complex(math.NaN(), 0)}))
	require.True(t, matrix.HasNaNInf([]complex128{complex(0, math.Inf(1))}))
}

// TestDense_Basics covers construction, indexing and MulVec.
func TestDense_Basics(t *testing.T) {
	_, err := matrix.NewDense(0, 2)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	m, err := matrix.NewSymTridiagonal([]float64{2, 2, 2}, []float64{-1, -1})
	require.NoError(t, err)
	v, err := m.At(0, 1)
	require.NoError(t, err)
	require.Equal(t, -1.0, v)
	v, _ = m.At(0, 2)
	require.Equal(t, 0.0, v)

	_, err = m.At(3, 0)
	require.True(t, errors.Is(err, matrix.ErrOutOfRange))

	dst := make([]float64, 3)
	require.NoError(t, m.MulVec(dst, []float64{1, 1, 1}))
	require.Equal(t, []float64{1, 0, 1}, dst)
	require.ErrorIs(t, m.MulVec(dst, []float64{1}), matrix.ErrDimensionMismatch)

	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 9))
	v, _ = m.At(0, 0)
	require.Equal(t, 2.0, v)

	_, err = matrix.NewSymTridiagonal([]float64{1, 2}, nil)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
