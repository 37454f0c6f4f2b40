// SPDX-License-Identifier: MIT

package hmc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetropolis(t *testing.T) {
	require.True(t, metropolis(-0.5, 0.999))
	require.True(t, metropolis(0, 0.999))
	require.True(t, metropolis(1, math.Exp(-1)))
	require.False(t, metropolis(1, math.Exp(-1)+1e-12))
	require.False(t, metropolis(1000, 1e-300))
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	p := DefaultParams()
	p.Start = StartTepid
	p.TepidWidth = 0
	require.ErrorIs(t, p.Validate(), ErrInvalidParams)
	p = DefaultParams()
	p.SaveInterval = -1
	require.ErrorIs(t, p.Validate(), ErrInvalidParams)
	p = DefaultParams()
	p.Start = Start(9)
	require.ErrorIs(t, p.Validate(), ErrUnknownStart)
	require.Equal(t, "Start(9)", p.Start.String())
}
