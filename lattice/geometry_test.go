// SPDX-License-Identifier: MIT

package lattice_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/latticehmc/lattice"
)

// TestNewGeometry_Errors checks the extent validation.
func TestNewGeometry_Errors(t *testing.T) {
	cases := []struct {
		name string
		dims []int
	}{
		{"Empty", nil},
		{"ExtentOne", []int{4, 1}},
		{"Negative", []int{-2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lattice.NewGeometry(tc.dims...)
			require.ErrorIs(t, err, lattice.ErrInvalidDims)
		})
	}
}

// TestGeometry_Neighbours verifies periodic wrap, Index/Coord agreement and parity.
func TestGeometry_Neighbours(t *testing.T) {
	g, err := lattice.NewGeometry(4, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 24, g.Volume())
	require.Equal(t, 72, g.Links())
	require.Equal(t, 3, g.Nd())
	require.Equal(t, "4x3x2", g.String())
	require.False(t, g.EvenExtents())
	require.Equal(t, 24*3, g.NumPlaquettes())

	for site := 0; site < g.Volume(); site++ {
		c := []int{g.Coord(site, 0), g.Coord(site, 1), g.Coord(site, 2)}
		require.Equal(t, site, g.Index(c...))
		for mu := 0; mu < 3; mu++ {
			f := g.Fwd(site, mu)
			require.Equal(t, site, g.Bwd(f, mu))
			require.NotEqual(t, g.Parity(site), g.Parity(g.Fwd(site, 0)))
		}
	}
	require.Equal(t, g.Index(0, 0, 0), g.Fwd(g.Index(3, 0, 0), 0))
	require.Equal(t, g.Index(3, 2, 1), g.Bwd(g.Index(0, 2, 1), 0))
	require.Equal(t, g.Index(1, 2, 0), g.Index(1, -1, 2))
	require.Equal(t, []int{4, 3, 2}, g.Dims())

	h, _ := lattice.NewGeometry(4, 3, 2)
	k, _ := lattice.NewGeometry(4, 4)
	require.True(t, g.Same(h))
	require.False(t, g.Same(k))
}
