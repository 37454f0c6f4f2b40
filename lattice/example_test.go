// SPDX-License-Identifier: MIT

package lattice_test

import (
	"fmt"

	"github.com/katalvlaran/latticehmc/lattice"
)

// ExampleNewGeometry builds a 4×4 lattice and a cold gauge field on it.
func ExampleNewGeometry() {
	g, err := lattice.NewGeometry(4, 4)
	if err != nil {
		fmt.Println(err)
		return
	}
	u := lattice.NewGaugeField(g)
	u.Cold()
	fmt.Println(g, "sites", g.Volume(), "links", g.Links(), "plaquettes", g.NumPlaquettes())
	fmt.Printf("plaquette %.1f action %.1f\n", u.AveragePlaquette(), u.PlaquetteAction())
	// Output:
	// 4x4 sites 16 links 32 plaquettes 16
	// plaquette 1.0 action 0.0
}
