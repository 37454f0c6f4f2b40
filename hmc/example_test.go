// SPDX-License-Identifier: MIT

package hmc_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/latticehmc/action"
	"github.com/katalvlaran/latticehmc/hmc"
	"github.com/katalvlaran/latticehmc/integrator"
	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// ExampleEngine_Run wires a dynamical run: two-flavour fermions on the outer
// timescale, the Wilson gauge action four times finer.
func ExampleEngine_Run() {
	g, _ := lattice.NewGeometry(8, 8)
	u := lattice.NewGaugeField(g)
	op, _ := lattice.NewSchur(g, 0.2, lattice.WithAntiperiodicTime())
	fermions, _ := action.NewTwoFlavour(op)
	gauge, _ := action.NewWilsonGauge(2.0)
	set, _ := action.NewSet(
		action.Level{Multiplier: 1, Actions: []action.Action{fermions}},
		action.Level{Multiplier: 4, Actions: []action.Action{gauge}},
	)
	it, _ := integrator.New(set, integrator.Params{Scheme: integrator.MinimumNorm2, Steps: 10, Length: 1})

	p := hmc.DefaultParams()
	p.SaveInterval = 0
	e, err := hmc.New(u, it, rng.MustNew([]uint64{1, 2, 3, 4, 5}, []uint64{6, 7, 8, 9, 10}), p,
		hmc.WithOnTrajectory(func(r hmc.Result) {
			fmt.Printf("%d ΔH=%+.3e accepted=%t\n", r.Trajectory, r.DeltaH, r.Accepted)
		}))
	if err != nil {
		fmt.Println(err)
		return
	}
	sum, err := e.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("acceptance %.2f\n", sum.AcceptanceRate())
}
