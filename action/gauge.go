// SPDX-License-Identifier: MIT

package action

import (
	"fmt"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// WilsonGauge is the plaquette action S = β Σ_p (1 − cos θ_p).
type WilsonGauge struct {
	Beta float64
}

// NewWilsonGauge returns the gauge action at coupling beta > 0.
func NewWilsonGauge(beta float64) (*WilsonGauge, error) {
	if !(beta > 0) {
		return nil, fmt.Errorf("NewWilsonGauge(%g): %w", beta, ErrInvalidParameter)
	}

	return &WilsonGauge{Beta: beta}, nil
}

// Name implements Action.
func (g *WilsonGauge) Name() string { return "wilson-gauge" }

// Refresh is a no-op: the gauge action has no auxiliary fields.
func (g *WilsonGauge) Refresh(*lattice.GaugeField, *rng.Context) error { return nil }

// Energy implements Action.
func (g *WilsonGauge) Energy(u *lattice.GaugeField) (float64, error) {
	return g.Beta * u.PlaquetteAction(), nil
}

// Force implements Action.
func (g *WilsonGauge) Force(u *lattice.GaugeField, dst *lattice.AlgebraField) error {
	dst.Zero()
	u.AddPlaquetteGradient(g.Beta, dst)

	return nil
}
