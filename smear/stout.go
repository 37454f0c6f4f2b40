// SPDX-License-Identifier: MIT

package smear

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/latticehmc/lattice"
)

// ErrInvalidSmearing is returned for a negative ρ or step count.
var ErrInvalidSmearing = errors.New("smear: rho and steps must be non-negative")

// ErrStack is returned when Pullback receives a stack that Smear did not build.
var ErrStack = errors.New("smear: stack does not match smearing steps")

// Stout holds the smearing parameters.
type Stout struct {
	Rho   float64 // step size ρ
	Steps int     // number of smearing steps
}

// NewStout validates and returns the smearing.
func NewStout(rho float64, steps int) (*Stout, error) {
	if rho < 0 || steps < 0 {
		return nil, fmt.Errorf("NewStout(%g, %d): %w", rho, steps, ErrInvalidSmearing)
	}

	return &Stout{Rho: rho, Steps: steps}, nil
}

// Smear returns the stack θ^0..θ^Steps; θ^0 is a copy of u and the last
// element is the smeared field. u is not modified.
// Complexity: O(Steps·V·Nd²).
func (s *Stout) Smear(u *lattice.GaugeField) ([]*lattice.GaugeField, error) {
	stack := make([]*lattice.GaugeField, 0, s.Steps+1)
	cur := u.Clone()
	stack = append(stack, cur)
	grad := lattice.NewAlgebraField(u.Geometry())
	for k := 0; k < s.Steps; k++ {
		next := cur.Clone()
		grad.Zero()
		cur.AddPlaquetteGradient(1, grad)
		if err := next.Update(-s.Rho, grad); err != nil {
			return nil, fmt.Errorf("Smear: step %d: %w", k, err)
		}
		stack = append(stack, next)
		cur = next
	}

	return stack, nil
}

// Pullback maps a force computed on stack[len-1] to the fundamental field,
// in place.
func (s *Stout) Pullback(stack []*lattice.GaugeField, force *lattice.AlgebraField) error {
	if len(stack) != s.Steps+1 {
		return fmt.Errorf("Pullback: %d fields for %d steps: %w", len(stack), s.Steps, ErrStack)
	}
	hv := lattice.NewAlgebraField(force.Geometry())
	for k := s.Steps - 1; k >= 0; k-- {
		hv.Zero()
		stack[k].AddPlaquetteHessian(1, force, hv)
		force.Axpy(-s.Rho, hv)
	}

	return nil
}
