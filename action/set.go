// SPDX-License-Identifier: MIT

package action

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/latticehmc/lattice"
	"github.com/katalvlaran/latticehmc/rng"
)

// Level groups actions integrated on the same time scale. Multiplier is the
// number of steps of this level per step of the previous one.
type Level struct {
	Multiplier int
	Actions    []Action
}

// Set is a validated, ordered collection of levels. Level 0 is the outermost
// (coarsest) time scale; level k takes N·Π_{j≤k} Multiplier_j steps per
// trajectory of N outer steps.
type Set struct {
	levels []Level
}

// NewSet validates levels and returns the set.
// Returns ErrEmptySet, ErrNilAction or ErrActionLevelOrdering.
func NewSet(levels ...Level) (*Set, error) {
	// Stage 1: Validate shape
	if len(levels) == 0 {
		return nil, ErrEmptySet
	}
	var (
		prev  = 1
		total int
	)
	for i, lv := range levels {
		if lv.Multiplier < 1 || (i > 0 && lv.Multiplier < prev) {
			return nil, fmt.Errorf("NewSet: level %d multiplier %d after %d: %w", i, lv.Multiplier, prev, ErrActionLevelOrdering)
		}
		prev = lv.Multiplier
		for j, a := range lv.Actions {
			if a == nil {
				return nil, fmt.Errorf("NewSet: level %d action %d: %w", i, j, ErrNilAction)
			}
		}
		total += len(lv.Actions)
	}
	if total == 0 {
		return nil, ErrEmptySet
	}

	// Stage 2: Copy so later edits by the caller do not leak in
	out := make([]Level, len(levels))
	for i, lv := range levels {
		out[i] = Level{Multiplier: lv.Multiplier, Actions: append([]Action(nil), lv.Actions...)}
	}

	return &Set{levels: out}, nil
}

// Levels returns the number of levels.
func (s *Set) Levels() int { return len(s.levels) }

// Level returns level i.
func (s *Set) Level(i int) Level { return s.levels[i] }

// Steps returns the number of steps level i takes per trajectory of n outer steps.
func (s *Set) Steps(i, n int) int {
	steps := n
	for j := 0; j <= i; j++ {
		steps *= s.levels[j].Multiplier
	}

	return steps
}

// Actions returns every action in level order.
func (s *Set) Actions() []Action {
	var out []Action
	for _, lv := range s.levels {
		out = append(out, lv.Actions...)
	}

	return out
}

// Refresh refreshes every action, levels in order, so the RNG is consumed
// deterministically.
func (s *Set) Refresh(u *lattice.GaugeField, r *rng.Context) error {
	for i, lv := range s.levels {
		for _, a := range lv.Actions {
			if err := a.Refresh(u, r); err != nil {
				return fmt.Errorf("refresh level %d %s: %w", i, a.Name(), err)
			}
		}
	}

	return nil
}

// Energy returns Σ S_a, summed in level order.
func (s *Set) Energy(u *lattice.GaugeField) (float64, error) {
	var total float64
	for i, lv := range s.levels {
		for _, a := range lv.Actions {
			e, err := a.Energy(u)
			if err != nil {
				return 0, fmt.Errorf("energy level %d %s: %w", i, a.Name(), err)
			}
			total += e
		}
	}

	return total, nil
}

// String renders the level layout, e.g. "[1: wilson-gauge] [2: two-flavour]".
func (s *Set) String() string {
	var sb strings.Builder
	for i, lv := range s.levels {
		if i > 0 {
			sb.WriteByte(' ')
		}
		names := make([]string, len(lv.Actions))
		for j, a := range lv.Actions {
			names[j] = a.Name()
		}
		fmt.Fprintf(&sb, "[%d: %s]", lv.Multiplier, strings.Join(names, ", "))
	}

	return sb.String()
}
