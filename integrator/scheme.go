// SPDX-License-Identifier: MIT

package integrator

import (
	"fmt"
	"strings"
)

// Scheme selects the symplectic composition.
type Scheme int

const (
	LeapFrog Scheme = iota
	MinimumNorm2
	ForceGradient
)

// Scheme coefficients.
const (
	mn2Lambda = 0.1931833275037836
	fgLambda  = 1.0 / 6.0
	fgChi     = 1.0 / 72.0
)

var schemeNames = [...]string{"leapfrog", "minimum-norm2", "force-gradient"}

// String returns the canonical scheme name.
func (s Scheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return fmt.Sprintf("Scheme(%d)", int(s))
	}

	return schemeNames[s]
}

// ParseScheme accepts the canonical names plus the short aliases
// "lf", "mn2", "omelyan" and "fg" (case-insensitive).
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leapfrog", "lf":
		return LeapFrog, nil
	case "minimum-norm2", "minimumnorm2", "mn2", "omelyan":
		return MinimumNorm2, nil
	case "force-gradient", "forcegradient", "fg":
		return ForceGradient, nil
	}

	return 0, fmt.Errorf("ParseScheme(%q): %w", s, ErrUnknownScheme)
}

// Order returns the nominal order of the energy violation, ΔH = O(ε^Order).
func (s Scheme) Order() int {
	if s == ForceGradient {
		return 4
	}

	return 2
}

// State is the integrator state.
type State int

const (
	Idle State = iota
	MomentumRefreshed
	Integrating
	Completed
)

var stateNames = [...]string{"idle", "momentum-refreshed", "integrating", "completed"}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}
