// SPDX-License-Identifier: MIT

package hmc

import (
	"fmt"
	"strings"
)

// Start selects the initial gauge field.
type Start int

const (
	StartCold Start = iota
	StartHot
	StartTepid
	StartCheckpoint
)

var startNames = [...]string{"cold", "hot", "tepid", "checkpoint"}

// String returns the start name.
func (s Start) String() string {
	if s < 0 || int(s) >= len(startNames) {
		return fmt.Sprintf("Start(%d)", int(s))
	}

	return startNames[s]
}

// ParseStart parses a start name (case-insensitive).
func ParseStart(s string) (Start, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, n := range startNames {
		if v == n {
			return Start(i), nil
		}
	}

	return 0, fmt.Errorf("ParseStart(%q): %w", s, ErrUnknownStart)
}

// Default run parameters.
const (
	DefaultTrajectories = 10
	DefaultSaveInterval = 1
	DefaultTepidWidth   = 0.1
)

// Params configures a run.
type Params struct {
	Trajectories      int     // trajectories to generate
	StartTrajectory   int     // index of the first trajectory; the checkpoint to load for StartCheckpoint
	Start             Start   // initial field
	TepidWidth        float64 // angle range for StartTepid
	NoMetropolisUntil int     // trajectories with index below this are accepted without a test
	MetropolisTest    bool    // false accepts every trajectory (thermalisation runs)
	SaveInterval      int     // checkpoint every SaveInterval completed trajectories; 0 disables
}

// DefaultParams returns a cold start with the Metropolis test on and a
// checkpoint after every trajectory.
func DefaultParams() Params {
	return Params{
		Trajectories:   DefaultTrajectories,
		Start:          StartCold,
		TepidWidth:     DefaultTepidWidth,
		MetropolisTest: true,
		SaveInterval:   DefaultSaveInterval,
	}
}

// Validate checks the parameter domain.
func (p Params) Validate() error {
	switch {
	case p.Trajectories < 0 || p.StartTrajectory < 0 || p.NoMetropolisUntil < 0 || p.SaveInterval < 0:
		return fmt.Errorf("negative count in %+v: %w", p, ErrInvalidParams)
	case p.Start < StartCold || p.Start > StartCheckpoint:
		return fmt.Errorf("%s: %w", p.Start, ErrUnknownStart)
	case p.Start == StartTepid && !(p.TepidWidth > 0):
		return fmt.Errorf("tepid width %g: %w", p.TepidWidth, ErrInvalidParams)
	}

	return nil
}
