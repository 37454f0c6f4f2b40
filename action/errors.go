// SPDX-License-Identifier: MIT

package action

import "errors"

var (
	// ErrActionLevelOrdering is returned by NewSet when a multiplier is < 1 or
	// multipliers decrease with the level index.
	ErrActionLevelOrdering = errors.New("action: level multipliers must be >= 1 and non-decreasing")

	// ErrEmptySet is returned by NewSet without levels or actions.
	ErrEmptySet = errors.New("action: empty action set")

	// ErrNilAction is returned when a level contains a nil action.
	ErrNilAction = errors.New("action: nil action")

	// ErrNotRefreshed is returned when a pseudofermion action is evaluated
	// before its first heat bath.
	ErrNotRefreshed = errors.New("action: pseudofermion not refreshed")

	// ErrInvalidParameter is returned for malformed action parameters.
	ErrInvalidParameter = errors.New("action: invalid parameter")

	// ErrOperatorMismatch is returned when numerator and denominator
	// operators act on different spaces.
	ErrOperatorMismatch = errors.New("action: operator size mismatch")
)
