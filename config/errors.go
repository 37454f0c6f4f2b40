// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrInvalidConfig is returned for a configuration that fails validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrUnknownActionType is returned for an unrecognised action type.
	ErrUnknownActionType = errors.New("config: unknown action type")
)
