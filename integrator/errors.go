// SPDX-License-Identifier: MIT

package integrator

import "errors"

var (
	// ErrInvalidState is returned for a call that the current state does not allow.
	ErrInvalidState = errors.New("integrator: invalid state transition")

	// ErrInvalidParams is returned for a non-positive step count or length.
	ErrInvalidParams = errors.New("integrator: invalid parameters")

	// ErrUnknownScheme is returned by ParseScheme.
	ErrUnknownScheme = errors.New("integrator: unknown scheme")

	// ErrGeometryMismatch is returned when Integrate receives a field from a
	// different lattice than Refresh.
	ErrGeometryMismatch = errors.New("integrator: gauge field geometry changed")
)
