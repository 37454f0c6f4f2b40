// SPDX-License-Identifier: MIT

package checkpoint

import "errors"

var (
	// ErrNotFound is returned when no snapshot exists for a trajectory.
	ErrNotFound = errors.New("checkpoint: not found")

	// ErrCorrupt is returned for a bad magic, truncated data, a checksum
	// mismatch or a plaquette that does not match the stored angles.
	ErrCorrupt = errors.New("checkpoint: corrupt data")

	// ErrVersion is returned for an unsupported layout version.
	ErrVersion = errors.New("checkpoint: unsupported version")

	// ErrGeometry is returned when the stored lattice differs from the target field.
	ErrGeometry = errors.New("checkpoint: lattice dimensions differ")
)
