// SPDX-License-Identifier: MIT

package lattice

import "errors"

var (
	// ErrInvalidDims is returned for an empty dimension list or an extent < 2.
	ErrInvalidDims = errors.New("lattice: invalid lattice dimensions")

	// ErrOddExtent is returned when even-odd preconditioning needs even extents.
	ErrOddExtent = errors.New("lattice: even-odd preconditioning requires even extents")

	// ErrUnsupportedNd is returned when a fermion operator has no gamma basis for Nd.
	ErrUnsupportedNd = errors.New("lattice: fermion operator supports Nd = 2 or 4 only")

	// ErrGeometryMismatch is returned when two fields live on different lattices.
	ErrGeometryMismatch = errors.New("lattice: geometry mismatch")

	// ErrLength is returned when a raw slice does not match the field size.
	ErrLength = errors.New("lattice: slice length does not match field size")

	// ErrBadPhases is returned when boundary phases do not have one entry per direction.
	ErrBadPhases = errors.New("lattice: need one boundary phase per direction")
)
