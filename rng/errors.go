// SPDX-License-Identifier: MIT

package rng

import "errors"

var (
	// ErrEmptySeeds is returned when a seed list has no entries.
	ErrEmptySeeds = errors.New("rng: empty seed list")

	// ErrBadSeed is returned when a textual seed cannot be parsed.
	ErrBadSeed = errors.New("rng: malformed seed")

	// ErrBadState is returned when serialized RNG state cannot be decoded.
	ErrBadState = errors.New("rng: malformed state")
)
