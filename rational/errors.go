// SPDX-License-Identifier: MIT

package rational

import "errors"

var (
	// ErrApproximationOutOfRange is returned when an argument or a measured
	// spectrum lies outside the fitted interval.
	ErrApproximationOutOfRange = errors.New("rational: argument outside approximation range")

	// ErrApproximationTolerance is returned when the fitted error exceeds the
	// requested tolerance.
	ErrApproximationTolerance = errors.New("rational: approximation error exceeds tolerance")

	// ErrInvalidParams is returned for malformed fit parameters.
	ErrInvalidParams = errors.New("rational: invalid parameters")

	// ErrRemezFailed is returned when the exchange cannot form a reference set.
	ErrRemezFailed = errors.New("rational: Remez exchange failed")

	// ErrShiftCount is returned when Apply receives the wrong number of shifted solutions.
	ErrShiftCount = errors.New("rational: shifted solution count mismatch")
)
