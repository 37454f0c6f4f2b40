// SPDX-License-Identifier: MIT

package hmc

import "errors"

var (
	// ErrInvalidHamiltonian is returned when ΔH is NaN or ±Inf.
	ErrInvalidHamiltonian = errors.New("hmc: invalid Hamiltonian (NaN/Inf)")

	// ErrInvalidParams is returned for malformed run parameters.
	ErrInvalidParams = errors.New("hmc: invalid parameters")

	// ErrUnknownStart is returned by ParseStart.
	ErrUnknownStart = errors.New("hmc: unknown start type")

	// ErrNoCheckpointer is returned when checkpointing is requested without a store.
	ErrNoCheckpointer = errors.New("hmc: no checkpointer configured")
)
