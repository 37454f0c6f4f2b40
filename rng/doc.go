// SPDX-License-Identifier: MIT

// Package rng provides the explicit, checkpointable random-number context
// consumed by the HMC engine.
//
// A Context owns two independent deterministic streams:
//
//   - the serial stream, drawn only by the Metropolis accept/reject test;
//   - the parallel stream, drawn by momentum and pseudofermion heat baths.
//
// Both streams are PCG generators (math/rand/v2) seeded from a list of
// integers, the way the run configuration writes them ("1 2 3 4 5"). The seed
// list is folded through a SplitMix64 finalizer so that nearby seed lists
// produce unrelated streams.
//
// Concurrency: a Context is NOT goroutine-safe. The engine consumes it from a
// single control goroutine; consumption order is part of the reproducibility
// contract and is preserved across MarshalBinary/UnmarshalBinary.
package rng
