// SPDX-License-Identifier: MIT

// Package checkpoint persists gauge configurations together with the RNG
// state that produced them, so a run can restart bit-identically.
//
// Configuration layout (big-endian, version 1):
//
//	magic      "LHMC"
//	version    uint16
//	nd         uint16
//	dims       nd × uint32
//	trajectory uint64
//	plaquette  float64   (re-checked on load)
//	run id     16 bytes  (uuid, zero when unset)
//	angles     links × float64
//	checksum   BLAKE3-256 of everything above
//
// RNG states are stored as the rng.Context binary form followed by its
// BLAKE3-256 checksum.
//
// Two stores implement the same Save/Load contract: BadgerStore keeps
// everything in one badger database under keys lat/<traj> and rng/<traj>;
// FileStore writes <dir>/<config prefix>.<traj> and <dir>/<rng prefix>.<traj>.
package checkpoint
