// SPDX-License-Identifier: MIT

package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/katalvlaran/latticehmc/lattice"
)

const (
	magic         = "LHMC"
	formatVersion = 1
	checksumSize  = 32
	// plaquetteTol bounds the mismatch between stored and recomputed plaquette.
	plaquetteTol = 1e-12
)

// Header is the metadata of a stored configuration.
type Header struct {
	Version    int
	Dims       []int
	Trajectory int
	Plaquette  float64
	RunID      uuid.UUID
}

// Encode serialises u with its metadata.
func Encode(traj int, u *lattice.GaugeField, runID uuid.UUID) []byte {
	var (
		g    = u.Geometry()
		dims = g.Dims()
		buf  bytes.Buffer
	)
	buf.Grow(4 + 4 + 4*len(dims) + 8 + 8 + 16 + 8*g.Links() + checksumSize)
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.BigEndian, uint16(formatVersion))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(dims)))
	for _, d := range dims {
		_ = binary.Write(&buf, binary.BigEndian, uint32(d))
	}
	_ = binary.Write(&buf, binary.BigEndian, uint64(traj))
	_ = binary.Write(&buf, binary.BigEndian, math.Float64bits(u.AveragePlaquette()))
	buf.Write(runID[:])
	var word [8]byte
	for _, th := range u.Angles() {
		binary.BigEndian.PutUint64(word[:], math.Float64bits(th))
		buf.Write(word[:])
	}
	sum := blake3.Sum256(buf.Bytes())
	buf.Write(sum[:])

	return buf.Bytes()
}

// verify checks and strips the trailing checksum.
func verify(data []byte) ([]byte, error) {
	if len(data) < checksumSize {
		return nil, fmt.Errorf("%d bytes: %w", len(data), ErrCorrupt)
	}
	body, tail := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], tail) {
		return nil, fmt.Errorf("checksum mismatch: %w", ErrCorrupt)
	}

	return body, nil
}

// DecodeHeader verifies the checksum and parses the metadata. It returns the
// header and the offset of the angle block within data.
func DecodeHeader(data []byte) (Header, int, error) {
	body, err := verify(data)
	if err != nil {
		return Header{}, 0, err
	}
	r := bytes.NewReader(body)
	var (
		m       [4]byte
		version uint16
		nd      uint16
		h       Header
	)
	if _, err = io.ReadFull(r, m[:]); err != nil || string(m[:]) != magic {
		return Header{}, 0, fmt.Errorf("magic %q: %w", m[:], ErrCorrupt)
	}
	if err = binary.Read(r, binary.BigEndian, &version); err != nil {
		return Header{}, 0, fmt.Errorf("version: %w", ErrCorrupt)
	}
	if version != formatVersion {
		return Header{}, 0, fmt.Errorf("version %d: %w", version, ErrVersion)
	}
	if err = binary.Read(r, binary.BigEndian, &nd); err != nil || nd == 0 {
		return Header{}, 0, fmt.Errorf("dimension count: %w", ErrCorrupt)
	}
	h.Version = int(version)
	h.Dims = make([]int, nd)
	for i := range h.Dims {
		var d uint32
		if err = binary.Read(r, binary.BigEndian, &d); err != nil {
			return Header{}, 0, fmt.Errorf("dims: %w", ErrCorrupt)
		}
		h.Dims[i] = int(d)
	}
	var traj, plaq uint64
	if err = binary.Read(r, binary.BigEndian, &traj); err != nil {
		return Header{}, 0, fmt.Errorf("trajectory: %w", ErrCorrupt)
	}
	if err = binary.Read(r, binary.BigEndian, &plaq); err != nil {
		return Header{}, 0, fmt.Errorf("plaquette: %w", ErrCorrupt)
	}
	if _, err = io.ReadFull(r, h.RunID[:]); err != nil {
		return Header{}, 0, fmt.Errorf("run id: %w", ErrCorrupt)
	}
	h.Trajectory = int(traj)
	h.Plaquette = math.Float64frombits(plaq)

	return h, len(body) - r.Len(), nil
}

// Decode verifies data and writes the stored angles into u.
func Decode(data []byte, u *lattice.GaugeField) (Header, error) {
	// Stage 1: Header and geometry
	h, off, err := DecodeHeader(data)
	if err != nil {
		return Header{}, err
	}
	g := u.Geometry()
	if !slices.Equal(h.Dims, g.Dims()) {
		return Header{}, fmt.Errorf("stored %v, field %s: %w", h.Dims, g, ErrGeometry)
	}
	angles := data[off : len(data)-checksumSize]
	if len(angles) != 8*g.Links() {
		return Header{}, fmt.Errorf("%d angle bytes for %d links: %w", len(angles), g.Links(), ErrCorrupt)
	}

	// Stage 2: Angles
	theta := make([]float64, g.Links())
	for i := range theta {
		theta[i] = math.Float64frombits(binary.BigEndian.Uint64(angles[8*i:]))
	}
	tmp := lattice.NewGaugeField(g)
	if err = tmp.SetAngles(theta); err != nil {
		return Header{}, err
	}

	// Stage 3: Plaquette cross-check before touching u
	if p := tmp.AveragePlaquette(); math.Abs(p-h.Plaquette) > plaquetteTol {
		return Header{}, fmt.Errorf("plaquette %.15g, stored %.15g: %w", p, h.Plaquette, ErrCorrupt)
	}
	if err = u.CopyFrom(tmp); err != nil {
		return Header{}, err
	}

	return h, nil
}

// sealState appends a checksum to an RNG state.
func sealState(state []byte) []byte {
	sum := blake3.Sum256(state)
	out := make([]byte, 0, len(state)+checksumSize)
	out = append(out, state...)

	return append(out, sum[:]...)
}

// openState verifies and strips the checksum of a sealed RNG state.
func openState(data []byte) ([]byte, error) {
	body, err := verify(data)
	if err != nil {
		return nil, fmt.Errorf("rng state: %w", err)
	}

	return slices.Clone(body), nil
}
