// SPDX-License-Identifier: MIT

package rng

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// defaultSeed is the fixed parent used to start folding a seed list.
const defaultSeed uint64 = 1

// stateMagic prefixes serialized state.
const stateMagic = "RNG1"

// Context is the explicit RNG state of a run.
type Context struct {
	serialSrc   *rand.PCG
	serial      *rand.Rand
	parallelSrc *rand.PCG
	parallel    *rand.Rand
}

// New returns a Context seeded from the serial and parallel seed lists.
// Returns ErrEmptySeeds if either list is empty.
func New(serialSeeds, parallelSeeds []uint64) (*Context, error) {
	if len(serialSeeds) == 0 || len(parallelSeeds) == 0 {
		return nil, ErrEmptySeeds
	}
	c := &Context{}
	c.serialSrc = newPCG(serialSeeds, 0)
	c.parallelSrc = newPCG(parallelSeeds, 1)
	c.serial = rand.New(c.serialSrc)
	c.parallel = rand.New(c.parallelSrc)

	return c, nil
}

// MustNew is New for tests and examples; it panics on error.
func MustNew(serialSeeds, parallelSeeds []uint64) *Context {
	c, err := New(serialSeeds, parallelSeeds)
	if err != nil {
		panic(err)
	}

	return c
}

// ParseSeeds parses a whitespace-separated list of unsigned integers.
// Returns ErrEmptySeeds or ErrBadSeed.
func ParseSeeds(s string) ([]uint64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, ErrEmptySeeds
	}
	out := make([]uint64, len(fields))
	var err error
	for i, f := range fields {
		out[i], err = strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ParseSeeds: %q: %w", f, ErrBadSeed)
		}
	}

	return out, nil
}

// newPCG folds the seed list into two 64-bit PCG seed words.
// domain separates the serial and parallel streams for identical seed lists.
func newPCG(seeds []uint64, domain uint64) *rand.PCG {
	var x = deriveSeed(defaultSeed, domain)
	for i, s := range seeds {
		x = deriveSeed(x^s, uint64(i)+1)
	}

	return rand.NewPCG(deriveSeed(x, 0), deriveSeed(x, 1))
}

// deriveSeed mixes a parent seed and a stream identifier into a new 64-bit seed.
// SplitMix64 finalizer; see Vigna 2014 for the constants.
//
// Complexity: O(1).
func deriveSeed(parent, stream uint64) uint64 {
	var x uint64
	x = parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return x
}

// Uniform draws from [0,1) on the serial stream.
func (c *Context) Uniform() float64 {
	return c.serial.Float64()
}

// Gaussian draws N(0,1) from the parallel stream.
func (c *Context) Gaussian() float64 {
	return c.parallel.NormFloat64()
}

// FillGaussian fills dst with N(0,1) draws from the parallel stream.
func (c *Context) FillGaussian(dst []float64) {
	for i := range dst {
		dst[i] = c.parallel.NormFloat64()
	}
}

// FillUniform fills dst with uniform draws in [lo,hi) from the parallel stream.
func (c *Context) FillUniform(dst []float64, lo, hi float64) {
	for i := range dst {
		dst[i] = lo + (hi-lo)*c.parallel.Float64()
	}
}

// FillComplexGaussian fills dst with complex Gaussians of unit variance,
// i.e. real and imaginary parts N(0,1/2), so that E[η†η] = len(dst).
func (c *Context) FillComplexGaussian(dst []complex128) {
	s := math.Sqrt(0.5)
	for i := range dst {
		re := c.parallel.NormFloat64()
		im := c.parallel.NormFloat64()
		dst[i] = complex(s*re, s*im)
	}
}

// MarshalBinary encodes both stream states.
// Layout: magic "RNG1", u32 len(serial), serial, u32 len(parallel), parallel.
func (c *Context) MarshalBinary() ([]byte, error) {
	sb, err := c.serialSrc.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("MarshalBinary: serial: %w", err)
	}
	pb, err := c.parallelSrc.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("MarshalBinary: parallel: %w", err)
	}
	out := make([]byte, 0, len(stateMagic)+8+len(sb)+len(pb))
	out = append(out, stateMagic...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(sb)))
	out = append(out, sb...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(pb)))
	out = append(out, pb...)

	return out, nil
}

// UnmarshalBinary restores state produced by MarshalBinary. On error the
// Context is left unchanged.
func (c *Context) UnmarshalBinary(data []byte) error {
	if len(data) < len(stateMagic)+4 || string(data[:len(stateMagic)]) != stateMagic {
		return fmt.Errorf("UnmarshalBinary: header: %w", ErrBadState)
	}
	rest := data[len(stateMagic):]
	sb, rest, ok := chunk(rest)
	if !ok {
		return fmt.Errorf("UnmarshalBinary: serial: %w", ErrBadState)
	}
	pb, rest, ok := chunk(rest)
	if !ok || len(rest) != 0 {
		return fmt.Errorf("UnmarshalBinary: parallel: %w", ErrBadState)
	}
	s, p := &rand.PCG{}, &rand.PCG{}
	if err := s.UnmarshalBinary(sb); err != nil {
		return fmt.Errorf("UnmarshalBinary: serial: %v: %w", err, ErrBadState)
	}
	if err := p.UnmarshalBinary(pb); err != nil {
		return fmt.Errorf("UnmarshalBinary: parallel: %v: %w", err, ErrBadState)
	}
	c.serialSrc, c.parallelSrc = s, p
	c.serial, c.parallel = rand.New(s), rand.New(p)

	return nil
}

// Clone returns an independent copy positioned at the same state.
func (c *Context) Clone() *Context {
	b, err := c.MarshalBinary()
	if err != nil {
		panic(err) // PCG marshalling cannot fail
	}
	out := &Context{}
	if err = out.UnmarshalBinary(b); err != nil {
		panic(err)
	}

	return out
}

func chunk(b []byte) ([]byte, []byte, bool) {
	if len(b) < 4 {
		return nil, nil, false
	}
	n := int(binary.BigEndian.Uint32(b))
	b = b[4:]
	if n > len(b) {
		return nil, nil, false
	}

	return b[:n], b[n:], true
}
