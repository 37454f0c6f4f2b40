// SPDX-License-Identifier: MIT

package lattice

import (
	"fmt"
	"math"

	"github.com/katalvlaran/latticehmc/rng"
)

// AlgebraField holds one real Lie-algebra element per link. It represents
// both conjugate momenta and forces.
type AlgebraField struct {
	geom *Geometry
	data []float64
}

// NewAlgebraField returns a zero field on g.
func NewAlgebraField(g *Geometry) *AlgebraField {
	return &AlgebraField{geom: g, data: make([]float64, g.Links())}
}

// Geometry returns the lattice the field lives on.
func (a *AlgebraField) Geometry() *Geometry { return a.geom }

// Data exposes the raw per-link values.
func (a *AlgebraField) Data() []float64 { return a.data }

// At returns the value on link (site, mu).
func (a *AlgebraField) At(site, mu int) float64 { return a.data[a.geom.Link(site, mu)] }

// Add adds v to link (site, mu).
func (a *AlgebraField) Add(site, mu int, v float64) { a.data[a.geom.Link(site, mu)] += v }

// Zero clears the field.
func (a *AlgebraField) Zero() {
	for i := range a.data {
		a.data[i] = 0
	}
}

// Gaussian draws every component from N(0,1) on the parallel stream.
func (a *AlgebraField) Gaussian(r *rng.Context) { r.FillGaussian(a.data) }

// Norm2 returns Σ P².
func (a *AlgebraField) Norm2() float64 {
	var s float64
	for _, v := range a.data {
		s += v * v
	}

	return s
}

// MaxAbs returns the largest |component|, used in force diagnostics.
func (a *AlgebraField) MaxAbs() float64 {
	var m float64
	for _, v := range a.data {
		m = math.Max(m, math.Abs(v))
	}

	return m
}

// Axpy computes a += alpha·x.
func (a *AlgebraField) Axpy(alpha float64, x *AlgebraField) {
	for i, v := range x.data {
		a.data[i] += alpha * v
	}
}

// Scale multiplies every component by s.
func (a *AlgebraField) Scale(s float64) {
	for i := range a.data {
		a.data[i] *= s
	}
}

// CopyFrom overwrites a with src. Returns ErrGeometryMismatch.
func (a *AlgebraField) CopyFrom(src *AlgebraField) error {
	if !a.geom.Same(src.geom) {
		return fmt.Errorf("CopyFrom: %w", ErrGeometryMismatch)
	}
	copy(a.data, src.data)

	return nil
}

// Clone returns a deep copy.
func (a *AlgebraField) Clone() *AlgebraField {
	out := NewAlgebraField(a.geom)
	copy(out.data, a.data)

	return out
}

// Dot returns Σ a·b.
func (a *AlgebraField) Dot(b *AlgebraField) float64 {
	var s float64
	for i, v := range a.data {
		s += v * b.data[i]
	}

	return s
}

// HasNaNInf reports whether any component is NaN or ±Inf.
func (a *AlgebraField) HasNaNInf() bool {
	for _, v := range a.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}

	return false
}
