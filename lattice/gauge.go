// SPDX-License-Identifier: MIT

package lattice

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/katalvlaran/latticehmc/rng"
)

// GaugeField holds one U(1) link angle per (site, direction).
// Every mutation bumps Version, which derived-field caches key on.
type GaugeField struct {
	geom    *Geometry
	theta   []float64
	version uint64
}

// NewGaugeField returns the cold (unit) configuration on g.
func NewGaugeField(g *Geometry) *GaugeField {
	return &GaugeField{geom: g, theta: make([]float64, g.Links())}
}

// Geometry returns the lattice the field lives on.
func (u *GaugeField) Geometry() *Geometry { return u.geom }

// Version returns the mutation counter.
func (u *GaugeField) Version() uint64 { return u.version }

// Angles exposes the raw link angles; callers must not mutate the slice.
func (u *GaugeField) Angles() []float64 { return u.theta }

// Angle returns θ_mu(site).
func (u *GaugeField) Angle(site, mu int) float64 { return u.theta[u.geom.Link(site, mu)] }

// Link returns U_mu(site) = e^{iθ}.
func (u *GaugeField) Link(site, mu int) complex128 {
	return cmplx.Rect(1, u.theta[u.geom.Link(site, mu)])
}

// SetAngle assigns θ_mu(site).
func (u *GaugeField) SetAngle(site, mu int, v float64) {
	u.theta[u.geom.Link(site, mu)] = v
	u.version++
}

// SetAngles replaces every angle. Returns ErrLength on size mismatch.
func (u *GaugeField) SetAngles(v []float64) error {
	if len(v) != len(u.theta) {
		return fmt.Errorf("SetAngles: got %d, want %d: %w", len(v), len(u.theta), ErrLength)
	}
	copy(u.theta, v)
	u.version++

	return nil
}

// CopyFrom overwrites u with src. Returns ErrGeometryMismatch.
func (u *GaugeField) CopyFrom(src *GaugeField) error {
	if !u.geom.Same(src.geom) {
		return fmt.Errorf("CopyFrom: %s <- %s: %w", u.geom, src.geom, ErrGeometryMismatch)
	}
	copy(u.theta, src.theta)
	u.version++

	return nil
}

// Clone returns a deep copy sharing the geometry.
func (u *GaugeField) Clone() *GaugeField {
	out := &GaugeField{geom: u.geom, theta: make([]float64, len(u.theta)), version: u.version}
	copy(out.theta, u.theta)

	return out
}

// Cold sets every link to the identity.
func (u *GaugeField) Cold() {
	for i := range u.theta {
		u.theta[i] = 0
	}
	u.version++
}

// Hot draws every angle uniformly from [−π, π) on the parallel stream.
func (u *GaugeField) Hot(r *rng.Context) {
	r.FillUniform(u.theta, -math.Pi, math.Pi)
	u.version++
}

// Tepid draws every angle uniformly from [−eps, eps) on the parallel stream.
func (u *GaugeField) Tepid(r *rng.Context, eps float64) {
	r.FillUniform(u.theta, -eps, eps)
	u.version++
}

// Update performs the Update-Q map θ ← θ + eps·P.
// Returns ErrGeometryMismatch when p lives on another lattice.
func (u *GaugeField) Update(eps float64, p *AlgebraField) error {
	if !u.geom.Same(p.geom) {
		return fmt.Errorf("Update: %w", ErrGeometryMismatch)
	}
	for i, v := range p.data {
		u.theta[i] += eps * v
	}
	u.version++

	return nil
}

// Equal reports whether both fields have identical angles within tol.
func (u *GaugeField) Equal(o *GaugeField, tol float64) bool {
	if !u.geom.Same(o.geom) {
		return false
	}
	for i := range u.theta {
		if math.Abs(u.theta[i]-o.theta[i]) > tol {
			return false
		}
	}

	return true
}
