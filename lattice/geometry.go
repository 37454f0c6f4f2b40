// SPDX-License-Identifier: MIT

package lattice

import "fmt"

// Geometry is an immutable periodic hypercubic lattice with precomputed
// neighbour tables. It is safe for concurrent use.
type Geometry struct {
	dims   []int
	nd     int
	volume int
	fwd    [][]int // fwd[mu][site] = site + mu (periodic)
	bwd    [][]int // bwd[mu][site] = site - mu (periodic)
	coords [][]int // coords[site][mu]
	parity []uint8 // (Σ x_mu) mod 2
	even   bool    // every extent is even
}

// NewGeometry builds the lattice with the given extents, each ≥ 2.
// Returns ErrInvalidDims otherwise.
// Complexity: O(V·Nd) time and memory.
func NewGeometry(dims ...int) (*Geometry, error) {
	if len(dims) == 0 {
		return nil, ErrInvalidDims
	}
	vol := 1
	even := true
	for mu, l := range dims {
		if l < 2 {
			return nil, fmt.Errorf("NewGeometry: extent[%d]=%d: %w", mu, l, ErrInvalidDims)
		}
		if l%2 != 0 {
			even = false
		}
		vol *= l
	}
	nd := len(dims)
	g := &Geometry{
		dims:   append([]int(nil), dims...),
		nd:     nd,
		volume: vol,
		fwd:    make([][]int, nd),
		bwd:    make([][]int, nd),
		coords: make([][]int, vol),
		parity: make([]uint8, vol),
		even:   even,
	}

	// Stage 1: coordinates and parity
	var site, mu, sum int
	for site = 0; site < vol; site++ {
		c := make([]int, nd)
		rem := site
		sum = 0
		for mu = 0; mu < nd; mu++ {
			c[mu] = rem % dims[mu]
			rem /= dims[mu]
			sum += c[mu]
		}
		g.coords[site] = c
		g.parity[site] = uint8(sum % 2)
	}

	// Stage 2: neighbour tables from unit offsets
	for mu = 0; mu < nd; mu++ {
		g.fwd[mu] = make([]int, vol)
		g.bwd[mu] = make([]int, vol)
		for site = 0; site < vol; site++ {
			g.fwd[mu][site] = g.shift(site, mu, +1)
			g.bwd[mu][site] = g.shift(site, mu, -1)
		}
	}

	return g, nil
}

// shift returns the site displaced by step along mu with periodic wrap.
func (g *Geometry) shift(site, mu, step int) int {
	c := g.coords[site]
	x := (c[mu] + step + g.dims[mu]) % g.dims[mu]

	return site + (x-c[mu])*g.stride(mu)
}

func (g *Geometry) stride(mu int) int {
	s := 1
	for nu := 0; nu < mu; nu++ {
		s *= g.dims[nu]
	}

	return s
}

// Dims returns a copy of the extents.
func (g *Geometry) Dims() []int { return append([]int(nil), g.dims...) }

// Nd returns the number of dimensions.
func (g *Geometry) Nd() int { return g.nd }

// Volume returns the number of sites.
func (g *Geometry) Volume() int { return g.volume }

// Links returns the number of links, Volume·Nd.
func (g *Geometry) Links() int { return g.volume * g.nd }

// Fwd returns the neighbour of site in the +mu direction.
func (g *Geometry) Fwd(site, mu int) int { return g.fwd[mu][site] }

// Bwd returns the neighbour of site in the −mu direction.
func (g *Geometry) Bwd(site, mu int) int { return g.bwd[mu][site] }

// Coord returns coordinate mu of site.
func (g *Geometry) Coord(site, mu int) int { return g.coords[site][mu] }

// Parity returns 0 for even and 1 for odd sites.
func (g *Geometry) Parity(site int) int { return int(g.parity[site]) }

// EvenExtents reports whether every extent is even, which checkerboarding needs.
func (g *Geometry) EvenExtents() bool { return g.even }

// Index returns the site with the given coordinates (taken modulo the extents).
func (g *Geometry) Index(coords ...int) int {
	site, stride := 0, 1
	for mu := 0; mu < g.nd; mu++ {
		x := ((coords[mu] % g.dims[mu]) + g.dims[mu]) % g.dims[mu]
		site += x * stride
		stride *= g.dims[mu]
	}

	return site
}

// Link returns the flat link index of (site, mu).
func (g *Geometry) Link(site, mu int) int { return site*g.nd + mu }

// Same reports whether g and o describe the same lattice.
func (g *Geometry) Same(o *Geometry) bool {
	if g == o {
		return true
	}
	if o == nil || g.nd != o.nd {
		return false
	}
	for mu := range g.dims {
		if g.dims[mu] != o.dims[mu] {
			return false
		}
	}

	return true
}

// String renders the extents as "4x4x4x8".
func (g *Geometry) String() string {
	s := ""
	for mu, l := range g.dims {
		if mu > 0 {
			s += "x"
		}
		s += fmt.Sprint(l)
	}

	return s
}
