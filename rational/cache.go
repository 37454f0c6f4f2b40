// SPDX-License-Identifier: MIT

package rational

import (
	"fmt"
	"math"
	"sync"
)

// Cache fits each Params once. It is safe for concurrent use.
type Cache struct {
	mu   sync.Mutex
	fits map[Params]*Approximation
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{fits: make(map[Params]*Approximation)}
}

// Get returns the cached fit for p, fitting on first use. Failed fits are
// not cached.
func (c *Cache) Get(p Params) (*Approximation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.fits[p]; ok {
		return a, nil
	}
	a, err := Fit(p)
	if err != nil {
		return nil, err
	}
	c.fits[p] = a

	return a, nil
}

// Len returns the number of cached fits.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.fits)
}

// Widen returns p with bounds extended to cover [lo, hi] plus a relative
// margin on both sides.
func Widen(p Params, lo, hi, margin float64) Params {
	if margin < 0 {
		margin = 0
	}
	q := p
	q.Lo = math.Min(p.Lo, lo/(1+margin))
	q.Hi = math.Max(p.Hi, hi*(1+margin))

	return q
}

// Refit fits (and caches) the approximation with bounds widened to cover the
// measured spectrum [lo, hi]. This is the only recovery path for
// ErrApproximationOutOfRange.
func (c *Cache) Refit(p Params, lo, hi, margin float64) (*Approximation, Params, error) {
	if !(lo > 0) || !(hi >= lo) {
		return nil, p, fmt.Errorf("Refit: spectrum [%g, %g]: %w", lo, hi, ErrInvalidParams)
	}
	q := Widen(p, lo, hi, margin)
	a, err := c.Get(q)
	if err != nil {
		return nil, q, fmt.Errorf("Refit: %w", err)
	}

	return a, q, nil
}
