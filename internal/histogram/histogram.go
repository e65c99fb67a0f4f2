// Package histogram accumulates orbit values into a fixed grid over a region of the complex plane.
package histogram

import (
	"errors"
	"fmt"

	buddha "github.com/marben/buddhabrot"
)

// ErrOutOfBounds means a value mapped outside the grid.
// It indicates the histogram region does not cover the orbits being replayed.
var ErrOutOfBounds = errors.New("value outside histogram")

// Histogram counts visits per cell. It is not safe for concurrent use;
// a single aggregator goroutine owns it.
type Histogram struct {
	width, height int
	region        buddha.Region
	clip          bool
	counts        []uint64
	clipped       uint64
}

type Option func(*Histogram)

// WithClip makes Add drop values outside the region instead of returning ErrOutOfBounds.
func WithClip() Option {
	return func(h *Histogram) { h.clip = true }
}

func New(width, height int, region buddha.Region, opts ...Option) (*Histogram, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("histogram resolution %dx%d must be positive", width, height)
	}
	if !(region.Xmin < region.Xmax) || !(region.Ymin < region.Ymax) {
		return nil, fmt.Errorf("histogram region %s is empty", region)
	}
	h := &Histogram{
		width:  width,
		height: height,
		region: region,
		counts: make([]uint64, width*height),
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

func (h *Histogram) Width() int  { return h.width }
func (h *Histogram) Height() int { return h.height }

// Rasterize maps z to the cell containing it.
func (h *Histogram) Rasterize(z complex128) (x, y int, err error) {
	// Contains is false for NaN as well
	if !h.region.Contains(z) {
		return 0, 0, fmt.Errorf("%w: %v is not in %s", ErrOutOfBounds, z, h.region)
	}
	fx := (real(z) - h.region.Xmin) * float64(h.width) / h.region.Width()
	fy := (imag(z) - h.region.Ymin) * float64(h.height) / h.region.Height()
	// a value just below the upper bound may round up to the grid size
	return min(int(fx), h.width-1), min(int(fy), h.height-1), nil
}

// Add increments the cell containing z.
func (h *Histogram) Add(z complex128) error {
	x, y, err := h.Rasterize(z)
	if err != nil {
		if h.clip {
			h.clipped++
			return nil
		}
		return err
	}
	h.counts[y*h.width+x]++
	return nil
}

// At returns the count of cell (x, y).
func (h *Histogram) At(x, y int) uint64 {
	return h.counts[y*h.width+x]
}

// Max returns the largest cell count.
func (h *Histogram) Max() uint64 {
	var m uint64
	for _, c := range h.counts {
		m = max(m, c)
	}
	return m
}

// Total returns the number of values added.
func (h *Histogram) Total() uint64 {
	var t uint64
	for _, c := range h.counts {
		t += c
	}
	return t
}

// Clipped returns the number of values dropped for falling outside the region.
func (h *Histogram) Clipped() uint64 {
	return h.clipped
}

// Grid exposes the counts without copying. It is only valid until the next Add.
func (h *Histogram) Grid() buddha.Grid {
	return buddha.Grid{Counts: h.counts, Width: h.width, Height: h.height}
}

// Snapshot returns a copy of the counts.
func (h *Histogram) Snapshot() buddha.Grid {
	g := h.Grid()
	g.Counts = append([]uint64(nil), h.counts...)
	return g
}
