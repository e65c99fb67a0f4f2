package histogram

import (
	"fmt"

	buddha "github.com/marben/buddhabrot"
)

// Replay walks the orbit of c from zero for exactly n steps and adds every value to h.
// n is the escape time found by the evaluator, so the escaped value itself is not added.
func (h *Histogram) Replay(c complex128, n uint64) error {
	var z complex128
	for i := uint64(0); i < n; i++ {
		x, y := real(z), imag(z)
		z = complex(x*x-y*y+real(c), 2*x*y+imag(c))
		if err := h.Add(z); err != nil {
			return fmt.Errorf("orbit of %v, step %d: %w", c, i, err)
		}
	}
	return nil
}

// ReplayAll replays every point in order.
func (h *Histogram) ReplayAll(points []buddha.QualifyingPoint) error {
	for _, p := range points {
		if err := h.Replay(p.Point, p.Iterations); err != nil {
			return err
		}
	}
	return nil
}
