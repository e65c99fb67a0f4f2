// Package sample draws candidate points and turns them into batches of qualifying orbits.
package sample

import (
	"math/rand/v2"

	buddha "github.com/marben/buddhabrot"
)

// Source draws uniformly distributed points from a region.
// Two sources with the same region and seed return the same sequence.
type Source struct {
	rng    *rand.Rand
	region buddha.Region
}

func NewSource(region buddha.Region, seed uint64) *Source {
	return &Source{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		region: region,
	}
}

// Sample returns a point in [Xmin,Xmax)×[Ymin,Ymax).
func (s *Source) Sample() complex128 {
	x := s.region.Xmin + s.rng.Float64()*s.region.Width()
	y := s.region.Ymin + s.rng.Float64()*s.region.Height()
	// rounding can land exactly on the open upper bound
	if x >= s.region.Xmax {
		x = s.region.Xmin
	}
	if y >= s.region.Ymax {
		y = s.region.Ymin
	}
	return complex(x, y)
}
