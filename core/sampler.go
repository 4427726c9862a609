package core

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Sampler draws a built area for urban zones whose built area is not known.
type Sampler interface {
	// Sample returns a value in [low, high), or low when the range is empty.
	Sample(low, high float64) float64
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(low, high float64) float64

// Sample calls f(low, high).
func (f SamplerFunc) Sample(low, high float64) float64 { return f(low, high) }

// UniformSampler samples uniformly from a caller-supplied random source.
type UniformSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformSampler wraps src. Two samplers built from sources in the same
// state produce the same sequence.
func NewUniformSampler(src rand.Source) *UniformSampler {
	return &UniformSampler{rng: rand.New(src)}
}

// NewSeededSampler returns a UniformSampler over a PCG source seeded with
// seed.
func NewSeededSampler(seed uint64) *UniformSampler {
	return NewUniformSampler(rand.NewPCG(seed, seed))
}

// Sample returns low + u*(high-low) for u uniform in [0, 1).
func (s *UniformSampler) Sample(low, high float64) float64 {
	if !(high > low) {
		return low
	}
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	v := low + u*(high-low)
	if v >= high {
		v = math.Nextafter(high, low)
	}
	return v
}
