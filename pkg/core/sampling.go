package core

import "math/rand"

// Sampler supplies the uniform random numbers used for pixel jitter
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler draws from a seedable generator so a tile can replay the
// same sequence whichever worker shades it
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler over random. Other users of random
// share its sequence.
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Reseed restarts the sequence from seed
func (r *RandomSampler) Reseed(seed int64) {
	r.random.Seed(seed)
}

// Get1D returns a value in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns a point in [0, 1)²
func (r *RandomSampler) Get2D() Vec2 {
	return Vec2{X: r.random.Float64(), Y: r.random.Float64()}
}
