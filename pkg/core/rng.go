package core

import "math/rand/v2"

// RNG is a random number generator that is cheap to reseed, so render code
// can pin a stream to every pixel or sample it draws for
type RNG struct {
	*rand.Rand
	src *rand.PCG
}

// NewRNG creates a generator seeded with seed
func NewRNG(seed int64) *RNG {
	src := rand.NewPCG(0, 0)
	r := &RNG{Rand: rand.New(src), src: src}
	r.Seed(seed)
	return r
}

// Seed restarts the stream
func (r *RNG) Seed(seed int64) {
	r.src.Seed(uint64(seed), splitmix64(uint64(seed)))
}

// Vec2 draws a uniform pair in [0,1)²
func (r *RNG) Vec2() Vec2 {
	return NewVec2(r.Float64(), r.Float64())
}
