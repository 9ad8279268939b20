package sim

import "math/rand"

// Rand is the only source of randomness the engine uses.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

func shuffle[T any](rng Rand, xs []T) {
	rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}
