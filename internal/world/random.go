package world

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue derives a stable int64 seed from a root seed and a
// subsystem label so that independent subsystems draw from independent
// streams while the whole hierarchy remains reproducible from one root seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG constructs an RNG labeled within the root seed's hierarchy.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	seedValue := DeterministicSeedValue(rootSeed, label)
	return rand.New(rand.NewSource(seedValue))
}

// RandomFloat draws a uniform [0,1) sample, tolerating a nil RNG for callers
// exercising pure functions outside a constructed World.
func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world"))).Float64()
	}
	return rng.Float64()
}

// RollProbability reports whether a uniform draw fell below p, clamping p to [0,1].
func RollProbability(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return RandomFloat(rng) < p
}
