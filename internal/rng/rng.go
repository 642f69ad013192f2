// Package rng holds the process-wide random source shared by the agent,
// the planner and the environments.
//
// All randomness flows through a single seedable generator so that a run
// with a fixed seed reproduces the exact same trajectory, bit for bit.
package rng

import (
	"math/rand/v2"
	"time"
)

var source = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))

// Seed reinitializes the generator. Called once at startup when the
// random-seed option is given; never during a run.
func Seed(seed uint64) {
	source = rand.New(rand.NewPCG(seed, 0))
}

// Float64 returns a uniform value in [0, 1).
func Float64() float64 {
	return source.Float64()
}

// IntN returns a uniform value in [0, n). Panics if n <= 0.
func IntN(n int) int {
	return source.IntN(n)
}

// Uint64N returns a uniform value in [0, n). Panics if n == 0.
func Uint64N(n uint64) uint64 {
	return source.Uint64N(n)
}
