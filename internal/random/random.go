// Package random provides the injectable source of uniform randomness used
// by the challenge engine, the identifier generators and the simulated
// provisioning client.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source supplies uniformly distributed values.
type Source interface {
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// Rand is a seeded Source safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Rand seeded with seed.
func New(seed uint64) *Rand {
	return &Rand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewFromTime creates a Rand seeded from the wall clock.
func NewFromTime() *Rand {
	return New(uint64(time.Now().UnixNano()))
}

func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Fixed replays a fixed sequence of values. Integer draws are reduced modulo
// n so any recorded sequence stays in range. An exhausted sequence returns 0.
type Fixed struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

// NewFixed creates a Fixed source.
func NewFixed(ints []int, floats []float64) *Fixed {
	return &Fixed{ints: ints, floats: floats}
}

func (f *Fixed) IntN(n int) int {
	if n <= 0 {
		panic("random: invalid argument to IntN")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ints) == 0 {
		return 0
	}
	v := f.ints[0]
	f.ints = f.ints[1:]
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.floats) == 0 {
		return 0
	}
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}
