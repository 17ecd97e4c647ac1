// Package randutil centralises how seeds become random sources so that decks,
// engines and simulations all replay identically from the same seed.
package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns the n-th child seed of seed. Children are stable across runs
// and well separated even for adjacent parents.
func Derive(seed int64, n int) int64 {
	return int64(mix(uint64(seed) + uint64(n+1)*goldenRatio64))
}

// NewSeed returns a seed read from crypto/rand.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("randutil: failed to read random seed: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Source hands out a deterministic sequence of seeds. It is not safe for
// concurrent use.
type Source struct {
	rng *rand.Rand
}

// NewSource returns a Source rooted at seed. A zero seed picks a random root.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = NewSeed()
	}
	return &Source{rng: New(seed)}
}

// Next returns the next seed in the sequence.
func (s *Source) Next() int64 {
	return s.rng.Int64()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
