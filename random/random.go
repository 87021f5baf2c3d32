// Package random provides a seedable source of pseudo-random bytes, used by
// the property-style tests in this module to generate instruction
// immediates, payloads and addresses. Seeding from a caller-supplied tick
// source rather than wall-clock time keeps two instances constructed at the
// same point in a test deterministic relative to one another, and ZeroSeed
// lets tests pin the sequence outright.
package random

import "math/rand"

// Source supplies the value used to seed the generator. A stepping loop's
// tick counter is a natural implementation.
type Source interface {
	Ticks() uint64
}

// Random wraps a math/rand generator seeded from a Source.
type Random struct {
	rnd *rand.Rand

	// ZeroSeed forces the generator to start from a fixed seed, for
	// reproducible tests.
	ZeroSeed bool
}

// NewRandom creates a Random seeded from src's current tick count.
func NewRandom(src Source) *Random {
	r := &Random{}
	seed := int64(1)
	if !r.ZeroSeed && src != nil {
		seed = int64(src.Ticks()) + 1
	}
	r.rnd = rand.New(rand.NewSource(seed))
	return r
}

// reseed re-creates the generator using the current ZeroSeed setting. Called
// lazily so that setting ZeroSeed after construction still takes effect.
func (r *Random) reseed() {
	if r.ZeroSeed {
		r.rnd = rand.New(rand.NewSource(1))
	}
}

// Rewindable returns a deterministic pseudo-random byte for index i: with
// ZeroSeed set, two Random instances produce identical sequences for the
// same sequence of calls.
func (r *Random) Rewindable(i int) uint8 {
	if r.ZeroSeed {
		r.reseed()
		seq := rand.New(rand.NewSource(int64(i)))
		return uint8(seq.Intn(256))
	}
	return uint8(r.rnd.Intn(256))
}

// Fill writes pseudo-random bytes into buf. With ZeroSeed set, every call
// starts again from the fixed seed.
func (r *Random) Fill(buf []byte) {
	r.reseed()
	for i := range buf {
		buf[i] = uint8(r.rnd.Intn(256))
	}
}
