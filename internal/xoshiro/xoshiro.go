// Package xoshiro implements the xoshiro256** pseudorandom generator.
//
// The generator is fast and statistically strong but NOT cryptographically
// secure: its state can be recovered from a handful of outputs. It must not
// be used for keys, tokens or anything security-sensitive.
package xoshiro

import "math/bits"

// Source is a xoshiro256** generator. It satisfies math/rand/v2.Source.
// A Source is not safe for concurrent use; give each goroutine its own.
type Source struct {
	s [4]uint64
}

// New returns a Source seeded from seed.
func New(seed uint64) *Source {
	src := &Source{}
	src.Seed(seed)
	return src
}

// Seed expands seed into the four state words with SplitMix64, which never
// yields the all-zero state xoshiro cannot leave.
func (x *Source) Seed(seed uint64) {
	for i := range x.s {
		seed += 0x9e3779b97f4a7c15
		z := seed
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		x.s[i] = z ^ (z >> 31)
	}
}

// Uint64 returns the next 64-bit output.
func (x *Source) Uint64() uint64 {
	s := &x.s
	result := bits.RotateLeft64(s[1]*5, 7) * 9
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}
