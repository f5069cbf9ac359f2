// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// FastRange64 maps a 64-bit draw uniformly to [0, n).
// Uses the "fastrange" technique: multiply and take high bits.
// This avoids the division of a modulo reduction and its skew toward low
// values when n is a large fraction of 2^64.
func FastRange64(x, n uint64) uint64 {
	hi, _ := bits.Mul64(x, n)
	return hi
}

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// Log2 returns log2(n) for a power of two n.
func Log2(n uint64) uint {
	return uint(bits.TrailingZeros64(n))
}

