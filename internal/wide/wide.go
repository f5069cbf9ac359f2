// Package wide holds the 128-bit arithmetic shared by the index space and
// the partitioner.
//
// Values are lukechampine.com/uint128 integers. The library's Mul panics on
// overflow; combination counts instead saturate to a reported failure, so
// the checked helpers here return an ok flag rather than panicking.
package wide

import (
	"fmt"
	"math/big"
	"math/bits"

	"lukechampine.com/uint128"
)

// MulUint64 returns x*n and whether the product fits in 128 bits.
func MulUint64(x uint128.Uint128, n uint64) (uint128.Uint128, bool) {
	hi1, lo := bits.Mul64(x.Lo, n)
	hi2, mid := bits.Mul64(x.Hi, n)
	if hi2 != 0 {
		return uint128.Zero, false
	}
	hi, carry := bits.Add64(mid, hi1, 0)
	if carry != 0 {
		return uint128.Zero, false
	}
	return uint128.New(lo, hi), true
}

// Pow returns base^exp and whether it fits in 128 bits.
func Pow(base uint64, exp int) (uint128.Uint128, bool) {
	result := uint128.From64(1)
	for range exp {
		var ok bool
		if result, ok = MulUint64(result, base); !ok {
			return uint128.Zero, false
		}
	}
	return result, true
}

// Binomial returns C(n, k) and whether it fits in 128 bits.
// C(n, k) is 0 for k > n.
func Binomial(n uint64, k int) (uint128.Uint128, bool) {
	if k < 0 || n > 1<<62 {
		return uint128.Zero, false
	}
	return FromBig(new(big.Int).Binomial(int64(n), int64(k)))
}

// FromBig converts a non-negative big integer, reporting overflow.
func FromBig(b *big.Int) (uint128.Uint128, bool) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return uint128.Zero, false
	}
	lo := new(big.Int).And(b, maxUint64Big).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return uint128.New(lo, hi), true
}

// ToBig converts u to a big integer.
func ToBig(u uint128.Uint128) *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

// Parse parses a base-10 unsigned 128-bit integer.
func Parse(s string) (uint128.Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return uint128.Zero, fmt.Errorf("parse %q: not a base-10 integer", s)
	}
	u, ok := FromBig(b)
	if !ok {
		return uint128.Zero, fmt.Errorf("parse %q: out of range [0, 2^128)", s)
	}
	return u, nil
}

var maxUint64Big = new(big.Int).SetUint64(^uint64(0))
