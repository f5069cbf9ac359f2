package combogen

import (
	"math/big"
	"math/rand/v2"
	"slices"

	intbits "github.com/tamirms/combogen/internal/bits"
	"github.com/tamirms/combogen/internal/wide"
	"lukechampine.com/uint128"
)

// Topology is the shape of a combination space.
type Topology uint8

const (
	// TopologyPower is the cartesian power D^L of one dictionary: every
	// position ranges independently over all tokens.
	TopologyPower Topology = iota
	// TopologyProduct pairs every prefix token with every suffix token.
	TopologyProduct
	// TopologyDistinct draws L strictly increasing token indices from one
	// dictionary (combinations without repetition).
	TopologyDistinct
)

func (t Topology) String() string {
	switch t {
	case TopologyPower:
		return "power"
	case TopologyProduct:
		return "product"
	case TopologyDistinct:
		return "distinct"
	default:
		return "unknown"
	}
}

// Space maps linear indices in [0, Total) to per-position token indices.
//
// Power and product spaces are mixed-radix numbers, most significant
// position first. Distinct spaces use the combinatorial number system in
// lexicographic order. Any index can be decomposed directly, so a worker can
// start enumerating anywhere without replaying earlier indices.
//
// A Total of zero means the space is empty or its size does not fit in
// 128 bits; callers treat both as "nothing to generate".
type Space struct {
	topology Topology
	radices  []uint64 // per position; all equal for power and distinct
	total    uint128.Uint128

	// Power-of-two radix: decomposition is shift/mask instead of division.
	pow2  bool
	shift uint
	mask  uint64
}

// PowerSpace returns the space of length-tuples over n tokens, repetition
// allowed. Total is n^length, or 0 if that overflows 128 bits.
func PowerSpace(n uint64, length int) Space {
	s := Space{
		topology: TopologyPower,
		radices:  repeat(n, length),
	}
	if total, ok := wide.Pow(n, length); ok {
		s.total = total
	}
	if intbits.IsPowerOfTwo(n) {
		s.pow2 = true
		s.shift = intbits.Log2(n)
		s.mask = n - 1
	}
	return s
}

// ProductSpace returns the space of (prefix, suffix) pairs.
// Total is prefix*suffix, which always fits in 128 bits.
func ProductSpace(prefix, suffix uint64) Space {
	total, _ := wide.MulUint64(uint128.From64(prefix), suffix)
	return Space{
		topology: TopologyProduct,
		radices:  []uint64{prefix, suffix},
		total:    total,
	}
}

// DistinctSpace returns the space of strictly increasing length-tuples over
// n tokens. Total is C(n, length): 0 when length > n or on overflow.
func DistinctSpace(n uint64, length int) Space {
	s := Space{
		topology: TopologyDistinct,
		radices:  repeat(n, length),
	}
	if total, ok := wide.Binomial(n, length); ok {
		s.total = total
	}
	return s
}

func repeat(n uint64, length int) []uint64 {
	r := make([]uint64, max(length, 0))
	for i := range r {
		r[i] = n
	}
	return r
}

// Topology returns the space's shape.
func (s Space) Topology() Topology { return s.topology }

// Width returns the number of positions per tuple.
func (s Space) Width() int { return len(s.radices) }

// Total returns the number of tuples, or 0 if empty or overflowed.
func (s Space) Total() uint128.Uint128 { return s.total }

// Decompose writes the position indices of tuple index into dst.
// Precondition: index < Total and len(dst) == Width.
func (s Space) Decompose(index uint128.Uint128, dst []int) {
	if s.topology == TopologyDistinct {
		s.unrank(index, dst)
		return
	}
	for k := len(dst) - 1; k >= 0; k-- {
		if s.pow2 {
			dst[k] = int(index.Lo & s.mask)
			index = index.Rsh(s.shift)
			continue
		}
		q, r := index.QuoRem64(s.radices[k])
		dst[k] = int(r)
		index = q
	}
}

// unrank decomposes a lexicographic combination rank. Position i takes the
// smallest candidate c whose block of C(n-c-1, remaining) successors still
// contains the rank. Runs once per cursor, so big integers are acceptable.
func (s Space) unrank(index uint128.Uint128, dst []int) {
	n := int64(s.radices[0])
	width := int64(len(dst))
	rank := wide.ToBig(index)
	cnt := new(big.Int)
	tmp := new(big.Int)

	c := int64(0)
	for i := int64(0); i < width; i++ {
		k := width - i - 1
		cnt.Binomial(n-c-1, k)
		for cnt.Sign() > 0 && cnt.Cmp(rank) <= 0 {
			rank.Sub(rank, cnt)
			// C(m-1, k) = C(m, k) * (m-k) / m
			m := n - c - 1
			if m == k {
				cnt.SetInt64(0)
			} else {
				cnt.Mul(cnt, tmp.SetInt64(m-k))
				cnt.Quo(cnt, tmp.SetInt64(m))
			}
			c++
		}
		dst[i] = int(c)
		c++
	}
}

// Sampleable reports whether the space has at least one tuple, independent
// of whether Total fits in 128 bits.
func (s Space) Sampleable() bool {
	for _, r := range s.radices {
		if r == 0 {
			return false
		}
	}
	if s.topology == TopologyDistinct && len(s.radices) > 0 {
		return uint64(len(s.radices)) <= s.radices[0]
	}
	return true
}

// Sample draws one uniformly random tuple into dst using src.
// len(dst) must equal Width; the space must be non-empty.
func (s Space) Sample(src rand.Source, dst []int) {
	if s.topology == TopologyDistinct {
		s.sampleDistinct(src, dst)
		return
	}
	for k, radix := range s.radices {
		dst[k] = int(intbits.FastRange64(src.Uint64(), radix))
	}
}

// sampleDistinct is Floyd's subset sampling followed by a sort, giving every
// L-subset equal probability.
func (s Space) sampleDistinct(src rand.Source, dst []int) {
	n := s.radices[0]
	width := uint64(len(dst))
	m := 0
	for j := n - width; j < n; j++ {
		t := int(intbits.FastRange64(src.Uint64(), j+1))
		if slices.Contains(dst[:m], t) {
			t = int(j)
		}
		dst[m] = t
		m++
	}
	slices.Sort(dst)
}

// Cursor returns an odometer positioned at tuple start.
// Precondition: start < Total.
func (s Space) Cursor(start uint128.Uint128) *Cursor {
	c := &Cursor{space: s, idx: make([]int, s.Width())}
	s.Decompose(start, c.idx)
	return c
}

// Cursor walks a Space in index order. Each step is amortized O(1); no
// division is involved after the initial decomposition.
type Cursor struct {
	space Space
	idx   []int
}

// Indices returns the current position indices. The slice is reused by Next.
func (c *Cursor) Indices() []int { return c.idx }

// Next advances to the following tuple. After the last tuple the cursor
// wraps to the first.
func (c *Cursor) Next() {
	if c.space.topology == TopologyDistinct {
		c.nextDistinct()
		return
	}
	radices := c.space.radices
	for k := len(c.idx) - 1; k >= 0; k-- {
		c.idx[k]++
		if uint64(c.idx[k]) < radices[k] {
			return
		}
		c.idx[k] = 0
	}
}

// nextDistinct is the lexicographic successor: bump the rightmost position
// that still has room, then pack the positions after it tightly.
func (c *Cursor) nextDistinct() {
	n := int(c.space.radices[0])
	width := len(c.idx)
	i := width - 1
	for i >= 0 && c.idx[i] == n-width+i {
		i--
	}
	if i < 0 {
		for j := range c.idx {
			c.idx[j] = j
		}
		return
	}
	c.idx[i]++
	for j := i + 1; j < width; j++ {
		c.idx[j] = c.idx[j-1] + 1
	}
}
