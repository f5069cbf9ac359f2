package combogen

import (
	"math/big"

	"github.com/tamirms/combogen/internal/wide"
	"lukechampine.com/uint128"
)

// EstimatePower returns the exact number of bytes Power writes in sequential
// mode, and false if that count does not fit in 128 bits.
//
// Every token appears in each position of n^(L-1) tuples, so a length
// contributes L*n^(L-1)*T token bytes plus n^L*((L-1)*sep+1) separator and
// newline bytes, where T is the summed token length. Lengths that Power
// skips, including those above MaxLength, contribute nothing.
func (g *Generator) EstimatePower(dict *Dictionary, lengths LengthRange) (uint128.Uint128, bool) {
	return g.estimateSingle(TopologyPower, dict, lengths)
}

// EstimateDistinct returns the exact number of bytes Distinct writes in
// sequential mode. Each token appears in C(n-1, L-1) of the C(n, L) tuples.
func (g *Generator) EstimateDistinct(dict *Dictionary, lengths LengthRange) (uint128.Uint128, bool) {
	return g.estimateSingle(TopologyDistinct, dict, lengths)
}

func (g *Generator) estimateSingle(topology Topology, dict *Dictionary, lengths LengthRange) (uint128.Uint128, bool) {
	n := uint64(dict.Len())
	tokenBytes := new(big.Int).SetUint64(dict.TotalTokenBytes())
	sepLen := int64(len(g.cfg.separator))

	sum := new(big.Int)
	for length := lengths.Min; length <= min(lengths.Max, MaxLength); length++ {
		var space Space
		perToken := new(big.Int)
		if topology == TopologyDistinct {
			space = DistinctSpace(n, length)
			perToken.Binomial(int64(n)-1, int64(length)-1)
		} else {
			space = PowerSpace(n, length)
			perToken.Exp(new(big.Int).SetUint64(n), big.NewInt(int64(length)-1), nil)
			perToken.Mul(perToken, big.NewInt(int64(length)))
		}
		if space.Total().IsZero() {
			continue
		}
		sum.Add(sum, perToken.Mul(perToken, tokenBytes))

		framing := big.NewInt(int64(length-1)*sepLen + 1)
		sum.Add(sum, framing.Mul(framing, wide.ToBig(space.Total())))
	}
	return wide.FromBig(sum)
}

// EstimateProduct returns the exact number of bytes Product writes in
// sequential mode: s*Tp + p*Ts + p*s.
func (g *Generator) EstimateProduct(prefix, suffix *Dictionary) (uint128.Uint128, bool) {
	p := new(big.Int).SetUint64(uint64(prefix.Len()))
	s := new(big.Int).SetUint64(uint64(suffix.Len()))
	tp := new(big.Int).SetUint64(prefix.TotalTokenBytes())
	ts := new(big.Int).SetUint64(suffix.TotalTokenBytes())

	sum := new(big.Int).Mul(s, tp)
	sum.Add(sum, new(big.Int).Mul(p, ts))
	sum.Add(sum, new(big.Int).Mul(p, s))
	return wide.FromBig(sum)
}
