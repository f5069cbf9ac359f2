package combogen

import (
	"lukechampine.com/uint128"
)

type modeKind uint8

const (
	modeSequential modeKind = iota
	modeRandom
	modeRandomForever
)

// Mode selects between enumeration and random sampling.
type Mode struct {
	kind  modeKind
	count uint128.Uint128
}

// Sequential enumerates every tuple of the space exactly once.
func Sequential() Mode {
	return Mode{kind: modeSequential}
}

// Random draws count independent uniform tuples per length.
func Random(count uint128.Uint128) Mode {
	return Mode{kind: modeRandom, count: count}
}

// RandomForever draws tuples until the context is cancelled or the output
// fails. With a length range, only the first length is ever reached.
func RandomForever() Mode {
	return Mode{kind: modeRandomForever}
}

// IsRandom reports whether the mode samples rather than enumerates.
func (m Mode) IsRandom() bool {
	return m.kind != modeSequential
}

func (m Mode) String() string {
	switch m.kind {
	case modeSequential:
		return "sequential"
	case modeRandom:
		return "random(" + m.count.String() + ")"
	case modeRandomForever:
		return "random(unbounded)"
	default:
		return "unknown"
	}
}

// tasks plans one batch over space. skip is true when the batch has nothing
// to produce: a sequential space whose total is zero (empty or beyond
// 128 bits), or a random space with no tuples at all.
func (m Mode) tasks(space Space, workers int) (tasks []Task, skip bool) {
	switch m.kind {
	case modeRandom:
		if !space.Sampleable() {
			return nil, true
		}
		return PartitionSamples(m.count, workers), false
	case modeRandomForever:
		if !space.Sampleable() {
			return nil, true
		}
		return PartitionForever(workers), false
	default:
		if space.Total().IsZero() {
			return nil, true
		}
		return Partition(space.Total(), workers), false
	}
}
