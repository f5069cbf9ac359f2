package combogen

import (
	"lukechampine.com/uint128"
)

// WorkKind tags what a Task asks its worker to do.
type WorkKind uint8

const (
	// WorkRange enumerates tuples [Start, Start+Count) in index order.
	WorkRange WorkKind = iota
	// WorkSample draws Count random tuples.
	WorkSample
	// WorkSampleForever draws random tuples until the context is cancelled
	// or the output fails.
	WorkSampleForever
)

func (k WorkKind) String() string {
	switch k {
	case WorkRange:
		return "range"
	case WorkSample:
		return "sample"
	case WorkSampleForever:
		return "sample-forever"
	default:
		return "unknown"
	}
}

// Task is one worker's share of a batch. It is handed to exactly one worker
// and never shared.
type Task struct {
	Worker int
	Kind   WorkKind
	Start  uint128.Uint128 // WorkRange only
	Count  uint128.Uint128 // unused for WorkSampleForever
}

// clampWorkers coerces non-positive worker counts to 1.
func clampWorkers(workers int) int {
	return max(workers, 1)
}

// split divides total into workers shares: the first total%workers shares
// get one extra item.
func split(total uint128.Uint128, workers int) []uint128.Uint128 {
	base, rem := total.QuoRem64(uint64(workers))
	counts := make([]uint128.Uint128, workers)
	for i := range counts {
		counts[i] = base
		if uint64(i) < rem {
			counts[i] = base.Add64(1)
		}
	}
	return counts
}

// Partition splits [0, total) into contiguous ranges in increasing start
// order, one per worker. The ranges are disjoint and their union is exactly
// [0, total). When total < workers some ranges are empty.
func Partition(total uint128.Uint128, workers int) []Task {
	workers = clampWorkers(workers)
	tasks := make([]Task, workers)
	start := uint128.Zero
	for i, count := range split(total, workers) {
		tasks[i] = Task{Worker: i, Kind: WorkRange, Start: start, Count: count}
		start = start.Add(count)
	}
	return tasks
}

// PartitionSamples divides a random-mode target of count tuples across
// workers the same way Partition divides a range.
func PartitionSamples(count uint128.Uint128, workers int) []Task {
	workers = clampWorkers(workers)
	tasks := make([]Task, workers)
	for i, c := range split(count, workers) {
		tasks[i] = Task{Worker: i, Kind: WorkSample, Count: c}
	}
	return tasks
}

// PartitionForever gives every worker an unbounded sampling task.
func PartitionForever(workers int) []Task {
	workers = clampWorkers(workers)
	tasks := make([]Task, workers)
	for i := range tasks {
		tasks[i] = Task{Worker: i, Kind: WorkSampleForever}
	}
	return tasks
}
