// Package combogen generates token combinations from memory-mapped
// dictionaries at full output bandwidth.
//
// Combogen is designed for feeding large candidate streams (word lists,
// charsets, prefix/suffix lists) into downstream consumers through a pipe.
// It is NOT a source of secrets: random mode uses a fast non-cryptographic
// generator.
//
// # Basic Usage
//
// Enumerating every 2- and 3-word tuple of a word list:
//
//	dict, err := combogen.Open("words.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dict.Close()
//
//	g := combogen.New(os.Stdout, combogen.WithWorkers(8))
//	stats, err := g.Power(ctx, dict, combogen.LengthRange{Min: 2, Max: 3}, combogen.Sequential())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Pairing every prefix with every suffix:
//
//	stats, err := g.Product(ctx, prefixes, suffixes, combogen.Sequential())
//
// Sampling one million random 4-word tuples:
//
//	stats, err := g.Power(ctx, dict, combogen.SingleLength(4), combogen.Random(uint128.From64(1_000_000)))
//
// # Ordering
//
// Within one worker, sequential output follows index order. Workers write
// whole buffers in whatever order they fill them, so with more than one
// worker the interleaving of lines differs from run to run while the set of
// lines does not.
//
// # Package Structure
//
//   - Public API: generator.go (New, Power, Distinct, Product), dictionary.go (Open)
//   - Configuration: options.go (Option, With* functions), mode.go, lengths.go
//   - Index space: space.go (Space, Cursor), partition.go (Task, Partition)
//   - Output: sink.go (shared sink, per-worker line buffers), estimate.go
//   - Randomness: seed.go, internal/xoshiro, internal/bits
//   - Platform: fadvise_*.go, madvise_*.go, reserve_*.go (OS-specific hints)
package combogen
