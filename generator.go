package combogen

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	comboerrors "github.com/tamirms/combogen/errors"
	"github.com/tamirms/combogen/internal/wide"
	"github.com/tamirms/combogen/internal/xoshiro"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/uint128"
)

// Stats summarizes what a generation call wrote.
type Stats struct {
	Lines   uint128.Uint128
	Bytes   uint128.Uint128
	Flushes uint64 // sink writes; lock acquisitions that carried data
	Batches int    // batches that ran (skipped lengths excluded)

	// Skipped lists the lengths that produced nothing because their
	// combination count is zero or does not fit in 128 bits. Product
	// batches are reported as length 2. Lengths above MaxLength are
	// reported once, by the first of them.
	Skipped []int

	// Digest is the wrapping sum of the xxh3 hashes of every line written,
	// including its newline. It depends only on the multiset of lines, not
	// on their order, so it is identical for any worker count. Zero unless
	// WithDigest is set.
	Digest uint64
}

func (s *Stats) merge(o Stats) {
	s.Lines = s.Lines.Add(o.Lines)
	s.Bytes = s.Bytes.Add(o.Bytes)
	s.Flushes += o.Flushes
	s.Batches += o.Batches
	s.Skipped = append(s.Skipped, o.Skipped...)
	s.Digest += o.Digest
}

// Generator writes token combinations to one output.
//
// A Generator may run several generation calls one after another; they share
// the output and its sticky write error. Calls must not overlap.
//
// Usage:
//
//	dict, err := combogen.Open("words.txt")
//	if err != nil { return err }
//	defer dict.Close()
//
//	g := combogen.New(os.Stdout, combogen.WithWorkers(8))
//	lengths, err := combogen.ParseLengthRange("2-3")
//	if err != nil { return err }
//	stats, err := g.Power(ctx, dict, lengths, combogen.Sequential())
type Generator struct {
	cfg  *genConfig
	sink *sink
}

// New returns a Generator writing to w.
func New(w io.Writer, opts ...Option) *Generator {
	cfg := defaultGenConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Generator{cfg: cfg, sink: newSink(w)}
}

// Power writes the cartesian power of dict for every length in lengths, in
// ascending order. Each position independently ranges over every token.
func (g *Generator) Power(ctx context.Context, dict *Dictionary, lengths LengthRange, mode Mode) (Stats, error) {
	return g.single(ctx, TopologyPower, dict, lengths, mode)
}

// Distinct writes the tuples of strictly increasing token indices (each
// token at most once, in dictionary order) for every length in lengths.
func (g *Generator) Distinct(ctx context.Context, dict *Dictionary, lengths LengthRange, mode Mode) (Stats, error) {
	return g.single(ctx, TopologyDistinct, dict, lengths, mode)
}

// Product writes every prefix token concatenated with every suffix token,
// with no separator.
func (g *Generator) Product(ctx context.Context, prefix, suffix *Dictionary, mode Mode) (Stats, error) {
	if err := checkOpen(prefix, suffix); err != nil {
		return Stats{}, err
	}
	space := ProductSpace(uint64(prefix.Len()), uint64(suffix.Len()))
	return g.run(ctx, space, []*Dictionary{prefix, suffix}, nil, mode)
}

func (g *Generator) single(ctx context.Context, topology Topology, dict *Dictionary, lengths LengthRange, mode Mode) (Stats, error) {
	if err := checkOpen(dict); err != nil {
		return Stats{}, err
	}
	if err := lengths.Validate(); err != nil {
		return Stats{}, err
	}

	var stats Stats
	n := uint64(dict.Len())
	for length := lengths.Min; length <= min(lengths.Max, MaxLength); length++ {
		space := PowerSpace(n, length)
		if topology == TopologyDistinct {
			space = DistinctSpace(n, length)
		}
		dicts := make([]*Dictionary, length)
		for i := range dicts {
			dicts[i] = dict
		}

		batch, err := g.run(ctx, space, dicts, g.cfg.separator, mode)
		stats.merge(batch)
		if err != nil {
			return stats, err
		}
	}

	if lengths.Max > MaxLength {
		tail := LengthRange{Min: max(lengths.Min, MaxLength+1), Max: lengths.Max}
		g.cfg.logger.Info("skipping lengths above the maximum", "lengths", tail.String(), "max", MaxLength)
		stats.Skipped = append(stats.Skipped, tail.Min)
	}
	return stats, nil
}

func checkOpen(dicts ...*Dictionary) error {
	for _, d := range dicts {
		if d == nil {
			return fmt.Errorf("%w: %w: nil dictionary", comboerrors.ErrConfiguration, comboerrors.ErrMissingArgument)
		}
		if d.closed.Load() {
			return comboerrors.ErrDictionaryClosed
		}
	}
	return nil
}

// workerResult is what one worker reports back after the join.
type workerResult struct {
	lines  uint64
	bytes  uint64
	digest uint64
}

// run executes one batch: plan the tasks, fork exactly one worker per task,
// join them all. Workers share only the sink.
func (g *Generator) run(ctx context.Context, space Space, dicts []*Dictionary, sep []byte, mode Mode) (Stats, error) {
	log := g.cfg.logger.With("topology", space.Topology().String(), "length", space.Width())

	tasks, skip := mode.tasks(space, g.cfg.workers)
	if skip {
		log.Info("skipping batch: combination count is zero or exceeds 128 bits")
		return Stats{Skipped: []int{space.Width()}}, nil
	}

	worst, err := lineSize(dicts, sep)
	if err != nil {
		return Stats{}, err
	}

	log.Debug("batch start",
		"mode", mode.String(),
		"total", humanize.BigComma(wide.ToBig(space.Total())),
		"workers", len(tasks),
		"max_line", worst)
	start := time.Now()
	flushesBefore := g.sink.flushCount()

	results := make([]workerResult, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range tasks {
		eg.Go(func() error {
			buf := newLineBuffer(g.sink, g.cfg.bufferSize, worst, sep, g.cfg.digest)
			err := g.work(egCtx, space, dicts, buf, &tasks[i])
			results[i] = workerResult{lines: buf.lines, bytes: buf.bytes, digest: buf.digest}
			return err
		})
	}
	err = eg.Wait()

	stats := Stats{Batches: 1, Flushes: g.sink.flushCount() - flushesBefore}
	for _, r := range results {
		stats.Lines = stats.Lines.Add64(r.lines)
		stats.Bytes = stats.Bytes.Add64(r.bytes)
		stats.Digest += r.digest
	}

	log.Debug("batch done",
		"lines", stats.Lines.String(),
		"bytes", humanize.Bytes(saturate(stats.Bytes)),
		"elapsed", time.Since(start))
	return stats, err
}

// work runs one task to completion and always flushes what it buffered,
// even when the loop ended on cancellation.
func (g *Generator) work(ctx context.Context, space Space, dicts []*Dictionary, buf *lineBuffer, task *Task) error {
	var err error
	switch task.Kind {
	case WorkRange:
		err = enumerate(ctx, space, dicts, buf, task)
	case WorkSample, WorkSampleForever:
		src := xoshiro.New(workerSeed(g.cfg, task, space.Width()))
		err = sample(ctx, space, dicts, buf, src, task)
	default:
		err = fmt.Errorf("unknown work kind %v", task.Kind)
	}
	if flushErr := buf.flush(); err == nil {
		err = flushErr
	}
	return err
}

// enumerate walks [task.Start, task.Start+task.Count) with an odometer.
// The 128-bit count is consumed in 64-bit chunks to keep the inner loop on
// native integers.
func enumerate(ctx context.Context, space Space, dicts []*Dictionary, buf *lineBuffer, task *Task) error {
	if task.Count.IsZero() {
		return nil
	}
	cur := space.Cursor(task.Start)
	for remaining := task.Count; !remaining.IsZero(); {
		chunk := remaining.Lo
		if remaining.Hi != 0 {
			chunk = math.MaxUint64
		}
		for i := uint64(0); i < chunk; i++ {
			if i%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := buf.writeTuple(dicts, cur.Indices()); err != nil {
				return err
			}
			cur.Next()
		}
		remaining = remaining.Sub64(chunk)
	}
	return nil
}

// sample draws task.Count tuples, or draws until cancelled for
// WorkSampleForever.
func sample(ctx context.Context, space Space, dicts []*Dictionary, buf *lineBuffer, src *xoshiro.Source, task *Task) error {
	forever := task.Kind == WorkSampleForever
	idx := make([]int, space.Width())
	remaining := task.Count
	for i := uint64(0); forever || !remaining.IsZero(); i++ {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		space.Sample(src, idx)
		if err := buf.writeTuple(dicts, idx); err != nil {
			return err
		}
		if !forever {
			remaining = remaining.Sub64(1)
		}
	}
	return nil
}

// saturate clamps a 128-bit value to uint64 for display.
func saturate(u uint128.Uint128) uint64 {
	if u.Hi != 0 {
		return math.MaxUint64
	}
	return u.Lo
}
