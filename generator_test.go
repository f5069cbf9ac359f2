package combogen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"

	comboerrors "github.com/tamirms/combogen/errors"
	"lukechampine.com/uint128"
)

func TestPowerScenarios(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		lengths LengthRange
		opts    []Option
		want    []string
	}{
		{
			name:    "TwoTokensLengthTwo",
			tokens:  []string{"a", "b"},
			lengths: SingleLength(2),
			want:    []string{"a a", "a b", "b a", "b b"},
		},
		{
			name:    "NoSeparator",
			tokens:  []string{"a", "b"},
			lengths: SingleLength(2),
			opts:    []Option{WithoutSeparator()},
			want:    []string{"aa", "ab", "ba", "bb"},
		},
		{
			name:    "CustomSeparator",
			tokens:  []string{"x", "y"},
			lengths: SingleLength(2),
			opts:    []Option{WithSeparator("::")},
			want:    []string{"x::x", "x::y", "y::x", "y::y"},
		},
		{
			name:    "LengthOne",
			tokens:  []string{"c", "a", "b"},
			lengths: SingleLength(1),
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "Range",
			tokens:  []string{"0", "1"},
			lengths: LengthRange{Min: 1, Max: 3},
			want: slices.Sorted(slices.Values(slices.Concat(
				cartesian([]string{"0", "1"}, 1, " "),
				cartesian([]string{"0", "1"}, 2, " "),
				cartesian([]string{"0", "1"}, 3, " "),
			))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			stats, err := New(&out, tt.opts...).Power(t.Context(), openDict(t, tt.tokens...), tt.lengths, Sequential())
			if err != nil {
				t.Fatalf("Power: %v", err)
			}
			if got := sortedLines(t, out.Bytes()); !slices.Equal(got, tt.want) {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
			if !stats.Lines.Equals64(uint64(len(tt.want))) {
				t.Errorf("Stats.Lines = %v, want %d", stats.Lines, len(tt.want))
			}
			if !stats.Bytes.Equals64(uint64(out.Len())) {
				t.Errorf("Stats.Bytes = %v, want %d", stats.Bytes, out.Len())
			}
			if want := tt.lengths.Max - tt.lengths.Min + 1; stats.Batches != want {
				t.Errorf("Stats.Batches = %d, want %d", stats.Batches, want)
			}
		})
	}
}

// TestPowerSingleWorkerOrder checks that one worker emits tuples in index
// order, last position varying fastest.
func TestPowerSingleWorkerOrder(t *testing.T) {
	var out bytes.Buffer
	_, err := New(&out).Power(t.Context(), openDict(t, "b", "a"), SingleLength(2), Sequential())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b b", "b a", "a b", "a a"}
	if got := lines(t, out.Bytes()); !slices.Equal(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestProduct(t *testing.T) {
	prefix := openDict(t, "x", "y")
	suffix := openDict(t, "1", "2")

	for _, opts := range [][]Option{nil, {WithSeparator("-")}, {WithWorkers(3)}} {
		var out bytes.Buffer
		stats, err := New(&out, opts...).Product(t.Context(), prefix, suffix, Sequential())
		if err != nil {
			t.Fatalf("Product: %v", err)
		}
		want := []string{"x1", "x2", "y1", "y2"}
		if got := sortedLines(t, out.Bytes()); !slices.Equal(got, want) {
			t.Errorf("lines = %q, want %q", got, want)
		}
		if !stats.Lines.Equals64(4) {
			t.Errorf("Stats.Lines = %v, want 4", stats.Lines)
		}
	}
}

func TestDistinct(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}
	var out bytes.Buffer
	stats, err := New(&out, WithWorkers(3)).Distinct(t.Context(), openDict(t, tokens...), LengthRange{Min: 2, Max: 6}, Sequential())
	if err != nil {
		t.Fatal(err)
	}

	// C(5,2)+C(5,3)+C(5,4)+C(5,5) = 10+10+5+1; length 6 has no tuples.
	got := lines(t, out.Bytes())
	if len(got) != 26 || !stats.Lines.Equals64(26) {
		t.Fatalf("got %d lines (stats %v), want 26", len(got), stats.Lines)
	}
	if !slices.Equal(stats.Skipped, []int{6}) {
		t.Errorf("Skipped = %v, want [6]", stats.Skipped)
	}
	seen := map[string]bool{}
	for _, line := range got {
		if seen[line] {
			t.Errorf("duplicate line %q", line)
		}
		seen[line] = true
		fields := strings.Fields(line)
		if !slices.IsSorted(fields) || len(slices.Compact(slices.Clone(fields))) != len(fields) {
			t.Errorf("line %q repeats a token or is out of dictionary order", line)
		}
	}
}

// TestOutputIndependentOfWorkers checks the multiset of lines and the digest
// do not depend on how the space is partitioned.
func TestOutputIndependentOfWorkers(t *testing.T) {
	rng := newTestRNG(t)
	tokens := randomTokens(rng, 23, 6)
	dict := openDict(t, tokens...)
	want := cartesian(tokens, 3, " ")

	var wantDigest uint64
	for i, workers := range []int{1, 2, 3, 7, 64} {
		t.Run(fmt.Sprintf("Workers%d", workers), func(t *testing.T) {
			var out lockedBuffer
			// Small buffers force many interleaved flushes.
			g := New(&out, WithWorkers(workers), WithBufferSize(256), WithDigest())
			stats, err := g.Power(t.Context(), dict, SingleLength(3), Sequential())
			if err != nil {
				t.Fatal(err)
			}
			if out.overlap.Load() {
				t.Error("sink writes overlapped")
			}
			if got := sortedLines(t, out.Bytes()); !slices.Equal(got, want) {
				t.Fatalf("got %d lines, want %d (or contents differ)", len(got), len(want))
			}
			if stats.Flushes != uint64(out.writes) {
				t.Errorf("Stats.Flushes = %d, want %d", stats.Flushes, out.writes)
			}
			if i == 0 {
				wantDigest = stats.Digest
			} else if stats.Digest != wantDigest {
				t.Errorf("Digest = %#x, want %#x", stats.Digest, wantDigest)
			}
		})
	}
}

// TestMoreWorkersThanTuples checks empty ranges are harmless.
func TestMoreWorkersThanTuples(t *testing.T) {
	var out bytes.Buffer
	_, err := New(&out, WithWorkers(16)).Power(t.Context(), openDict(t, "a", "b"), SingleLength(2), Sequential())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(lines(t, out.Bytes())); got != 4 {
		t.Errorf("got %d lines, want 4", got)
	}
}

func TestOverflowSkipped(t *testing.T) {
	var out bytes.Buffer
	stats, err := New(&out).Power(t.Context(), openDict(t, "a", "b"), SingleLength(128), Sequential())
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes for an overflowed space", out.Len())
	}
	if !slices.Equal(stats.Skipped, []int{128}) || stats.Batches != 0 {
		t.Errorf("Skipped = %v Batches = %d", stats.Skipped, stats.Batches)
	}
}

func TestRandomCount(t *testing.T) {
	tokens := []string{"a", "b", "c"}
	valid := map[string]bool{}
	for _, l := range cartesian(tokens, 2, " ") {
		valid[l] = true
	}

	for _, workers := range []int{1, 4} {
		var out bytes.Buffer
		g := New(&out, WithWorkers(workers))
		stats, err := g.Power(t.Context(), openDict(t, tokens...), SingleLength(2), Random(uint128.From64(1001)))
		if err != nil {
			t.Fatal(err)
		}
		got := lines(t, out.Bytes())
		if len(got) != 1001 || !stats.Lines.Equals64(1001) {
			t.Fatalf("workers %d: got %d lines, want 1001", workers, len(got))
		}
		for _, l := range got {
			if !valid[l] {
				t.Fatalf("line %q is not a tuple of the dictionary", l)
			}
		}
	}
}

// TestRandomPerLength checks a bounded count applies to each length of a
// range.
func TestRandomPerLength(t *testing.T) {
	var out bytes.Buffer
	_, err := New(&out, WithWorkers(2)).Power(t.Context(), openDict(t, "a", "b"), LengthRange{Min: 1, Max: 3}, Random(uint128.From64(50)))
	if err != nil {
		t.Fatal(err)
	}
	perLength := map[int]int{}
	for _, l := range lines(t, out.Bytes()) {
		perLength[len(strings.Fields(l))]++
	}
	for length := 1; length <= 3; length++ {
		if perLength[length] != 50 {
			t.Errorf("length %d: %d lines, want 50", length, perLength[length])
		}
	}
}

func TestRandomUniform(t *testing.T) {
	var out bytes.Buffer
	const draws = 30000
	g := New(&out, WithWorkers(3), WithSeed(42))
	if _, err := g.Power(t.Context(), openDict(t, "a", "b", "c"), SingleLength(1), Random(uint128.From64(draws))); err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, l := range lines(t, out.Bytes()) {
		counts[l]++
	}
	for _, tok := range []string{"a", "b", "c"} {
		if c := counts[tok]; c < 9000 || c > 11000 {
			t.Errorf("token %q drawn %d times, want ~10000", tok, c)
		}
	}
}

func TestRandomSeedReproducible(t *testing.T) {
	dict := openDict(t, randomTokens(newTestRNG(t), 100, 8)...)
	run := func(seed uint64) string {
		var out bytes.Buffer
		g := New(&out, WithSeed(seed))
		if _, err := g.Power(t.Context(), dict, SingleLength(3), Random(uint128.From64(500))); err != nil {
			t.Fatal(err)
		}
		return out.String()
	}
	if run(7) != run(7) {
		t.Error("same seed produced different output")
	}
	if run(7) == run(8) {
		t.Error("different seeds produced identical output")
	}
}

func TestRandomUnsampleableSkipped(t *testing.T) {
	var out bytes.Buffer
	stats, err := New(&out).Distinct(t.Context(), openDict(t, "a", "b"), SingleLength(3), RandomForever())
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 || !slices.Equal(stats.Skipped, []int{3}) {
		t.Errorf("wrote %d bytes, Skipped = %v", out.Len(), stats.Skipped)
	}
}

// cancelWriter cancels a context once it has received n writes.
type cancelWriter struct {
	lockedBuffer
	n      int
	cancel context.CancelFunc
}

func (w *cancelWriter) Write(p []byte) (int, error) {
	n, err := w.lockedBuffer.Write(p)
	w.lockedBuffer.mu.Lock()
	if w.writes >= w.n {
		w.cancel()
	}
	w.lockedBuffer.mu.Unlock()
	return n, err
}

func TestRandomForeverStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	w := &cancelWriter{n: 5, cancel: cancel}

	g := New(w, WithWorkers(4), WithBufferSize(64))
	stats, err := g.Power(ctx, openDict(t, "a", "b", "c"), SingleLength(4), RandomForever())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// Every worker flushes what it buffered, so output ends on a line.
	got := lines(t, w.Bytes())
	if !stats.Lines.Equals64(uint64(len(got))) {
		t.Errorf("Stats.Lines = %v, output has %d lines", stats.Lines, len(got))
	}
	for _, l := range got {
		if len(strings.Fields(l)) != 4 {
			t.Fatalf("torn line %q", l)
		}
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	var out bytes.Buffer
	_, err := New(&out).Power(ctx, openDict(t, "a", "b"), SingleLength(20), Sequential())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes after cancellation", out.Len())
	}
}

func TestWriteErrorStopsAllWorkers(t *testing.T) {
	w := &failingWriter{ok: 2, err: io.ErrClosedPipe}
	g := New(w, WithWorkers(4), WithBufferSize(64))
	_, err := g.Power(t.Context(), openDict(t, "a", "b", "c"), LengthRange{Min: 10, Max: 12}, Sequential())
	if !errors.Is(err, comboerrors.ErrWrite) || !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("err = %v, want ErrWrite wrapping io.ErrClosedPipe", err)
	}
	if w.calls != 3 {
		t.Errorf("writer called %d times, want 3 (no writes after the failure)", w.calls)
	}
}

func TestClosedDictionary(t *testing.T) {
	d, err := OpenBytes([]byte("a\n"))
	if err != nil {
		t.Fatal(err)
	}
	d.Close()
	g := New(io.Discard)
	if _, err := g.Power(t.Context(), d, SingleLength(1), Sequential()); !errors.Is(err, comboerrors.ErrDictionaryClosed) {
		t.Errorf("Power: err = %v, want ErrDictionaryClosed", err)
	}
	if _, err := g.Product(t.Context(), openDict(t, "x"), d, Sequential()); !errors.Is(err, comboerrors.ErrDictionaryClosed) {
		t.Errorf("Product: err = %v, want ErrDictionaryClosed", err)
	}
	if _, err := g.Product(t.Context(), nil, d, Sequential()); !errors.Is(err, comboerrors.ErrMissingArgument) {
		t.Errorf("Product(nil): err = %v, want ErrMissingArgument", err)
	}
}

func TestInvalidLengths(t *testing.T) {
	g := New(io.Discard)
	dict := openDict(t, "a")
	for _, r := range []LengthRange{{0, 1}, {-2, 3}, {3, 2}} {
		_, err := g.Power(t.Context(), dict, r, Sequential())
		if !errors.Is(err, comboerrors.ErrInvalidLength) || !errors.Is(err, comboerrors.ErrConfiguration) {
			t.Errorf("range %v: err = %v, want ErrInvalidLength", r, err)
		}
	}
}

// TestMaxLengthSingleToken runs the longest allowed tuple over a
// one-token dictionary: one line of 256 tokens.
func TestMaxLengthSingleToken(t *testing.T) {
	var out bytes.Buffer
	_, err := New(&out, WithoutSeparator()).Power(t.Context(), openDict(t, "z"), SingleLength(MaxLength), Sequential())
	if err != nil {
		t.Fatal(err)
	}
	if want := strings.Repeat("z", MaxLength) + "\n"; out.String() != want {
		t.Errorf("got %d bytes, want one line of %d z", out.Len(), MaxLength)
	}
}

// TestLengthsAboveMaxSkipped checks lengths past MaxLength are skipped and
// reported while the lengths below it still run.
func TestLengthsAboveMaxSkipped(t *testing.T) {
	dict := openDict(t, "z")

	var out bytes.Buffer
	g := New(&out, WithoutSeparator())
	stats, err := g.Power(t.Context(), dict, LengthRange{Min: MaxLength - 1, Max: MaxLength + 44}, Sequential())
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	want := []string{strings.Repeat("z", MaxLength-1), strings.Repeat("z", MaxLength)}
	if got := lines(t, out.Bytes()); !slices.Equal(got, want) {
		t.Errorf("got %d lines, want lengths %d and %d", len(got), MaxLength-1, MaxLength)
	}
	if stats.Batches != 2 || !slices.Equal(stats.Skipped, []int{MaxLength + 1}) {
		t.Errorf("Batches = %d Skipped = %v, want 2 and [%d]", stats.Batches, stats.Skipped, MaxLength+1)
	}

	est, ok := g.EstimatePower(dict, LengthRange{Min: MaxLength - 1, Max: MaxLength + 44})
	if !ok || !est.Equals64(uint64(out.Len())) {
		t.Errorf("EstimatePower = %v (ok %v), wrote %d", est, ok, out.Len())
	}

	out.Reset()
	stats, err = g.Power(t.Context(), dict, SingleLength(300), Sequential())
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	if out.Len() != 0 || !slices.Equal(stats.Skipped, []int{300}) || stats.Batches != 0 {
		t.Errorf("wrote %d bytes, Skipped = %v, Batches = %d", out.Len(), stats.Skipped, stats.Batches)
	}
}

func BenchmarkPower(b *testing.B) {
	dict, err := OpenBytes([]byte(strings.Join(randomTokens(newTestRNG(b), 1000, 8), "\n")))
	if err != nil {
		b.Fatal(err)
	}
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("Workers%d", workers), func(b *testing.B) {
			g := New(io.Discard, WithWorkers(workers))
			for b.Loop() {
				if _, err := g.Power(b.Context(), dict, SingleLength(2), Sequential()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
