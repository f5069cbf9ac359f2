package combogen

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	comboerrors "github.com/tamirms/combogen/errors"
)

// failingWriter accepts n writes, then fails every later one.
type failingWriter struct {
	ok    int
	err   error
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls > w.ok {
		return 0, w.err
	}
	return len(p), nil
}

func TestLineBufferFormatting(t *testing.T) {
	d, err := OpenBytes([]byte("ab\nc\n"))
	if err != nil {
		t.Fatal(err)
	}
	dicts := []*Dictionary{d, d, d}

	tests := []struct {
		name string
		sep  string
		idx  []int
		want string
	}{
		{"Space", " ", []int{0, 1, 0}, "ab c ab\n"},
		{"NoSeparator", "", []int{1, 0, 1}, "cabc\n"},
		{"MultiByte", "--", []int{1, 1, 1}, "c--c--c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			worst, err := lineSize(dicts, []byte(tt.sep))
			if err != nil {
				t.Fatal(err)
			}
			b := newLineBuffer(newSink(&out), 64, worst, []byte(tt.sep), false)
			if err := b.writeTuple(dicts, tt.idx); err != nil {
				t.Fatal(err)
			}
			if out.Len() != 0 {
				t.Error("line written before flush")
			}
			if err := b.flush(); err != nil {
				t.Fatal(err)
			}
			if out.String() != tt.want {
				t.Errorf("got %q, want %q", out.String(), tt.want)
			}
			if b.lines != 1 || b.bytes != uint64(len(tt.want)) {
				t.Errorf("lines = %d bytes = %d", b.lines, b.bytes)
			}
		})
	}
}

func TestLineSize(t *testing.T) {
	short, _ := OpenBytes([]byte("a\nbbbb\n"))
	long, _ := OpenBytes([]byte("cc\n"))
	got, err := lineSize([]*Dictionary{short, long, short}, []byte(" "))
	if err != nil {
		t.Fatal(err)
	}
	// 4 + 1 + 2 + 1 + 4 + newline
	if got != 13 {
		t.Errorf("lineSize = %d, want 13", got)
	}
}

// TestLineBufferFlushBoundary checks that a flush happens exactly when the
// free space drops below one worst-case line, so lines are never split and
// every flush except the last carries whole lines.
func TestLineBufferFlushBoundary(t *testing.T) {
	d, _ := OpenBytes([]byte("xyz\n"))
	dicts := []*Dictionary{d, d}
	var out lockedBuffer
	s := newSink(&out)
	// worst = 3+1+3+1 = 8; capacity 20 fits two lines before the free space
	// (4) is below worst.
	b := newLineBuffer(s, 20, 8, []byte(" "), false)
	for range 5 {
		if err := b.writeTuple(dicts, []int{0, 0}); err != nil {
			t.Fatal(err)
		}
	}
	if out.writes != 2 {
		t.Errorf("writes before final flush = %d, want 2", out.writes)
	}
	if err := b.flush(); err != nil {
		t.Fatal(err)
	}
	if out.writes != 3 || s.flushCount() != 3 {
		t.Errorf("writes = %d flushCount = %d, want 3", out.writes, s.flushCount())
	}
	if got := len(lines(t, out.Bytes())); got != 5 {
		t.Errorf("got %d lines, want 5", got)
	}
}

// TestLineBufferGrowsToWorstCase checks that a buffer smaller than one line
// is enlarged rather than overflowed.
func TestLineBufferGrowsToWorstCase(t *testing.T) {
	b := newLineBuffer(newSink(&bytes.Buffer{}), 4, 100, nil, false)
	if cap(b.buf) != 100 {
		t.Errorf("cap = %d, want 100", cap(b.buf))
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	var w failingWriter
	b := newLineBuffer(newSink(&w), 16, 4, nil, false)
	if err := b.flush(); err != nil {
		t.Fatal(err)
	}
	if w.calls != 0 {
		t.Errorf("empty flush issued %d writes", w.calls)
	}
}

// TestSinkStickyError checks the first write error is returned to every
// later writer without touching the output again.
func TestSinkStickyError(t *testing.T) {
	w := &failingWriter{ok: 1, err: syscall.EPIPE}
	s := newSink(w)

	if err := s.write([]byte("a\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := s.write([]byte("b\n"))
	for _, target := range []error{comboerrors.ErrWrite, comboerrors.ErrIO, syscall.EPIPE} {
		if !errors.Is(err, target) {
			t.Errorf("err = %v, want %v in chain", err, target)
		}
	}
	if again := s.write([]byte("c\n")); again != err {
		t.Errorf("second failure = %v, want the sticky %v", again, err)
	}
	if w.calls != 2 {
		t.Errorf("writer called %d times, want 2", w.calls)
	}
	if s.flushCount() != 1 {
		t.Errorf("flushCount = %d, want 1", s.flushCount())
	}
}
