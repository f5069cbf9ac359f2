package combogen

import (
	"fmt"
	"io"
	"sync"

	comboerrors "github.com/tamirms/combogen/errors"
	"github.com/zeebo/xxh3"
)

// sink serializes whole-buffer writes from all workers onto one io.Writer.
// The mutex is held only for the duration of a single Write call.
//
// The first write error is sticky: every later write from any worker fails
// with it immediately, so a closed pipe stops all workers at their next
// flush rather than each discovering it separately.
type sink struct {
	mu      sync.Mutex
	w       io.Writer
	err     error
	flushes uint64
}

func newSink(w io.Writer) *sink {
	return &sink{w: w}
}

func (s *sink) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, err := s.w.Write(p); err != nil {
		s.err = fmt.Errorf("%w: %w: %w", comboerrors.ErrIO, comboerrors.ErrWrite, err)
		return s.err
	}
	s.flushes++
	return nil
}

func (s *sink) flushCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// lineBuffer is one worker's private formatting buffer. It is flushed
// whenever the free space drops below worst, the largest line the batch can
// produce, so a line is never split across flushes.
type lineBuffer struct {
	buf   []byte
	sink  *sink
	sep   []byte
	worst int

	lines  uint64
	bytes  uint64
	hash   bool
	digest uint64 // wrapping sum of per-line xxh3 hashes
}

func newLineBuffer(s *sink, size, worst int, sep []byte, hash bool) *lineBuffer {
	return &lineBuffer{
		buf:   make([]byte, 0, max(size, worst)),
		sink:  s,
		sep:   sep,
		worst: worst,
		hash:  hash,
	}
}

// writeTuple formats one line: the tokens idx[k] of dicts[k] joined by the
// separator and terminated by '\n'.
func (b *lineBuffer) writeTuple(dicts []*Dictionary, idx []int) error {
	if cap(b.buf)-len(b.buf) < b.worst {
		if err := b.flush(); err != nil {
			return err
		}
	}

	start := len(b.buf)
	for k, i := range idx {
		if k > 0 {
			b.buf = append(b.buf, b.sep...)
		}
		b.buf = append(b.buf, dicts[k].Token(i)...)
	}
	b.buf = append(b.buf, '\n')

	b.lines++
	b.bytes += uint64(len(b.buf) - start)
	if b.hash {
		b.digest += xxh3.Hash(b.buf[start:])
	}
	return nil
}

// flush hands the buffered lines to the sink and resets the buffer.
func (b *lineBuffer) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	err := b.sink.write(b.buf)
	b.buf = b.buf[:0]
	return err
}

// lineSize returns the worst-case formatted line length for one tuple over
// dicts, including separators and the newline.
func lineSize(dicts []*Dictionary, sep []byte) (int, error) {
	size := 1
	for k, d := range dicts {
		if k > 0 {
			size += len(sep)
		}
		size += d.MaxTokenLen()
		if size > maxLineSize {
			return 0, fmt.Errorf("%w: worst-case line exceeds %d bytes", comboerrors.ErrResourceExhausted, maxLineSize)
		}
	}
	return size, nil
}
