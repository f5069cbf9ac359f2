package combogen

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	comboerrors "github.com/tamirms/combogen/errors"
)

// token is an offset/length view into the dictionary's mapped bytes.
type token struct {
	off int
	n   int
}

// Dictionary is an ordered, read-only token list backed by a memory-mapped
// file. Entry order is file line order.
//
// Thread Safety:
//   - Len, Token and the other read methods are safe for concurrent use
//   - Close is NOT safe to call concurrently with reads
//   - Close must only be called after every generation using the
//     dictionary has returned; slices from Token are invalid afterwards
type Dictionary struct {
	// Memory map (no file handle needed after mmap)
	mmap mmap.MMap
	data []byte

	tokens []token

	maxLen     int
	totalBytes uint64

	closed atomic.Bool // Atomic for lock-free close check
}

// Open opens a dictionary file and indexes its lines.
// It opens the file, memory-maps it, and closes the file descriptor.
func Open(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dictionary: %w", comboerrors.ErrIO, err)
	}
	defer file.Close()
	return OpenFile(file)
}

// OpenFile indexes a dictionary by memory-mapping the given file.
// The caller is responsible for closing f. Per POSIX mmap(2), f may be
// closed immediately after OpenFile returns.
func OpenFile(f *os.File) (*Dictionary, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat dictionary %s: %w", comboerrors.ErrIO, f.Name(), err)
	}
	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", comboerrors.ErrEmptyDictionary, f.Name())
	}

	fadviseSequential(int(f.Fd()), 0, stat.Size())

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap dictionary %s: %w", comboerrors.ErrIO, f.Name(), err)
	}

	d := &Dictionary{
		mmap: mm,
		data: []byte(mm),
	}
	madviseSequential(d.data)
	if err := d.index(); err != nil {
		return nil, errors.Join(fmt.Errorf("%s: %w", f.Name(), err), d.Close())
	}
	madviseRandom(d.data)
	return d, nil
}

// OpenBytes creates a dictionary from an in-memory byte slice.
// No file is opened or memory-mapped; Close is a no-op.
// The caller must ensure data is not modified while the Dictionary is in use.
func OpenBytes(data []byte) (*Dictionary, error) {
	d := &Dictionary{data: data}
	if err := d.index(); err != nil {
		return nil, err
	}
	return d, nil
}

// index scans d.data once for line terminators. A '\r' before '\n' is
// stripped, a final line without '\n' still counts, and empty lines are
// skipped.
func (d *Dictionary) index() error {
	d.tokens = make([]token, 0, bytes.Count(d.data, []byte{'\n'})+1)

	for start := 0; start < len(d.data); {
		end := bytes.IndexByte(d.data[start:], '\n')
		next := start + end + 1
		if end < 0 {
			end = len(d.data) - start
			next = len(d.data)
		}
		n := end
		if n > 0 && d.data[start+n-1] == '\r' {
			n--
		}
		if n > 0 {
			d.tokens = append(d.tokens, token{off: start, n: n})
			d.maxLen = max(d.maxLen, n)
			d.totalBytes += uint64(n)
		}
		start = next
	}

	if len(d.tokens) == 0 {
		return comboerrors.ErrEmptyDictionary
	}
	return nil
}

// Len returns the number of tokens.
func (d *Dictionary) Len() int {
	return len(d.tokens)
}

// Token returns token i without copying. The slice's capacity is clipped so
// appending to it cannot overwrite the mapping.
func (d *Dictionary) Token(i int) []byte {
	t := d.tokens[i]
	return d.data[t.off : t.off+t.n : t.off+t.n]
}

// MaxTokenLen returns the length of the longest token in bytes.
func (d *Dictionary) MaxTokenLen() int {
	return d.maxLen
}

// TotalTokenBytes returns the summed length of all tokens.
func (d *Dictionary) TotalTokenBytes() uint64 {
	return d.totalBytes
}

// Size returns the size of the underlying file or byte slice.
func (d *Dictionary) Size() int {
	return len(d.data)
}

// Checksum returns the xxHash64 of the dictionary's raw bytes, identifying
// the exact input of a run in logs.
func (d *Dictionary) Checksum() (uint64, error) {
	if d.closed.Load() {
		return 0, comboerrors.ErrDictionaryClosed
	}
	return xxhash.Sum64(d.data), nil
}

// Close releases the mapping.
func (d *Dictionary) Close() error {
	if d.closed.Swap(true) {
		return nil // Already closed
	}

	if d.mmap != nil {
		return d.mmap.Unmap()
	}
	return nil
}
