package combogen

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// writeDict writes content to a file in a fresh temp dir and returns its path.
func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// openDict maps a dictionary holding one token per line.
func openDict(t *testing.T, tokens ...string) *Dictionary {
	t.Helper()
	d, err := Open(writeDict(t, strings.Join(tokens, "\n")+"\n"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// randomTokens returns n distinct tokens of 1..maxLen lowercase letters.
func randomTokens(rng *rand.Rand, n, maxLen int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		b := make([]byte, 1+rng.IntN(maxLen))
		for i := range b {
			b[i] = 'a' + byte(rng.IntN(26))
		}
		if s := string(b); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// lines splits generator output into lines, requiring a trailing newline.
func lines(t *testing.T, out []byte) []string {
	t.Helper()
	if len(out) == 0 {
		return nil
	}
	if out[len(out)-1] != '\n' {
		t.Fatalf("output does not end with a newline: %q", out[max(0, len(out)-20):])
	}
	return strings.Split(string(out[:len(out)-1]), "\n")
}

// sortedLines returns the lines of out in sorted order, for set comparisons.
func sortedLines(t *testing.T, out []byte) []string {
	t.Helper()
	l := lines(t, out)
	slices.Sort(l)
	return l
}

// cartesian returns every length-L tuple of tokens joined by sep, sorted.
func cartesian(tokens []string, length int, sep string) []string {
	out := []string{""}
	for range length {
		var next []string
		for _, prefix := range out {
			for _, tok := range tokens {
				if prefix == "" {
					next = append(next, tok)
				} else {
					next = append(next, prefix+sep+tok)
				}
			}
		}
		out = next
	}
	slices.Sort(out)
	return out
}

// lockedBuffer is a bytes.Buffer that records whether two Write calls ever
// overlapped, used to check that the generator serializes its output.
type lockedBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	writes  int
	overlap atomic.Bool
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	if !b.mu.TryLock() {
		b.overlap.Store(true)
		b.mu.Lock()
	}
	defer b.mu.Unlock()
	b.writes++
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte { return b.buf.Bytes() }
