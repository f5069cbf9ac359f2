// Bench is a benchmarking tool for measuring combogen generation throughput
// and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -tokens 10000 -length 2 -workers 8
//	go run ./cmd/bench -tokens 2048 -length 3 -random 100000000 -out file
//
// Flags:
//
//	-tokens    Synthetic dictionary size (default: 10,000)
//	-toklen    Maximum token length; lengths are uniform in [1, toklen] (default: 10)
//	-length    Tuple length (default: 2)
//	-workers   Number of parallel workers (default: 1)
//	-buffer    Per-worker buffer size (default: 4MiB)
//	-random    Draw this many random tuples instead of enumerating (default: 0)
//	-distinct  Use distinct-token tuples (default: false)
//	-out       Output target: discard, file, or file-reserve (default: discard)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"lukechampine.com/uint128"

	"github.com/tamirms/combogen"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler tracks peak heap and RSS every 10ms. runtime/metrics avoids
// the stop-the-world pause of ReadMemStats, which would distort profiles.
type peakSampler struct {
	heap atomic.Uint64
	rss  atomic.Uint64
	done chan struct{}
}

func startSampler() *peakSampler {
	p := &peakSampler{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&p.heap, samples[0].Value.Uint64())
				storeMax(&p.rss, getMaxRSS())
			}
		}
	}()
	return p
}

func (p *peakSampler) stop() { close(p.done) }

func storeMax(v *atomic.Uint64, x uint64) {
	for {
		old := v.Load()
		if x <= old || v.CompareAndSwap(old, x) {
			return
		}
	}
}

func main() {
	tokensFlag := flag.Int("tokens", 10_000, "synthetic dictionary size")
	tokLenFlag := flag.Int("toklen", 10, "maximum token length")
	lengthFlag := flag.Int("length", 2, "tuple length")
	workersFlag := flag.Int("workers", 1, "number of parallel workers")
	bufferFlag := flag.String("buffer", "4MiB", "per-worker output buffer size")
	randomFlag := flag.Uint64("random", 0, "draw this many random tuples instead of enumerating")
	distinctFlag := flag.Bool("distinct", false, "use distinct-token tuples")
	outFlag := flag.String("out", "discard", "output target: discard, file, or file-reserve")
	dirFlag := flag.String("dir", "", "temp directory (default: os.TempDir())")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (generation phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (generation phase only)")
	flag.Parse()

	bufferSize, err := humanize.ParseBytes(*bufferFlag)
	if err != nil {
		fmt.Printf("Invalid -buffer: %v\n", err)
		return
	}

	tmpDir, err := os.MkdirTemp(*dirFlag, "combogen-bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	fmt.Println("Writing dictionary...")
	dictPath := filepath.Join(tmpDir, "dict.txt")
	if err := writeDictionary(dictPath, *tokensFlag, *tokLenFlag); err != nil {
		fmt.Printf("Failed to write dictionary: %v\n", err)
		return
	}

	loadStart := time.Now()
	dict, err := combogen.Open(dictPath)
	if err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	defer func() { _ = dict.Close() }()
	loadDuration := time.Since(loadStart)

	out, outFile, err := openTarget(*outFlag, tmpDir)
	if err != nil {
		fmt.Println(err)
		return
	}
	if outFile != nil {
		defer func() { _ = outFile.Close() }()
	}

	opts := []combogen.Option{
		combogen.WithWorkers(*workersFlag),
		combogen.WithBufferSize(int(bufferSize)),
	}
	g := combogen.New(out, opts...)
	lengths := combogen.SingleLength(*lengthFlag)

	mode := combogen.Sequential()
	if *randomFlag > 0 {
		mode = combogen.Random(uint128.From64(*randomFlag))
	}

	generate, estimate := g.Power, g.EstimatePower
	if *distinctFlag {
		generate, estimate = g.Distinct, g.EstimateDistinct
	}
	if *outFlag == "file-reserve" && !mode.IsRandom() {
		if size, ok := estimate(dict, lengths); ok {
			if err := combogen.Reserve(outFile, size); err != nil {
				fmt.Printf("Reserve failed (continuing): %v\n", err)
			}
		}
	}

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	sampler := startSampler()
	sampler.heap.Store(baseline.Alloc)
	sampler.rss.Store(baselineRSS)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Printf("Generating (%s, %s)...\n", mode, *outFlag)
	genStart := time.Now()
	stats, genErr := generate(context.Background(), dict, lengths, mode)
	genDuration := time.Since(genStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}
	sampler.stop()

	if genErr != nil {
		fmt.Printf("Generation failed: %v\n", genErr)
		return
	}
	if len(stats.Skipped) > 0 {
		fmt.Printf("Length %d skipped: above %d or combination count exceeds 128 bits\n", *lengthFlag, combogen.MaxLength)
		return
	}

	storeMax(&sampler.rss, getMaxRSS())
	peakHeapMem := sampler.heap.Load() - baseline.Alloc
	peakRSSMem := sampler.rss.Load() - baselineRSS

	lines := float64(stats.Lines.Lo)
	bytesOut := float64(stats.Bytes.Lo)
	secs := genDuration.Seconds()

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════╗\n")
	fmt.Printf("║ Workers: %-11d║ Out: %-12s║\n", *workersFlag, *outFlag)
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value            ║\n")
	fmt.Printf("╠═════════════════════╬══════════════════╣\n")
	fmt.Printf("║ Dictionary load     ║ %8.2f ms      ║\n", float64(loadDuration.Microseconds())/1000)
	fmt.Printf("║ Lines               ║ %16s ║\n", stats.Lines.String())
	fmt.Printf("║ Output              ║ %16s ║\n", humanize.IBytes(stats.Bytes.Lo))
	fmt.Printf("║ Flushes             ║ %16d ║\n", stats.Flushes)
	fmt.Printf("║ Generation time     ║ %8.2f sec     ║\n", secs)
	fmt.Printf("║ Line throughput     ║ %8.2f M/sec   ║\n", lines/secs/1_000_000)
	fmt.Printf("║ Byte throughput     ║ %8.2f MB/sec  ║\n", bytesOut/secs/1_000_000)
	fmt.Printf("║ Peak heap memory    ║ %8.1f MB      ║\n", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %8.1f MB      ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════╝\n")
}

// writeDictionary writes n distinct tokens of 1..maxLen lowercase letters.
func writeDictionary(path string, n, maxLen int) error {
	seen := make(map[string]struct{}, n)
	var sb strings.Builder
	for len(seen) < n {
		b := make([]byte, 1+mrand.IntN(maxLen))
		for i := range b {
			b[i] = 'a' + byte(mrand.IntN(26))
		}
		if _, dup := seen[string(b)]; dup {
			continue
		}
		seen[string(b)] = struct{}{}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// openTarget returns the writer for -out and, for file targets, the file.
func openTarget(target, dir string) (io.Writer, *os.File, error) {
	switch target {
	case "discard":
		return io.Discard, nil, nil
	case "file", "file-reserve":
		f, err := os.Create(filepath.Join(dir, "out.txt"))
		if err != nil {
			return nil, nil, fmt.Errorf("could not create output: %w", err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unknown -out %q (use discard, file or file-reserve)", target)
	}
}
