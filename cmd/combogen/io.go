package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"lukechampine.com/uint128"

	"github.com/tamirms/combogen"
	comboerrors "github.com/tamirms/combogen/errors"
	"github.com/tamirms/combogen/internal/config"
)

// openDictionary maps path and logs its shape at debug level.
func openDictionary(logger *slog.Logger, path string) (*combogen.Dictionary, error) {
	dict, err := combogen.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		sum, _ := dict.Checksum()
		logger.Debug("dictionary loaded",
			"path", path,
			"entries", humanize.Comma(int64(dict.Len())),
			"size", humanize.Bytes(uint64(dict.Size())),
			"max_token", dict.MaxTokenLen(),
			"xxhash", fmt.Sprintf("%016x", sum))
	}
	return dict, nil
}

// openOutput returns the output writer and the function that closes it.
// An empty path means stdout, which is never closed.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create output: %w", comboerrors.ErrIO, err)
	}
	return f, f.Close, nil
}

func joinClose(err error, closeFn func() error) error {
	if closeErr := closeFn(); closeErr != nil {
		return errors.Join(err, fmt.Errorf("%w: close output: %w", comboerrors.ErrIO, closeErr))
	}
	return err
}

// reserveOutput preallocates the expected output size when out is a regular
// file. Failure only costs the optimization, so it is logged, not returned.
func reserveOutput(logger *slog.Logger, out io.Writer, size uint128.Uint128, ok bool) {
	f, isFile := out.(*os.File)
	if !isFile || !ok {
		return
	}
	if info, err := f.Stat(); err != nil || !info.Mode().IsRegular() {
		return
	}
	if err := combogen.Reserve(f, size); err != nil {
		logger.Warn("could not preallocate output", "error", err)
		return
	}
	logger.Debug("preallocated output", "bytes", size.String())
}

// report logs skipped lengths and, with --digest, prints the run summary.
// A partial summary is still printed after an interruption or a closed pipe.
func report(logger *slog.Logger, stderr io.Writer, cfg *config.Config, stats combogen.Stats, err error) {
	if len(stats.Skipped) > 0 {
		logger.Info("lengths skipped", "lengths", stats.Skipped)
	}
	if !cfg.Digest {
		return
	}
	if err != nil && !pipeClosed(err) && !errors.Is(err, context.Canceled) {
		return
	}
	fmt.Fprintf(stderr, "lines=%s bytes=%s flushes=%d digest=%016x\n",
		stats.Lines.String(), stats.Bytes.String(), stats.Flushes, stats.Digest)
}
