package combogen

import "log/slog"

const (
	// defaultBufferSize is the per-worker output buffer size. Large enough
	// that lock acquisitions are rare compared to lines written.
	defaultBufferSize = 4 << 20

	// maxLineSize bounds the worst-case formatted line; a buffer is always
	// at least this large, so the bound keeps per-worker memory sane.
	maxLineSize = 1 << 30

	// contextCheckInterval is how often workers check for cancellation.
	contextCheckInterval = 10000
)

// Option is a functional option for configuring a Generator.
type Option func(*genConfig)

type genConfig struct {
	workers    int
	separator  []byte
	bufferSize int
	seed       uint64
	seeded     bool // true when WithSeed fixed the base seed
	digest     bool
	logger     *slog.Logger
}

func defaultGenConfig() *genConfig {
	return &genConfig{
		workers:    1,
		separator:  []byte{' '},
		bufferSize: defaultBufferSize,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithWorkers sets the number of parallel workers per batch.
// Values below 1 are coerced to 1.
func WithWorkers(n int) Option {
	return func(c *genConfig) {
		c.workers = clampWorkers(n)
	}
}

// WithSeparator sets the bytes written between tokens of a single-dictionary
// tuple. Product output never uses a separator.
func WithSeparator(sep string) Option {
	return func(c *genConfig) {
		c.separator = []byte(sep)
	}
}

// WithoutSeparator concatenates tokens directly.
func WithoutSeparator() Option {
	return WithSeparator("")
}

// WithBufferSize sets the per-worker output buffer size in bytes.
// Non-positive values keep the default. A buffer always grows to hold at
// least one worst-case line.
func WithBufferSize(n int) Option {
	return func(c *genConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithSeed fixes the base seed of random mode. Worker streams are still
// distinct from each other but identical across runs, which makes random
// output reproducible for a given worker count.
func WithSeed(seed uint64) Option {
	return func(c *genConfig) {
		c.seed = seed
		c.seeded = true
	}
}

// WithDigest enables the order-independent output digest in Stats.
// Costs one xxh3 hash per line.
func WithDigest() Option {
	return func(c *genConfig) {
		c.digest = true
	}
}

// WithLogger sets the logger for batch-level events. Nothing is logged per
// line. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *genConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
