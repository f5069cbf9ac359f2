// Package config turns command-line flags and COMBOGEN_* environment
// variables into a validated run configuration.
//
// Flags always win over the environment, which wins over flag defaults.
// Environment names are the flag names upper-cased with dashes replaced by
// underscores: --buffer is COMBOGEN_BUFFER, --log-format is
// COMBOGEN_LOG_FORMAT.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"lukechampine.com/uint128"

	"github.com/tamirms/combogen"
	comboerrors "github.com/tamirms/combogen/errors"
	"github.com/tamirms/combogen/internal/wide"
)

// EnvPrefix is the environment variable prefix for all settings.
const EnvPrefix = "COMBOGEN"

// MaxBufferSize caps --buffer.
const MaxBufferSize = 1 << 30

// Flag names, which double as viper keys.
const (
	KeyInput       = "input"
	KeyLength      = "length"
	KeyOutput      = "output"
	KeyThreads     = "threads"
	KeyNoSeparator = "no-separator"
	KeyRandom      = "random"
	KeyCount       = "count"
	KeyDistinct    = "distinct"
	KeySeed        = "seed"
	KeyPrefix      = "prefix"
	KeySuffix      = "suffix"
	KeyBuffer      = "buffer"
	KeyDigest      = "digest"
	KeyVerbose     = "verbose"
	KeyLogFormat   = "log-format"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Command selects which flags Load requires.
type Command int

const (
	// Words generates tuples from one dictionary.
	Words Command = iota
	// Pair concatenates a prefix and a suffix dictionary.
	Pair
)

// Config is a validated run configuration.
type Config struct {
	Command Command

	Input    string
	Lengths  combogen.LengthRange
	Distinct bool

	Prefix string
	Suffix string

	Output      string // empty means stdout
	Threads     int
	NoSeparator bool

	Random   bool
	Count    uint128.Uint128
	CountSet bool // false means unbounded in random mode
	Seed     uint64
	SeedSet  bool

	BufferSize int
	Digest     bool
	Verbose    bool
	LogFormat  string
}

// RegisterShared adds the flags every generating command accepts.
func RegisterShared(fs *pflag.FlagSet) {
	fs.IntP(KeyThreads, "t", 1, "number of worker threads (values below 1 mean 1)")
	fs.BoolP(KeyRandom, "R", false, "draw random tuples instead of enumerating")
	fs.String(KeySeed, "", "fixed base seed for random mode (reproducible output)")
	fs.String(KeyBuffer, humanize.IBytes(4<<20), "per-worker output buffer size, e.g. 512KiB or 8MB")
	fs.Bool(KeyDigest, false, "print line and byte counts and the order-independent output digest to stderr")
	fs.String(KeyLogFormat, LogFormatText, "log format: text or json")
}

// RegisterWords adds the flags of the words command.
func RegisterWords(fs *pflag.FlagSet) {
	RegisterShared(fs)
	fs.StringP(KeyInput, "i", "", "dictionary file, one token per line (required)")
	fs.StringP(KeyLength, "l", "", "tuple length or inclusive range, e.g. 3 or 2-4 (required)")
	fs.StringP(KeyOutput, "o", "", "output file (default stdout)")
	fs.BoolP(KeyNoSeparator, "k", false, "concatenate tokens without a separator")
	fs.StringP(KeyCount, "n", "", "number of random tuples per length (random mode; default unbounded)")
	fs.Bool(KeyDistinct, false, "use each token at most once per tuple, in dictionary order")
}

// RegisterPair adds the flags of the pair command.
func RegisterPair(fs *pflag.FlagSet) {
	RegisterShared(fs)
	fs.StringP(KeyPrefix, "c", "", "prefix dictionary (required)")
	fs.StringP(KeySuffix, "d", "", "suffix dictionary (required)")
	fs.StringP(KeyOutput, "o", "", "output file (default stdout)")
}

// Load reads fs and the environment into a validated Config. fs must
// already be parsed. Flags that fs does not define keep their zero value;
// their COMBOGEN_* variables are not consulted.
func Load(fs *pflag.FlagSet, cmd Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	s := settings{v: v, fs: fs}

	cfg := &Config{
		Command:     cmd,
		Input:       s.getString(KeyInput),
		Distinct:    s.getBool(KeyDistinct),
		Prefix:      s.getString(KeyPrefix),
		Suffix:      s.getString(KeySuffix),
		Output:      s.getString(KeyOutput),
		NoSeparator: s.getBool(KeyNoSeparator),
		Random:      s.getBool(KeyRandom),
		Digest:      s.getBool(KeyDigest),
		Verbose:     s.getBool(KeyVerbose),
		LogFormat:   strings.ToLower(s.getString(KeyLogFormat)),
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = LogFormatText
	}

	if err := cfg.parseValues(s); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// settings reads only the keys whose flag is registered on fs.
type settings struct {
	v  *viper.Viper
	fs *pflag.FlagSet
}

func (s settings) defined(key string) bool {
	return s.fs.Lookup(key) != nil
}

func (s settings) getString(key string) string {
	if !s.defined(key) {
		return ""
	}
	return s.v.GetString(key)
}

func (s settings) getBool(key string) bool {
	return s.defined(key) && s.v.GetBool(key)
}

// parseValues handles the settings that need parsing beyond viper's getters.
func (c *Config) parseValues(s settings) error {
	c.Threads = 1
	if s.defined(KeyThreads) {
		threads, err := cast.ToIntE(s.v.Get(KeyThreads))
		if err != nil {
			return fmt.Errorf("%w: threads: %w", comboerrors.ErrConfiguration, err)
		}
		c.Threads = max(threads, 1)
	}

	if str := s.getString(KeyLength); str != "" {
		lengths, err := combogen.ParseLengthRange(str)
		if err != nil {
			return err
		}
		c.Lengths = lengths
	}

	if str := s.getString(KeyCount); str != "" {
		count, err := wide.Parse(str)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", comboerrors.ErrConfiguration, comboerrors.ErrInvalidCount, err)
		}
		c.Count, c.CountSet = count, true
	}

	if str := s.getString(KeySeed); str != "" {
		seed, err := strconv.ParseUint(str, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: seed %q: %w", comboerrors.ErrConfiguration, str, err)
		}
		c.Seed, c.SeedSet = seed, true
	}

	buffer := s.getString(KeyBuffer)
	if buffer == "" {
		buffer = "4MiB"
	}
	size, err := humanize.ParseBytes(buffer)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", comboerrors.ErrConfiguration, comboerrors.ErrInvalidBufferSize, err)
	}
	if size == 0 || size > MaxBufferSize {
		return fmt.Errorf("%w: %w: %s is outside (0, %s]", comboerrors.ErrConfiguration, comboerrors.ErrInvalidBufferSize,
			buffer, humanize.IBytes(MaxBufferSize))
	}
	c.BufferSize = int(size)
	return nil
}

// Validate checks the required arguments of c.Command.
func (c *Config) Validate() error {
	switch c.Command {
	case Words:
		if c.Input == "" {
			return missing("--input")
		}
		if c.Lengths.Min == 0 {
			return missing("--length")
		}
	case Pair:
		if c.Prefix == "" {
			return missing("--prefix")
		}
		if c.Suffix == "" {
			return missing("--suffix")
		}
	default:
		return fmt.Errorf("%w: unknown command %d", comboerrors.ErrConfiguration, c.Command)
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("%w: log format %q (want %s or %s)", comboerrors.ErrConfiguration, c.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}

func missing(flag string) error {
	return fmt.Errorf("%w: %w: %s", comboerrors.ErrConfiguration, comboerrors.ErrMissingArgument, flag)
}

// Mode returns the generation mode. A count without --random is ignored;
// the pair command is always unbounded in random mode.
func (c *Config) Mode() combogen.Mode {
	switch {
	case !c.Random:
		return combogen.Sequential()
	case c.CountSet && c.Command == Words:
		return combogen.Random(c.Count)
	default:
		return combogen.RandomForever()
	}
}

// Options returns the generator options c describes.
func (c *Config) Options(logger *slog.Logger) []combogen.Option {
	opts := []combogen.Option{
		combogen.WithWorkers(c.Threads),
		combogen.WithBufferSize(c.BufferSize),
		combogen.WithLogger(logger),
	}
	if c.NoSeparator {
		opts = append(opts, combogen.WithoutSeparator())
	}
	if c.SeedSet {
		opts = append(opts, combogen.WithSeed(c.Seed))
	}
	if c.Digest {
		opts = append(opts, combogen.WithDigest())
	}
	return opts
}

// Logger builds the run's logger on w: debug level with --verbose,
// info otherwise.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if c.Verbose {
		handlerOpts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if c.LogFormat == LogFormatJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
