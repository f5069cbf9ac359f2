// Command combogen writes token combinations from dictionary files.
//
// Usage:
//
//	combogen words -i words.txt -l 2-3 -t 8 > out.txt
//	combogen words -i words.txt -l 4 -R -n 1000000 --seed 42
//	combogen pair -c prefixes.txt -d suffixes.txt -t 4 | consumer
//
// Every flag can also be set through the environment as COMBOGEN_<FLAG>,
// e.g. COMBOGEN_THREADS=8 or COMBOGEN_LOG_FORMAT=json.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set by -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
)

// exitInterrupted is the shell convention for a run ended by SIGINT.
const exitInterrupted = 130

func main() {
	// Turn a closed downstream pipe into an EPIPE write error instead of a
	// fatal signal, so it ends the run like any other write failure.
	signal.Ignore(syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil || pipeClosed(err):
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// pipeClosed reports whether err means the consumer stopped reading, which
// ends a run normally.
func pipeClosed(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "combogen",
		Short: "High-throughput token combination generator",
		Long: `Combogen writes combinations of dictionary tokens, one per line.

Commands:
  words     Tuples over one dictionary (cartesian power or distinct tokens)
  pair      Every prefix token concatenated with every suffix token`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log batch progress at debug level")

	rootCmd.AddCommand(newWordsCmd(stdout, stderr))
	rootCmd.AddCommand(newPairCmd(stdout, stderr))
	rootCmd.AddCommand(versionCmd(stdout))
	return rootCmd
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "combogen %s (commit: %s)\n", version, commit)
		},
	}
}
