package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tamirms/combogen"
	"github.com/tamirms/combogen/internal/config"
)

func newPairCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair -c <prefixes> -d <suffixes>",
		Short: "Concatenate every prefix token with every suffix token",
		Long: `Write every prefix token immediately followed by every suffix token,
with no separator. With -R, draw random pairs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), config.Pair)
			if err != nil {
				return err
			}
			return runPair(cmd, cfg, stdout, stderr)
		},
	}
	config.RegisterPair(cmd.Flags())
	return cmd
}

func runPair(cmd *cobra.Command, cfg *config.Config, stdout, stderr io.Writer) (err error) {
	logger := cfg.Logger(stderr)

	prefix, err := openDictionary(logger, cfg.Prefix)
	if err != nil {
		return err
	}
	defer prefix.Close()

	suffix, err := openDictionary(logger, cfg.Suffix)
	if err != nil {
		return err
	}
	defer suffix.Close()

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, closeOut) }()

	g := combogen.New(out, cfg.Options(logger)...)
	mode := cfg.Mode()
	if !mode.IsRandom() {
		size, ok := g.EstimateProduct(prefix, suffix)
		reserveOutput(logger, out, size, ok)
	}

	logger.Debug("generating", "command", "pair", "mode", mode.String(), "threads", cfg.Threads)

	stats, err := g.Product(cmd.Context(), prefix, suffix, mode)
	report(logger, stderr, cfg, stats, err)
	return err
}
