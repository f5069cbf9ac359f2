package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tamirms/combogen"
	"github.com/tamirms/combogen/internal/config"
)

func newWordsCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words -i <dict> -l <len|start-end>",
		Short: "Generate tuples of tokens from one dictionary",
		Long: `Generate every tuple of the given length(s) over one dictionary, in
ascending length order, or draw random tuples with -R.

By default each position ranges over every token (repetition allowed).
With --distinct a tuple uses each token at most once, in dictionary order.
Lengths whose combination count does not fit in 128 bits are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), config.Words)
			if err != nil {
				return err
			}
			return runWords(cmd, cfg, stdout, stderr)
		},
	}
	config.RegisterWords(cmd.Flags())
	return cmd
}

func runWords(cmd *cobra.Command, cfg *config.Config, stdout, stderr io.Writer) (err error) {
	logger := cfg.Logger(stderr)

	dict, err := openDictionary(logger, cfg.Input)
	if err != nil {
		return err
	}
	defer dict.Close()

	out, closeOut, err := openOutput(cfg.Output, stdout)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, closeOut) }()

	g := combogen.New(out, cfg.Options(logger)...)
	mode := cfg.Mode()

	generate, estimate := g.Power, g.EstimatePower
	if cfg.Distinct {
		generate, estimate = g.Distinct, g.EstimateDistinct
	}
	if !mode.IsRandom() {
		size, ok := estimate(dict, cfg.Lengths)
		reserveOutput(logger, out, size, ok)
	}

	logger.Debug("generating",
		"command", "words",
		"lengths", cfg.Lengths.String(),
		"distinct", cfg.Distinct,
		"mode", mode.String(),
		"threads", cfg.Threads)

	stats, err := generate(cmd.Context(), dict, cfg.Lengths, mode)
	report(logger, stderr, cfg, stats, err)
	return err
}
