package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SBrookhart/side-quest-generator/internal/ai"
	"github.com/SBrookhart/side-quest-generator/internal/classify"
	"github.com/SBrookhart/side-quest-generator/internal/config"
	"github.com/SBrookhart/side-quest-generator/internal/daily"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/publish"
	"github.com/SBrookhart/side-quest-generator/internal/resolve"
	"github.com/SBrookhart/side-quest-generator/internal/store"
)

var (
	flagGenDate  string
	flagGenForce bool
	flagGenFocus string

	flagBackfillFrom  string
	flagBackfillTo    string
	flagBackfillForce bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the quest batch for a day",
	Long: `Collect inspiration, generate a batch of quests and store it for a day.

A day that already has a batch is left alone unless --force is given. Titles that
match any earlier day are regenerated; if a title cannot be made unique nothing is
stored for the day.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		day := flagGenDate
		if day == "" {
			day = cfg.Today()
		}

		var focus classify.Theme
		if flagGenFocus != "" {
			if focus, err = classify.ResolveAlias(flagGenFocus); err != nil {
				return err
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		p, cleanup, err := buildPipeline(ctx, cfg, st, focus)
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := p.Run(ctx, day, flagGenForce)
		if err != nil {
			return explainRunError(err)
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate batches for a range of days",
	Long: `Run generate for every day from --from to --to inclusive, oldest first, so each
day is checked against the days before it. A failing day is reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if flagBackfillFrom == "" {
			return errors.New("--from is required")
		}
		to := flagBackfillTo
		if to == "" {
			to = cfg.Today()
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		p, cleanup, err := buildPipeline(ctx, cfg, st, "")
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := p.Backfill(ctx, flagBackfillFrom, to, flagBackfillForce)
		if report != nil {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Generated: %d  Skipped: %d  Failed: %d\n",
				len(report.Generated), len(report.Skipped), len(report.Failed))
			for day, ferr := range report.Failed {
				fmt.Fprintf(w, "  [fail] %s: %v\n", day, ferr)
			}
		}
		return err
	},
}

func init() {
	generateCmd.Flags().StringVar(&flagGenDate, "date", "", "day to generate (YYYY-MM-DD, default today)")
	generateCmd.Flags().BoolVar(&flagGenForce, "force", false, "regenerate even if the day already has a batch")
	generateCmd.Flags().StringVar(&flagGenFocus, "focus", "", "prefer inspiration from one theme (ai, crypto, creative, dev, prod, social, play)")

	backfillCmd.Flags().StringVar(&flagBackfillFrom, "from", "", "first day (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&flagBackfillTo, "to", "", "last day (YYYY-MM-DD, default today)")
	backfillCmd.Flags().BoolVar(&flagBackfillForce, "force", false, "regenerate days that already have a batch")
}

// buildPipeline wires the store, generator, signal sources and publisher from
// cfg. The cleanup func releases the publish backend.
func buildPipeline(ctx context.Context, cfg *config.Config, st *store.Store, focus classify.Theme) (*daily.Pipeline, func(), error) {
	if !cfg.AIEnabled() {
		return nil, nil, fmt.Errorf("%w: set ai.api_key in the config or %s", ai.ErrNotConfigured, config.EnvAIKey)
	}
	provider, err := ai.New(ctx, cfg.AI, cfg.AIKey())
	if err != nil {
		return nil, nil, fmt.Errorf("creating AI provider: %w", err)
	}

	cleanup := func() {}
	var publisher daily.Publisher
	bucket, err := publish.NewBucket(ctx, cfg)
	if err != nil {
		logging.From(ctx).Warn("publishing disabled", "error", err)
	} else {
		publisher = publish.New(bucket, cfg.Publish.Prefix)
		if c, ok := bucket.(io.Closer); ok {
			cleanup = func() { c.Close() }
		}
	}

	p := daily.New(st, ai.NewGenerator(provider), daily.SourcesFromConfig(cfg), publisher, daily.Options{
		BatchSize:     cfg.GetBatchSize(),
		Focus:         focus,
		SourceWeights: cfg.SourceWeights(),
		Resolve:       resolve.Options{MaxRounds: cfg.Resolver.MaxRounds},
	})
	return p, cleanup, nil
}

func explainRunError(err error) error {
	if errors.Is(err, resolve.ErrRegenerationExhausted) || errors.Is(err, resolve.ErrRoundLimit) {
		return fmt.Errorf("%w\nnothing was stored; try again later or with a different --focus", err)
	}
	return err
}

func printOutcome(w io.Writer, out *daily.Outcome) {
	if out.Skipped {
		fmt.Fprintf(w, "%s already has quests (use --force to regenerate).\n", out.Date)
		return
	}
	fmt.Fprintf(w, "Quests for %s (run %s)\n", out.Date, out.RunID)
	if len(out.Replaced) > 0 {
		fmt.Fprintf(w, "Replaced %d duplicate title(s) in %d round(s).\n", len(out.Replaced), out.Rounds)
	}
	if len(out.Digest.Themes) > 0 {
		fmt.Fprintf(w, "Themes: %s\n", strings.Join(out.Digest.Themes, ", "))
	}
	fmt.Fprintln(w)
	for i, idea := range out.Ideas {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, idea.Title, idea.Difficulty)
		if idea.Murmur != "" {
			fmt.Fprintf(w, "   %s\n", idea.Murmur)
		}
	}
}
