package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/seiji-watch/polimatch/internal/staging"
)

var (
	matchSubject int64
	matchIDs     []int64
	matchForce   bool
	matchAgentic bool
)

var matchCmd = &cobra.Command{
	Use:   "match <domain>",
	Short: "Resolve pending staged names",
	Long: `Runs the matching pass over pending staging rows for a domain.

Each row is resolved independently; a failure on one row is counted and the
pass continues. Use --agentic to let the model drive candidate searches
through tool calls instead of receiving a pre-ranked list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		domain, err := parseDomain(args[0])
		if err != nil {
			return err
		}
		if cfg.Anthropic.Key == "" {
			return eris.New("no anthropic key configured (set anthropic.key or POLIMATCH_ANTHROPIC_KEY)")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lc, err := env.lifecycleFor(domain, matchAgentic)
		if err != nil {
			return err
		}

		opts := staging.MatchOptions{IDs: matchIDs, Force: matchForce}
		if matchSubject != 0 {
			opts.SubjectID = &matchSubject
		}

		counts, err := lc.Match(ctx, opts)
		if err != nil {
			return err
		}

		fmt.Printf("%d processed: %d matched, %d needs_review, %d no_match, %d errors\n",
			counts.Total(), counts.Matched, counts.NeedsReview, counts.NoMatch, counts.Errors)
		if counts.Errors > 0 {
			return eris.Errorf("match: %d of %d records failed", counts.Errors, counts.Total())
		}
		return nil
	},
}

func init() {
	matchCmd.Flags().Int64Var(&matchSubject, "subject", 0, "restrict to one subject id")
	matchCmd.Flags().Int64SliceVar(&matchIDs, "ids", nil, "restrict to specific staging row ids")
	matchCmd.Flags().BoolVar(&matchForce, "force", false, "reset processed rows to pending and rematch")
	matchCmd.Flags().BoolVar(&matchAgentic, "agentic", false, "use the tool-driven agentic matcher")
	rootCmd.AddCommand(matchCmd)
}
