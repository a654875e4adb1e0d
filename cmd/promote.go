package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/seiji-watch/polimatch/internal/staging"
)

var (
	promoteSubject   int64
	promoteIDs       []int64
	promoteStart     string
	promoteMinConf   float64
	promoteCreatedBy string
)

var promoteCmd = &cobra.Command{
	Use:   "promote <domain>",
	Short: "Create relationships from matched rows",
	Long: `Promotes matched staging rows at or above the confidence floor to
permanent relationship records. Rows whose active relationship already
exists are skipped, never duplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		domain, err := parseDomain(args[0])
		if err != nil {
			return err
		}

		minConf := promoteMinConf
		if minConf == 0 {
			minConf = cfg.Matching.MinPromoteConfidence
		}

		opts := staging.PromoteOptions{
			IDs:           promoteIDs,
			MinConfidence: minConf,
			CreatedBy:     promoteCreatedBy,
		}
		if promoteSubject != 0 {
			opts.SubjectID = &promoteSubject
		}
		if promoteStart != "" {
			t, err := time.Parse("2006-01-02", promoteStart)
			if err != nil {
				return eris.Wrapf(err, "invalid --start-date %q (want YYYY-MM-DD)", promoteStart)
			}
			opts.StartDate = t
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lc, err := env.lifecycleFor(domain, false)
		if err != nil {
			return err
		}

		counts, err := lc.Promote(ctx, opts)
		if err != nil {
			return err
		}

		fmt.Printf("%d relationships created, %d skipped\n", counts.Created, counts.Skipped)
		return nil
	},
}

func init() {
	promoteCmd.Flags().Int64Var(&promoteSubject, "subject", 0, "restrict to one subject id")
	promoteCmd.Flags().Int64SliceVar(&promoteIDs, "ids", nil, "restrict to specific staging row ids")
	promoteCmd.Flags().StringVar(&promoteStart, "start-date", "", "relationship start date (YYYY-MM-DD, default today)")
	promoteCmd.Flags().Float64Var(&promoteMinConf, "min-confidence", 0, "confidence floor (default from config)")
	promoteCmd.Flags().StringVar(&promoteCreatedBy, "created-by", "polimatch", "audit author of created relationships")
	rootCmd.AddCommand(promoteCmd)
}
