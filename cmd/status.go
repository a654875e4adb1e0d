package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seiji-watch/polimatch/internal/model"
	"github.com/seiji-watch/polimatch/internal/staging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staging counts per domain",
	Long:  "Displays the matching-status breakdown of every domain's staging table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rows := make(map[model.Domain]map[model.MatchStatus]int, len(model.AllDomains))
		for _, d := range model.AllDomains {
			dcfg, err := staging.ConfigFor(d)
			if err != nil {
				return err
			}
			counts, err := staging.NewPostgresStore(env.Pool, dcfg).CountsByStatus(ctx)
			if err != nil {
				return err
			}
			rows[d] = counts
		}

		formatStatus(os.Stdout, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes a tabular status breakdown to w.
func formatStatus(out io.Writer, rows map[model.Domain]map[model.MatchStatus]int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DOMAIN\tPENDING\tMATCHED\tNEEDS_REVIEW\tNO_MATCH\tTOTAL")
	_, _ = fmt.Fprintln(w, "------\t-------\t-------\t------------\t--------\t-----")

	for _, d := range model.AllDomains {
		counts := rows[d]
		total := 0
		for _, n := range counts {
			total += n
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
			d,
			counts[model.StatusPending],
			counts[model.StatusMatched],
			counts[model.StatusNeedsReview],
			counts[model.StatusNoMatch],
			total,
		)
	}
	_ = w.Flush()
}
