package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/seiji-watch/polimatch/internal/model"
)

var (
	extractURL   string
	extractForce bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <domain> <subject-id>",
	Short: "Stage raw names for a subject",
	Long: `Fetches the extracted-name feed for a subject and stages the rows.

A subject with existing staging rows is a no-op unless --force is given,
which purges and re-extracts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		domain, err := parseDomain(args[0])
		if err != nil {
			return err
		}
		subjectID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid subject id %q", args[1])
		}
		if extractURL == "" {
			return eris.New("--url is required")
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

		rows, err := lc.Extract(ctx, subjectID, extractURL, extractForce)
		if err != nil {
			return err
		}

		fmt.Printf("%d rows staged for %s subject %d\n", len(rows), domain, subjectID)
		for _, r := range rows {
			if r.MatchingStatus != model.StatusPending {
				fmt.Printf("  %s (%s)\n", r.SourceName, r.MatchingStatus)
				continue
			}
			fmt.Printf("  %s\n", r.SourceName)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractURL, "url", "", "source feed URL (required)")
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "purge existing staging rows and re-extract")
	rootCmd.AddCommand(extractCmd)
}
