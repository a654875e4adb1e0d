package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/seiji-watch/polimatch/internal/db"
	"github.com/seiji-watch/polimatch/internal/staging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Creates the polimatch schema and applies any pending SQL migrations under an advisory lock.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Store.DatabaseURL == "" {
			return eris.New("no database_url configured (set store.database_url or POLIMATCH_STORE_DATABASE_URL)")
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := staging.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "migrate")
		}

		fmt.Println("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
