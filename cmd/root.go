package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seiji-watch/polimatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "polimatch",
	Short: "Politician entity resolution pipeline",
	Long:  "Stages raw names extracted from parliamentary sources, resolves them to canonical politician records via rules and Claude, and promotes matches to permanent relationships.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
