package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "grants-cli",
	Short: "Philanthropic grants aggregation pipeline",
	Long:  "Fetches grant data from public grantmaker feeds, normalizes and deduplicates it, synthesizes residual records against published annual totals, and writes dataset artifacts.",
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
