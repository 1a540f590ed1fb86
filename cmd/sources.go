package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantscope/grants-cli/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered source adapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := source.NewRegistry(cfg)
		for _, s := range reg.All() {
			grantmaker := s.Grantmaker()
			if grantmaker == "" {
				grantmaker = "(per-row)"
			}
			fmt.Printf("%-10s %s\n", s.Name(), grantmaker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
