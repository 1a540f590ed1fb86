package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantscope/grants-cli/internal/pipeline"
)

var validateSources []string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the pipeline and print the validation report without writing artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		result, err := p.Run(cmd.Context(), validateSources)
		if err != nil {
			return err
		}

		fmt.Print(pipeline.Report(result))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateSources, "sources", nil, "source names to validate (default: all)")
	rootCmd.AddCommand(validateCmd)
}
