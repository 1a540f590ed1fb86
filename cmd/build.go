package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/export"
	"github.com/grantscope/grants-cli/internal/pipeline"
	"github.com/grantscope/grants-cli/internal/store"
)

var (
	buildSources []string
	buildOutDir  string
	buildStore   bool
	buildDryRun  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the full pipeline and write dataset artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		result, err := p.Run(cmd.Context(), buildSources)
		if err != nil {
			return err
		}

		fmt.Print(pipeline.Report(result))

		if buildDryRun {
			zap.L().Info("build: dry run, skipping artifacts")
			return nil
		}

		outDir := buildOutDir
		if outDir == "" {
			outDir = cfg.Export.OutDir
		}
		if err := export.WriteJSON(filepath.Join(outDir, "grants.json"), result); err != nil {
			return err
		}
		if err := export.WriteLeanJSON(filepath.Join(outDir, "grants.lean.json"), result); err != nil {
			return err
		}
		if err := export.WriteCSV(filepath.Join(outDir, "grants.csv"), result); err != nil {
			return err
		}

		if buildStore {
			s, err := store.Open(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(cmd.Context()); err != nil {
				return err
			}
			buildID, err := s.RecordBuild(cmd.Context(), result)
			if err != nil {
				return err
			}
			if err := s.ReplaceGrants(cmd.Context(), buildID, result.Grants); err != nil {
				return eris.Wrap(err, "persist grants")
			}
		}

		return nil
	},
}

func init() {
	buildCmd.Flags().StringSliceVar(&buildSources, "sources", nil, "source names to build (default: all)")
	buildCmd.Flags().StringVar(&buildOutDir, "out", "", "artifact output directory (default: config export.out_dir)")
	buildCmd.Flags().BoolVar(&buildStore, "store", false, "persist the build to the configured database")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "run the pipeline without writing artifacts")
	rootCmd.AddCommand(buildCmd)
}
