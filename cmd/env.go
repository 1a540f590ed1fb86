package main

import (
	"github.com/rotisserie/eris"

	"github.com/grantscope/grants-cli/internal/config"
	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/pipeline"
	"github.com/grantscope/grants-cli/internal/refdata"
	"github.com/grantscope/grants-cli/internal/resilience"
	"github.com/grantscope/grants-cli/internal/source"
)

// newPipeline assembles the fetcher, source registry, and reference
// tables from loaded configuration.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	totals, err := refdata.LoadPublishedTotals(cfg.Refdata.PublishedTotalsPath)
	if err != nil {
		return nil, eris.Wrap(err, "load published totals")
	}
	hints, err := refdata.LoadCategoryHints(cfg.Refdata.CategoryHintsPath)
	if err != nil {
		return nil, eris.Wrap(err, "load category hints")
	}

	retry := resilience.DefaultPolicy()
	if cfg.Fetch.MaxAttempts > 0 {
		retry.Attempts = cfg.Fetch.MaxAttempts
	}
	f := fetcher.NewSchemeFetcher(
		fetcher.HTTPOptions{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout(),
			Retry:     retry,
		},
		fetcher.FTPOptions{Timeout: cfg.Fetch.Timeout()},
	)

	reg := source.NewRegistry(cfg)
	return pipeline.New(cfg, reg, f, totals, hints), nil
}
