// Package pipeline orchestrates a build: fan out to the source adapters,
// normalize, deduplicate, synthesize residuals, and assemble the final
// dataset.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grantscope/grants-cli/internal/config"
	"github.com/grantscope/grants-cli/internal/dedup"
	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/normalize"
	"github.com/grantscope/grants-cli/internal/refdata"
	"github.com/grantscope/grants-cli/internal/residual"
	"github.com/grantscope/grants-cli/internal/source"
)

// Pipeline wires the stages together. Construct with New, then call Run.
type Pipeline struct {
	cfg      *config.Config
	registry *source.Registry
	fetcher  fetcher.Fetcher
	totals   refdata.PublishedTotals
	hints    refdata.CategoryHints
}

// New builds a pipeline from already-loaded configuration and refdata.
func New(cfg *config.Config, reg *source.Registry, f fetcher.Fetcher, totals refdata.PublishedTotals, hints refdata.CategoryHints) *Pipeline {
	return &Pipeline{cfg: cfg, registry: reg, fetcher: f, totals: totals, hints: hints}
}

// Run executes a full build over the named sources (all registered
// sources when names is empty). A source that fails after retries is
// reported in its SourceResult and skipped; Run fails only when no
// source produced data.
func (p *Pipeline) Run(ctx context.Context, names []string) (*model.BuildResult, error) {
	started := time.Now().UTC()

	sources, err := p.registry.Select(names)
	if err != nil {
		return nil, err
	}

	results := p.fetchAll(ctx, sources)

	ok := 0
	var pool []model.Grant
	for i := range results {
		sr := &results[i]
		if sr.Err != "" {
			continue
		}
		ok++

		cleaned, rowErrs := normalize.Run(sr.Grants)
		sr.RowErrors = append(sr.RowErrors, rowErrs...)
		sr.Rejected = len(sr.RowErrors)
		sr.Grants = cleaned
		pool = append(pool, cleaned...)
	}
	if ok == 0 {
		return nil, eris.New("pipeline: every source failed")
	}

	deduped := dedup.Run(pool, dedup.Config{
		MaxAmountRatio: p.cfg.Dedup.MaxAmountRatio,
		MaxDateGapDays: p.cfg.Dedup.MaxDateGapDays,
	})

	res := residual.Compute(deduped.Kept, p.totals, p.hints, residual.Config{
		MinAmount:   p.cfg.Residual.MinAmount,
		MinFraction: p.cfg.Residual.MinFraction,
	})

	// Excluded records stay in the dataset for auditability; they are
	// flagged and never counted toward totals.
	grants := make([]model.Grant, 0, len(deduped.Kept)+len(res.Residuals)+len(deduped.Excluded))
	grants = append(grants, deduped.Kept...)
	grants = append(grants, res.Residuals...)
	grants = append(grants, deduped.Excluded...)

	// Newest first; equal dates keep assembly order so builds from the
	// same inputs are byte-identical.
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].Date.After(grants[j].Date.Time)
	})

	build := &model.BuildResult{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Sources:    results,
		Dedup:      deduped.Stats,
		Residual:   res.Stats,
		Grants:     grants,
	}
	build.TotalGrants = len(grants)
	for _, g := range grants {
		if !g.ExcludeFromTotal {
			build.TotalAmount += g.Amount
		}
	}

	zap.L().Info("pipeline: build complete",
		zap.Int("sources_ok", ok),
		zap.Int("sources_failed", len(results)-ok),
		zap.Int("grants", build.TotalGrants),
		zap.Float64("total_amount", build.TotalAmount),
		zap.Duration("elapsed", build.FinishedAt.Sub(build.StartedAt)),
	)
	return build, nil
}

// fetchAll downloads every source with bounded concurrency. Results come
// back in the order the sources were given, regardless of completion
// order.
func (p *Pipeline) fetchAll(ctx context.Context, sources []source.Source) []model.SourceResult {
	results := make([]model.SourceResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if p.cfg.Fetch.Concurrency > 0 {
		g.SetLimit(p.cfg.Fetch.Concurrency)
	}

	for i, src := range sources {
		g.Go(func() error {
			sr := model.SourceResult{Source: src.Name(), Grantmaker: src.Grantmaker()}

			grants, rowErrs, err := src.Fetch(ctx, p.fetcher)
			if err != nil {
				sr.Err = err.Error()
				zap.L().Warn("pipeline: source failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
			} else {
				sr.Grants = grants
				sr.Fetched = len(grants)
				sr.RowErrors = rowErrs
				sr.Rejected = len(rowErrs)
			}

			results[i] = sr
			return nil
		})
	}

	// Workers always return nil; failures live in the per-source results.
	_ = g.Wait()
	return results
}
