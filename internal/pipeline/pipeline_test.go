package pipeline

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/grants-cli/internal/config"
	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/refdata"
	"github.com/grantscope/grants-cli/internal/source"
)

type nopFetcher struct{}

func (nopFetcher) Download(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (nopFetcher) DownloadToFile(context.Context, string, string) (int64, error) {
	return 0, nil
}

// fakeSource returns canned grants without touching the fetcher.
type fakeSource struct {
	name       string
	grantmaker string
	grants     []model.Grant
	rowErrs    []model.RowError
	err        error
}

func (s *fakeSource) Name() string       { return s.name }
func (s *fakeSource) Grantmaker() string { return s.grantmaker }

func (s *fakeSource) Fetch(context.Context, fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.grants, s.rowErrs, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Fetch.Concurrency = 2
	cfg.Dedup.MaxAmountRatio = 1.10
	cfg.Dedup.MaxDateGapDays = 90
	cfg.Residual.MinAmount = 100_000
	cfg.Residual.MinFraction = 0.05
	return cfg
}

func registryOf(sources ...source.Source) *source.Registry {
	reg := &source.Registry{}
	for _, s := range sources {
		reg.Register(s)
	}
	return reg
}

func TestPipelineRun(t *testing.T) {
	alpha := &fakeSource{
		name:       "alpha",
		grantmaker: "Alpha Fund",
		grants: []model.Grant{
			{
				ID: "alpha-1", Grantmaker: "Alpha Fund", Recipient: "Malaria Consortium",
				Amount: 500_000, Date: model.NewDate(2024, 3, 1),
				Category: model.CategoryGlobalHealth,
			},
			{
				ID: "alpha-2", Grantmaker: "Alpha Fund", Recipient: "Safety Lab",
				Amount: 2_000_000, Date: model.NewDate(2024, 6, 1),
				Category: model.CategoryLongTerm, ExcludeFromTotal: true,
			},
		},
	}
	beta := &fakeSource{
		name:       "beta",
		grantmaker: "Beta Fund",
		grants: []model.Grant{
			// Same recipient, within ratio and date window: merges into alpha-1.
			{
				ID: "beta-1", Grantmaker: "Beta Fund", Recipient: "Malaria Consortium Inc",
				Amount: 520_000, Date: model.NewDate(2024, 4, 10),
				Category: model.CategoryGlobalHealth,
			},
		},
		rowErrs: []model.RowError{{Source: "beta", Row: 9, Reason: "invalid amount"}},
	}

	totals := refdata.PublishedTotals{
		"Alpha Fund": {2024: 800_000},
	}
	hints := refdata.CategoryHints{"Alpha Fund": model.CategoryGlobalHealth}

	p := New(testConfig(), registryOf(alpha, beta), nopFetcher{}, totals, hints)
	build, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	// alpha-1 (merged with beta-1) + residual + excluded alpha-2.
	require.Len(t, build.Grants, 3)
	assert.Equal(t, 3, build.TotalGrants)

	byID := map[string]model.Grant{}
	for _, g := range build.Grants {
		byID[g.ID] = g
	}

	merged := byID["alpha-1"]
	assert.Equal(t, []string{"Alpha Fund", "Beta Fund"}, merged.Funders)

	res := byID["residual-alpha-fund-2024"]
	require.True(t, res.IsResidual)
	assert.Equal(t, 300_000.0, res.Amount)
	assert.Equal(t, model.CategoryGlobalHealth, res.Category)

	excluded := byID["alpha-2"]
	assert.True(t, excluded.ExcludeFromTotal)

	// Excluded records stay out of the dollar total.
	assert.Equal(t, 800_000.0, build.TotalAmount)

	// Newest first.
	for i := 1; i < len(build.Grants); i++ {
		assert.False(t, build.Grants[i-1].Date.Before(build.Grants[i].Date.Time))
	}

	// Per-source accounting.
	require.Len(t, build.Sources, 2)
	assert.Equal(t, "alpha", build.Sources[0].Source)
	assert.Equal(t, 2, build.Sources[0].Fetched)
	assert.Equal(t, 1, build.Sources[1].Rejected)
	assert.Equal(t, model.DedupStats{Input: 3, Excluded: 1, Merged: 1, Output: 1}, build.Dedup)
}

func TestPipelineSourceFailureIsNotFatal(t *testing.T) {
	good := &fakeSource{
		name:       "good",
		grantmaker: "Good Fund",
		grants: []model.Grant{
			{
				ID: "good-1", Grantmaker: "Good Fund", Recipient: "Some Org",
				Amount: 10_000, Date: model.NewDate(2024, 1, 1),
				Category: model.CategoryOther,
			},
		},
	}
	bad := &fakeSource{name: "bad", grantmaker: "Bad Fund", err: eris.New("feed: connection reset")}

	p := New(testConfig(), registryOf(good, bad), nopFetcher{}, nil, nil)
	build, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, build.Sources, 2)
	assert.Empty(t, build.Sources[0].Err)
	assert.Contains(t, build.Sources[1].Err, "connection reset")
	assert.Len(t, build.Grants, 1)
}

func TestPipelineAllSourcesFailed(t *testing.T) {
	bad := &fakeSource{name: "bad", err: eris.New("boom")}

	p := New(testConfig(), registryOf(bad), nopFetcher{}, nil, nil)
	_, err := p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every source failed")
}

func TestPipelineSelectsNamedSources(t *testing.T) {
	a := &fakeSource{name: "a", grantmaker: "A", grants: []model.Grant{{
		ID: "a-1", Grantmaker: "A", Recipient: "Org", Amount: 5, Date: model.NewDate(2023, 1, 1),
		Category: model.CategoryOther,
	}}}
	b := &fakeSource{name: "b", grantmaker: "B", err: eris.New("should not be called")}

	p := New(testConfig(), registryOf(a, b), nopFetcher{}, nil, nil)
	build, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, build.Sources, 1)
	assert.Equal(t, "a", build.Sources[0].Source)

	_, err = p.Run(context.Background(), []string{"nope"})
	require.Error(t, err)
}
