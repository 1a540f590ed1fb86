package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grantscope/grants-cli/internal/model"
)

func TestReport(t *testing.T) {
	build := &model.BuildResult{
		StartedAt:  time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 1, 5, 12, 0, 8, 0, time.UTC),
		Sources: []model.SourceResult{
			{Source: "openphil", Fetched: 1200, Rejected: 3, RowErrors: []model.RowError{
				{Source: "openphil", Row: 17, Reason: "invalid amount"},
			}},
			{Source: "sff", Err: "download: connection refused"},
		},
		Dedup: model.DedupStats{Input: 1500, Excluded: 40, Merged: 12, Output: 1448},
		Residual: model.ResidualStats{
			Count:       1,
			TotalAmount: 3_000_000,
			Coverage: []model.CoverageRow{
				{
					Grantmaker: "Alpha Foundation", Year: 2024,
					Published: 10_000_000, Itemized: 7_000_000, Residual: 3_000_000,
					CoveragePct: 70, Emitted: true,
				},
			},
		},
		TotalGrants: 1449,
		TotalAmount: 52_340_000,
	}

	out := Report(build)

	assert.Contains(t, out, "openphil")
	assert.Contains(t, out, "1,200 grants")
	assert.Contains(t, out, "row 17: invalid amount")
	assert.Contains(t, out, "FAILED: download: connection refused")
	assert.Contains(t, out, "1,500 in, 40 excluded from totals, 12 merged, 1,448 out")
	assert.Contains(t, out, "Alpha Foundation")
	assert.Contains(t, out, "70.0%")
	assert.Contains(t, out, "*")
	assert.Contains(t, out, "1,449 grants")
}
