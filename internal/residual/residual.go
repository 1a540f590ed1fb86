// Package residual fills publication gaps. For every grantmaker/year with
// a published annual total, it compares the itemized sum against the
// published figure and synthesizes a clearly-marked estimate record for
// any material shortfall, so aggregate totals line up with independently
// published numbers.
package residual

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/refdata"
)

// Config is the materiality threshold gating residual creation. Both
// conditions must hold: the absolute gate avoids noisy residuals for
// small grantmakers, the relative gate avoids tiny percentage gaps on
// huge totals being dropped for the wrong reason.
type Config struct {
	// MinAmount is the absolute floor in USD. Default 100000.
	MinAmount float64

	// MinFraction is the floor for residual/published. Default 0.05.
	MinFraction float64
}

// DefaultConfig returns the $100K-and-5% materiality rule.
func DefaultConfig() Config {
	return Config{MinAmount: 100_000, MinFraction: 0.05}
}

func (c Config) withDefaults() Config {
	if c.MinAmount <= 0 {
		c.MinAmount = 100_000
	}
	if c.MinFraction <= 0 {
		c.MinFraction = 0.05
	}
	return c
}

// Result holds the synthesized records plus per-grantmaker stats and the
// coverage rows backing the validation report.
type Result struct {
	Residuals []model.Grant
	Stats     model.ResidualStats
}

// Compute is a pure function of the deduplicated grants and the injected
// reference tables. Residuals never feed back into the itemized totals;
// a single pass is sufficient because residuals are additive.
func Compute(grants []model.Grant, totals refdata.PublishedTotals, hints refdata.CategoryHints, cfg Config) Result {
	cfg = cfg.withDefaults()

	itemized := itemizedTotals(grants)

	res := Result{
		Stats: model.ResidualStats{
			ByGrantmaker: make(map[string]model.GrantmakerResidual),
		},
	}

	// Iterate reference data in sorted order so reruns on unchanged
	// inputs produce byte-identical records.
	for _, grantmaker := range totals.Grantmakers() {
		for _, year := range totals.Years(grantmaker) {
			published, _ := totals.Lookup(grantmaker, year)
			if published <= 0 {
				continue
			}
			known := itemized[grantmaker][year]
			gap := published - known

			row := model.CoverageRow{
				Grantmaker:  grantmaker,
				Year:        year,
				Published:   published,
				Itemized:    known,
				CoveragePct: known / published * 100,
			}

			// Threshold comparison uses unrounded values.
			if gap > cfg.MinAmount && gap/published > cfg.MinFraction {
				g := newResidual(grantmaker, year, published, known, gap, hints)
				res.Residuals = append(res.Residuals, g)

				row.Residual = gap
				row.Emitted = true

				agg := res.Stats.ByGrantmaker[grantmaker]
				agg.Count++
				agg.Amount += gap
				res.Stats.ByGrantmaker[grantmaker] = agg
				res.Stats.Count++
				res.Stats.TotalAmount += gap

				zap.L().Info("residual: emitted gap record",
					zap.String("grantmaker", grantmaker),
					zap.Int("year", year),
					zap.Float64("published", published),
					zap.Float64("itemized", known),
					zap.Float64("residual", gap),
				)
			}

			res.Stats.Coverage = append(res.Stats.Coverage, row)
		}
	}

	return res
}

// itemizedTotals sums non-residual, non-excluded grants per grantmaker
// per year.
func itemizedTotals(grants []model.Grant) map[string]map[int]float64 {
	sums := make(map[string]map[int]float64)
	for _, g := range grants {
		if g.IsResidual || g.ExcludeFromTotal {
			continue
		}
		year := g.Date.Year()
		if sums[g.Grantmaker] == nil {
			sums[g.Grantmaker] = make(map[int]float64)
		}
		sums[g.Grantmaker][year] += g.Amount
	}
	return sums
}

func newResidual(grantmaker string, year int, published, known, gap float64, hints refdata.CategoryHints) model.Grant {
	pctUnitemized := gap / published * 100

	return model.Grant{
		ID:         residualID(grantmaker, year),
		Amount:     gap,
		Currency:   "USD",
		Date:       model.NewDate(year, time.July, 1),
		Grantmaker: grantmaker,
		Category:   hints.For(grantmaker),
		Recipient:  "Unspecified recipients",
		Title:      fmt.Sprintf("%s unitemized grants (%d)", grantmaker, year),
		IsResidual: true,
		ResidualNote: fmt.Sprintf(
			"Published %d total of $%.0f exceeds itemized grants of $%.0f; %.1f%% of the total is not individually itemized.",
			year, published, known, pctUnitemized,
		),
		Funders: []string{grantmaker},
	}
}

// residualID derives a stable id from grantmaker and year so reruns on
// unchanged inputs produce identical records.
func residualID(grantmaker string, year int) string {
	slug := strings.ToLower(grantmaker)
	slug = strings.Join(strings.FieldsFunc(slug, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")

	return fmt.Sprintf("residual-%s-%d", slug, year)
}
