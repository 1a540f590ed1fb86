// Package dedup removes double-counted grants from the combined source
// set. Layer 1 honors source-provided exclusion flags; Layer 2 detects
// the same underlying grant reported independently by two grantmakers and
// folds it into a single record with merged funder provenance.
package dedup

import (
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/normalize"
)

// Config is the fuzzy matching policy. Two records with the same
// normalized recipient key, from different grantmakers, are the same
// underlying grant when both thresholds hold.
type Config struct {
	// MaxAmountRatio bounds max(a,b)/min(a,b). Default 1.10.
	MaxAmountRatio float64

	// MaxDateGapDays bounds the gap between representative dates. Default 90.
	MaxDateGapDays int
}

// DefaultConfig returns the standard matching policy.
func DefaultConfig() Config {
	return Config{MaxAmountRatio: 1.10, MaxDateGapDays: 90}
}

func (c Config) withDefaults() Config {
	if c.MaxAmountRatio <= 0 {
		c.MaxAmountRatio = 1.10
	}
	if c.MaxDateGapDays <= 0 {
		c.MaxDateGapDays = 90
	}
	return c
}

// Result holds the deduplicated set. Kept feeds totals and residual
// computation. Excluded records stay in the emitted dataset for
// auditability but never contribute to aggregates.
type Result struct {
	Kept     []model.Grant
	Excluded []model.Grant
	Stats    model.DedupStats
}

// Run deduplicates grants in stable input order. Keeper selection is
// deterministic: the first-seen record of a matched pair survives, with
// the duplicate's grantmaker added to its funders set (copy-on-merge; the
// input slice is never mutated). A record merged away is removed from
// further comparison and can only merge into one keeper.
func Run(grants []model.Grant, cfg Config) Result {
	cfg = cfg.withDefaults()

	res := Result{Stats: model.DedupStats{Input: len(grants)}}

	// Layer 1: source-flagged exclusions. The flag is authoritative and
	// never re-derived here.
	working := make([]model.Grant, 0, len(grants))
	for _, g := range grants {
		if g.ExcludeFromTotal {
			res.Excluded = append(res.Excluded, g.Clone())
			continue
		}
		working = append(working, g)
	}
	res.Stats.Excluded = len(res.Excluded)

	// Layer 2: cross-source fuzzy matching within recipient-key groups.
	// Group membership is resolved up front; comparisons walk pairs in
	// stable input order.
	groups := make(map[string][]int, len(working))
	order := make([]string, 0, len(working))
	for i, g := range working {
		key := normalize.RecipientKey(g.Recipient)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	// merged marks indexes folded into a keeper; keepers holds the
	// copy-on-merge clone carrying the extended funders set.
	merged := make(map[int]bool)
	keepers := make(map[int]*model.Grant)

	for _, key := range order {
		idxs := groups[key]
		for a := 0; a < len(idxs); a++ {
			i := idxs[a]
			if merged[i] {
				continue
			}
			for b := a + 1; b < len(idxs); b++ {
				j := idxs[b]
				if merged[j] {
					continue
				}
				if !isDuplicate(working[i], working[j], cfg) {
					continue
				}

				keeper := keepers[i]
				if keeper == nil {
					clone := working[i].Clone()
					keeper = &clone
					keepers[i] = keeper
				}
				keeper.AddFunder(working[j].Grantmaker)
				merged[j] = true
				res.Stats.Merged++

				zap.L().Debug("dedup: merged cross-source duplicate",
					zap.String("recipient_key", key),
					zap.String("keeper", working[i].Grantmaker),
					zap.String("duplicate", working[j].Grantmaker),
					zap.Float64("keeper_amount", working[i].Amount),
					zap.Float64("duplicate_amount", working[j].Amount),
				)
			}
		}
	}

	for i, g := range working {
		if merged[i] {
			continue
		}
		if keeper := keepers[i]; keeper != nil {
			res.Kept = append(res.Kept, *keeper)
			continue
		}
		res.Kept = append(res.Kept, g)
	}
	res.Stats.Output = len(res.Kept)

	return res
}

// isDuplicate applies the pairwise matching rule. Same-grantmaker records
// are never merged; sources are assumed internally deduplicated.
func isDuplicate(a, b model.Grant, cfg Config) bool {
	if a.Grantmaker == b.Grantmaker {
		return false
	}
	// Division guard: zero or negative amounts never match.
	if a.Amount <= 0 || b.Amount <= 0 {
		return false
	}

	ratio := a.Amount / b.Amount
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > cfg.MaxAmountRatio {
		return false
	}

	return a.Date.DaysApart(b.Date) <= cfg.MaxDateGapDays
}
