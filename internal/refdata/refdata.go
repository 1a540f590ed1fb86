// Package refdata loads the static reference tables consumed by residual
// computation: published annual totals and per-grantmaker category hints.
// Tables are injected as immutable values so the residual computation
// stays a pure function of its inputs.
package refdata

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/grantscope/grants-cli/internal/model"
)

// PublishedTotals maps grantmaker → year → published annual total in USD.
type PublishedTotals map[string]map[int]float64

// Lookup returns the published total for a grantmaker/year.
func (p PublishedTotals) Lookup(grantmaker string, year int) (float64, bool) {
	years, ok := p[grantmaker]
	if !ok {
		return 0, false
	}
	total, ok := years[year]
	return total, ok
}

// Years returns the years with a numeric total for a grantmaker, ascending.
func (p PublishedTotals) Years(grantmaker string) []int {
	years := make([]int, 0, len(p[grantmaker]))
	for y := range p[grantmaker] {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Grantmakers returns grantmaker names in sorted order.
func (p PublishedTotals) Grantmakers() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CategoryHints maps grantmaker → default category for residual records.
type CategoryHints map[string]model.Category

// For returns the hinted category, or "Other" for unhinted grantmakers.
func (h CategoryHints) For(grantmaker string) model.Category {
	if c, ok := h[grantmaker]; ok && c.Valid() {
		return c
	}
	return model.CategoryOther
}

// LoadPublishedTotals reads a YAML table of the shape
//
//	Grantmaker Name:
//	  "2023": 100000000
//	  "2024": 120000000
//	  "#note": "comment entries are skipped"
//
// Comment keys (leading '#' or '_') and non-numeric values are skipped
// rather than treated as errors; placeholders are an expected part of the
// table format.
func LoadPublishedTotals(path string) (PublishedTotals, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read %s", path)
	}
	return ParsePublishedTotals(data)
}

// ParsePublishedTotals parses the published-totals YAML document.
func ParsePublishedTotals(data []byte) (PublishedTotals, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "refdata: parse published totals")
	}

	totals := make(PublishedTotals, len(raw))
	for grantmaker, entry := range raw {
		if isCommentKey(grantmaker) {
			continue
		}
		years, ok := entry.(map[string]any)
		if !ok {
			// Top-level comment or placeholder value.
			continue
		}
		for yearKey, val := range years {
			if isCommentKey(yearKey) {
				continue
			}
			year, err := strconv.Atoi(strings.TrimSpace(yearKey))
			if err != nil {
				zap.L().Debug("refdata: skipping non-year key",
					zap.String("grantmaker", grantmaker),
					zap.String("key", yearKey),
				)
				continue
			}
			amount, ok := toFloat(val)
			if !ok {
				zap.L().Debug("refdata: skipping non-numeric total",
					zap.String("grantmaker", grantmaker),
					zap.Int("year", year),
				)
				continue
			}
			if totals[grantmaker] == nil {
				totals[grantmaker] = make(map[int]float64)
			}
			totals[grantmaker][year] = amount
		}
	}
	return totals, nil
}

// LoadCategoryHints reads a YAML map of grantmaker → category name.
// Unknown category names fall back to "Other" at lookup time.
func LoadCategoryHints(path string) (CategoryHints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: read %s", path)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "refdata: parse category hints")
	}

	hints := make(CategoryHints, len(raw))
	for grantmaker, cat := range raw {
		if isCommentKey(grantmaker) {
			continue
		}
		hints[grantmaker] = model.Category(cat)
	}
	return hints, nil
}

func isCommentKey(k string) bool {
	k = strings.TrimSpace(k)
	return k == "" || strings.HasPrefix(k, "#") || strings.HasPrefix(k, "_")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
