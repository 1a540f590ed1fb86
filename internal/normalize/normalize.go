// Package normalize cleans near-canonical grant records from source
// adapters into the canonical shape: trimmed strings, a single date
// format, and validated positive amounts. It performs no deduplication
// and no classification; every transformation is per-record and pure.
package normalize

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
)

// Record returns a cleaned copy of g, or an error naming the reason the
// record must be dropped. Applying Record to its own output is a no-op.
func Record(g model.Grant) (model.Grant, error) {
	out := g.Clone()

	out.Grantmaker = strings.TrimSpace(out.Grantmaker)
	out.Recipient = collapseSpaces(out.Recipient)
	out.Title = collapseSpaces(out.Title)
	out.FocusArea = collapseSpaces(out.FocusArea)
	out.Fund = strings.TrimSpace(out.Fund)
	out.Description = strings.TrimSpace(out.Description)
	out.URL = strings.TrimSpace(out.URL)
	out.Country = strings.TrimSpace(out.Country)

	if out.Grantmaker == "" {
		return model.Grant{}, eris.New("missing grantmaker")
	}
	if out.Recipient == "" {
		return model.Grant{}, eris.New("missing recipient")
	}
	if !out.IsResidual && out.Amount <= 0 {
		return model.Grant{}, eris.Errorf("invalid amount %v", out.Amount)
	}
	if out.Date.IsZero() {
		return model.Grant{}, eris.New("invalid date")
	}

	if out.Currency == "" {
		out.Currency = "USD"
	}
	if !out.Category.Valid() {
		out.Category = model.CategoryOther
	}

	return out, nil
}

// Run applies Record to every grant, returning the cleaned records plus
// one RowError per rejection. Rejections are counted, never fatal.
func Run(grants []model.Grant) ([]model.Grant, []model.RowError) {
	out := make([]model.Grant, 0, len(grants))
	var rejects []model.RowError

	for i, g := range grants {
		cleaned, err := Record(g)
		if err != nil {
			rejects = append(rejects, model.RowError{
				Source: g.Grantmaker,
				Row:    i,
				Reason: err.Error(),
			})
			zap.L().Debug("normalize: dropped record",
				zap.String("grantmaker", g.Grantmaker),
				zap.String("recipient", g.Recipient),
				zap.Error(err),
			)
			continue
		}
		out = append(out, cleaned)
	}

	return out, rejects
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
