// Package source holds the per-grantmaker adapters. Each adapter turns a
// raw public feed (CSV export, XLSX workbook, JSON API, HTML table) into
// near-canonical grant records with per-row error capture; field cleanup
// and validation happen downstream in the normalizer.
package source

import (
	"context"

	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
)

// Source is one grantmaker feed adapter.
type Source interface {
	// Name is the unique registry identifier (e.g. "openphil").
	Name() string

	// Grantmaker is the canonical grantmaker name stamped on records.
	Grantmaker() string

	// Fetch downloads and parses the feed. Bad rows are dropped and
	// reported, never fatal; a returned error means the whole feed was
	// unavailable (transport failure after retries).
	Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error)
}

// rowError builds a RowError tagged with the source name.
func rowError(source string, row int, reason string) model.RowError {
	return model.RowError{Source: source, Row: row, Reason: reason}
}
