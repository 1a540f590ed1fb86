// Package export writes build artifacts: the full JSON dataset, a lean
// JSON variant for client-side loading, and a CSV dump. Writes are
// atomic, first to a temp file in the target directory then renamed, so
// a crashed build never leaves a truncated artifact behind.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
)

// artifact is the top-level JSON document shape.
type artifact struct {
	GeneratedAt string        `json:"generated_at"`
	TotalGrants int           `json:"total_grants"`
	TotalAmount float64       `json:"total_amount"`
	Grants      []model.Grant `json:"grants"`
}

// leanGrant strips long text fields from a grant so the lean artifact
// stays small enough for client bundles.
type leanGrant struct {
	ID               string         `json:"id"`
	Amount           float64        `json:"amount"`
	Currency         string         `json:"currency"`
	Date             model.Date     `json:"date"`
	Grantmaker       string         `json:"grantmaker"`
	Category         model.Category `json:"category"`
	Recipient        string         `json:"recipient"`
	IsResidual       bool           `json:"is_residual,omitempty"`
	ExcludeFromTotal bool           `json:"exclude_from_total,omitempty"`
	Funders          []string       `json:"funders,omitempty"`
}

// WriteJSON writes the full dataset artifact to path.
func WriteJSON(path string, build *model.BuildResult) error {
	doc := artifact{
		GeneratedAt: build.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalGrants: build.TotalGrants,
		TotalAmount: build.TotalAmount,
		Grants:      build.Grants,
	}
	return writeJSONAtomic(path, doc)
}

// WriteLeanJSON writes the trimmed dataset artifact to path.
func WriteLeanJSON(path string, build *model.BuildResult) error {
	lean := make([]leanGrant, len(build.Grants))
	for i, g := range build.Grants {
		lean[i] = leanGrant{
			ID:               g.ID,
			Amount:           g.Amount,
			Currency:         g.Currency,
			Date:             g.Date,
			Grantmaker:       g.Grantmaker,
			Category:         g.Category,
			Recipient:        g.Recipient,
			IsResidual:       g.IsResidual,
			ExcludeFromTotal: g.ExcludeFromTotal,
			Funders:          g.Funders,
		}
	}
	doc := struct {
		GeneratedAt string      `json:"generated_at"`
		TotalGrants int         `json:"total_grants"`
		TotalAmount float64     `json:"total_amount"`
		Grants      []leanGrant `json:"grants"`
	}{
		GeneratedAt: build.FinishedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalGrants: build.TotalGrants,
		TotalAmount: build.TotalAmount,
		Grants:      lean,
	}
	return writeJSONAtomic(path, doc)
}

func writeJSONAtomic(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal json")
	}
	data = append(data, '\n')
	return writeAtomic(path, data)
}

// writeAtomic writes data to a temp file beside path and renames it into
// place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "export: write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "export: rename to %s", path)
	}

	zap.L().Info("export: wrote artifact",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return nil
}
