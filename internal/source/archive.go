package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
)

// Archive reads a historical dump of grants previously exported by this
// pipeline, typically hosted on an FTP mirror or plain HTTP. It lets
// builds backfill grantmakers whose live sources have disappeared.
type Archive struct {
	url string
}

// NewArchive creates the adapter. The URL is required; the registry only
// registers the source when one is configured.
func NewArchive(url string) *Archive {
	return &Archive{url: url}
}

func (s *Archive) Name() string { return "archive" }

// Grantmaker is empty: archive rows carry their own grantmaker column.
func (s *Archive) Grantmaker() string { return "" }

// archiveRow mirrors the CSV layout written by the export package.
type archiveRow struct {
	ID               string     `csv:"id"`
	Grantmaker       string     `csv:"grantmaker"`
	Recipient        string     `csv:"recipient"`
	Title            string     `csv:"title,omitempty"`
	FocusArea        string     `csv:"focus_area,omitempty"`
	Category         string     `csv:"category"`
	Amount           float64    `csv:"amount"`
	Currency         string     `csv:"currency"`
	Date             model.Date `csv:"date"`
	URL              string     `csv:"url,omitempty"`
	Funders          string     `csv:"funders,omitempty"`
	ExcludeFromTotal bool       `csv:"exclude_from_total,omitempty"`
}

func (s *Archive) Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	body, err := f.Download(ctx, s.url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "archive: download")
	}
	defer body.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(body))
	if err != nil {
		return nil, nil, eris.Wrap(err, "archive: read header")
	}

	var grants []model.Grant
	var rowErrs []model.RowError
	rowNum := 1

	for {
		rowNum++
		var row archiveRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}

		if row.Grantmaker == "" || row.Recipient == "" {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, "missing grantmaker or recipient"))
			continue
		}
		if row.Amount <= 0 {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, fmt.Sprintf("non-positive amount %.2f", row.Amount)))
			continue
		}

		cat, ok := model.ParseCategory(row.Category)
		if !ok {
			cat = classifyFocusArea(row.FocusArea)
		}

		g := model.Grant{
			ID:               row.ID,
			Grantmaker:       row.Grantmaker,
			Recipient:        row.Recipient,
			Title:            row.Title,
			FocusArea:        row.FocusArea,
			Category:         cat,
			Amount:           row.Amount,
			Currency:         row.Currency,
			Date:             row.Date,
			URL:              row.URL,
			ExcludeFromTotal: row.ExcludeFromTotal,
		}
		if row.Funders != "" {
			for _, funder := range strings.Split(row.Funders, "|") {
				g.AddFunder(strings.TrimSpace(funder))
			}
		}
		if g.ID == "" {
			g.ID = fmt.Sprintf("archive-%d", rowNum)
		}
		grants = append(grants, normalizeArchiveGrant(g))
	}

	zap.L().Info("archive: fetched grants",
		zap.Int("rows", len(grants)),
		zap.Int("rejected", len(rowErrs)),
	)
	return grants, rowErrs, nil
}

func normalizeArchiveGrant(g model.Grant) model.Grant {
	if g.Currency == "" {
		g.Currency = "USD"
	}
	return g
}
