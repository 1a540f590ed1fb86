package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/normalize"
)

const defaultOpenPhilURL = "https://www.openphilanthropy.org/giving/grants/?csv=1"

// OpenPhil reads the Open Philanthropy grants database CSV export.
//
// Rows whose focus area marks them as GiveWell-recommended are flagged
// exclude_from_total: the same disbursements appear in the GiveWell feed
// and would otherwise double-count.
type OpenPhil struct {
	url string
}

// NewOpenPhil creates the adapter. An empty url uses the default export.
func NewOpenPhil(url string) *OpenPhil {
	if url == "" {
		url = defaultOpenPhilURL
	}
	return &OpenPhil{url: url}
}

func (s *OpenPhil) Name() string       { return "openphil" }
func (s *OpenPhil) Grantmaker() string { return "Open Philanthropy" }

func (s *OpenPhil) Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	body, err := f.Download(ctx, s.url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "openphil: download")
	}
	defer body.Close()

	rows, err := fetcher.ReadCSV(body, fetcher.CSVOptions{TrimSpace: true})
	if err != nil {
		return nil, nil, eris.Wrap(err, "openphil: parse csv")
	}
	if len(rows) < 2 {
		return nil, nil, eris.New("openphil: csv has no data rows")
	}

	idx := fetcher.HeaderIndex(rows[0])
	grants := make([]model.Grant, 0, len(rows)-1)
	var rowErrs []model.RowError

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header

		amount, err := normalize.ParseAmount(fetcher.Cell(row, idx, "amount"))
		if err != nil {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}
		date, err := normalize.ParseDate(fetcher.Cell(row, idx, "date"))
		if err != nil {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}

		focusArea := fetcher.Cell(row, idx, "focus area")
		recipient := fetcher.Cell(row, idx, "organization name")
		if recipient == "" {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, "missing recipient"))
			continue
		}

		grants = append(grants, model.Grant{
			ID:         fmt.Sprintf("openphil-%d", rowNum),
			SourceID:   fetcher.Cell(row, idx, "url"),
			Grantmaker: s.Grantmaker(),
			Recipient:  recipient,
			Title:      fetcher.Cell(row, idx, "grant"),
			FocusArea:  focusArea,
			Category:   classifyFocusArea(focusArea),
			Amount:     amount,
			Currency:   "USD",
			Date:       date,
			URL:        fetcher.Cell(row, idx, "url"),
			// GiveWell-recommended rows are itemized by the GiveWell
			// source; keep them for auditability but out of totals.
			ExcludeFromTotal: strings.HasPrefix(strings.ToLower(focusArea), "givewell"),
		})
	}

	zap.L().Info("openphil: fetched grants",
		zap.Int("rows", len(grants)),
		zap.Int("rejected", len(rowErrs)),
	)
	return grants, rowErrs, nil
}
