package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/normalize"
)

const defaultGiveWellURL = "https://www.givewell.org/sites/default/files/all-grants.xlsx"

// GiveWell reads the published all-grants spreadsheet. Grants here fall
// under global health and development regardless of how a row is labeled.
type GiveWell struct {
	url string
}

// NewGiveWell creates the adapter. An empty url uses the default workbook.
func NewGiveWell(url string) *GiveWell {
	if url == "" {
		url = defaultGiveWellURL
	}
	return &GiveWell{url: url}
}

func (s *GiveWell) Name() string       { return "givewell" }
func (s *GiveWell) Grantmaker() string { return "GiveWell" }

func (s *GiveWell) Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	body, err := f.Download(ctx, s.url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "givewell: download")
	}
	defer body.Close()

	rows, err := fetcher.ReadXLSX(body, fetcher.XLSXOptions{})
	if err != nil {
		return nil, nil, eris.Wrap(err, "givewell: parse xlsx")
	}
	if len(rows) < 2 {
		return nil, nil, eris.New("givewell: sheet has no data rows")
	}

	idx := fetcher.HeaderIndex(rows[0])
	grants := make([]model.Grant, 0, len(rows)-1)
	var rowErrs []model.RowError

	for i, row := range rows[1:] {
		rowNum := i + 2

		recipient := fetcher.Cell(row, idx, "organization")
		if recipient == "" {
			// Trailing blank rows are common in exported workbooks.
			if isBlankRow(row) {
				continue
			}
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, "missing recipient"))
			continue
		}
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

		grants = append(grants, model.Grant{
			ID:         fmt.Sprintf("givewell-%d", rowNum),
			Grantmaker: s.Grantmaker(),
			Recipient:  recipient,
			Title:      fetcher.Cell(row, idx, "purpose"),
			FocusArea:  fetcher.Cell(row, idx, "program"),
			Category:   model.CategoryGlobalHealth,
			Amount:     amount,
			Currency:   "USD",
			Date:       date,
			URL:        fetcher.Cell(row, idx, "writeup"),
		})
	}

	zap.L().Info("givewell: fetched grants",
		zap.Int("rows", len(grants)),
		zap.Int("rejected", len(rowErrs)),
	)
	return grants, rowErrs, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
