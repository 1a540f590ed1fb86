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

const defaultSFFURL = "https://survivalandflourishing.fund/recommendations"

// SFF scrapes the recommendations table from the Survival and Flourishing
// Fund site. The fund publishes a plain HTML table rather than a feed.
type SFF struct {
	url string
}

// NewSFF creates the adapter. An empty url uses the recommendations page.
func NewSFF(url string) *SFF {
	if url == "" {
		url = defaultSFFURL
	}
	return &SFF{url: url}
}

func (s *SFF) Name() string       { return "sff" }
func (s *SFF) Grantmaker() string { return "Survival and Flourishing Fund" }

func (s *SFF) Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	body, err := f.Download(ctx, s.url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sff: download")
	}
	defer body.Close()

	rows, err := fetcher.ReadHTMLTable(body, fetcher.HTMLTableOptions{Selector: "table"})
	if err != nil {
		return nil, nil, eris.Wrap(err, "sff: parse table")
	}

	idx := fetcher.HeaderIndex(rows[0])
	grants := make([]model.Grant, 0, len(rows)-1)
	var rowErrs []model.RowError

	for i, row := range rows[1:] {
		rowNum := i + 2

		recipient := fetcher.Cell(row, idx, "organization")
		if recipient == "" {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, "missing recipient"))
			continue
		}
		amount, err := normalize.ParseAmount(fetcher.Cell(row, idx, "amount"))
		if err != nil {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}
		// Rounds are labeled with a quarter or bare year, so the
		// parser's coarse-date coercion does most of the work here.
		date, err := normalize.ParseDate(fetcher.Cell(row, idx, "round"))
		if err != nil {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}

		grants = append(grants, model.Grant{
			ID:         fmt.Sprintf("sff-%d", rowNum),
			Grantmaker: s.Grantmaker(),
			Recipient:  recipient,
			Title:      fetcher.Cell(row, idx, "purpose"),
			Category:   model.CategoryLongTerm,
			Amount:     amount,
			Currency:   "USD",
			Date:       date,
			URL:        s.url,
		})
	}

	zap.L().Info("sff: fetched grants",
		zap.Int("rows", len(grants)),
		zap.Int("rejected", len(rowErrs)),
	)
	return grants, rowErrs, nil
}
