package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/fetcher"
	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/normalize"
)

const defaultEAFundsURL = "https://funds.effectivealtruism.org/api/payouts"

// EAFunds reads the payout reports API. Each fund publishes its grants
// separately, so the grantmaker name carries the fund.
type EAFunds struct {
	url string
}

// NewEAFunds creates the adapter. An empty url uses the public payout API.
func NewEAFunds(url string) *EAFunds {
	if url == "" {
		url = defaultEAFundsURL
	}
	return &EAFunds{url: url}
}

func (s *EAFunds) Name() string       { return "eafunds" }
func (s *EAFunds) Grantmaker() string { return "EA Funds" }

type eaFundsPayout struct {
	ID        string  `json:"id"`
	Fund      string  `json:"fund"`
	Recipient string  `json:"recipient"`
	Purpose   string  `json:"purpose"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Date      string  `json:"date"`
	URL       string  `json:"url"`
}

type eaFundsResponse struct {
	Payouts []eaFundsPayout `json:"payouts"`
}

func (s *EAFunds) Fetch(ctx context.Context, f fetcher.Fetcher) ([]model.Grant, []model.RowError, error) {
	body, err := f.Download(ctx, s.url)
	if err != nil {
		return nil, nil, eris.Wrap(err, "eafunds: download")
	}
	defer body.Close()

	var resp eaFundsResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, nil, eris.Wrap(err, "eafunds: decode payouts")
	}

	grants := make([]model.Grant, 0, len(resp.Payouts))
	var rowErrs []model.RowError

	for i, p := range resp.Payouts {
		rowNum := i + 1

		if p.Recipient == "" {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, "missing recipient"))
			continue
		}
		if p.Amount <= 0 {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, fmt.Sprintf("non-positive amount %.2f", p.Amount)))
			continue
		}
		date, err := normalize.ParseDate(p.Date)
		if err != nil {
			rowErrs = append(rowErrs, rowError(s.Name(), rowNum, err.Error()))
			continue
		}

		grantmaker := s.Grantmaker()
		if p.Fund != "" {
			grantmaker = fmt.Sprintf("EA Funds: %s", p.Fund)
		}
		currency := p.Currency
		if currency == "" {
			currency = "USD"
		}

		grants = append(grants, model.Grant{
			ID:         fmt.Sprintf("eafunds-%d", rowNum),
			SourceID:   p.ID,
			Grantmaker: grantmaker,
			Fund:       p.Fund,
			Recipient:  p.Recipient,
			Title:      p.Purpose,
			FocusArea:  p.Fund,
			Category:   classifyFocusArea(p.Fund),
			Amount:     p.Amount,
			Currency:   currency,
			Date:       date,
			URL:        p.URL,
		})
	}

	zap.L().Info("eafunds: fetched grants",
		zap.Int("rows", len(grants)),
		zap.Int("rejected", len(rowErrs)),
	)
	return grants, rowErrs, nil
}
