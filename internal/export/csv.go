package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/grantscope/grants-cli/internal/model"
)

// csvGrant flattens a grant for spreadsheet use. Multi-valued fields are
// pipe-joined; the archive source reads this same layout back.
type csvGrant struct {
	ID               string         `csv:"id"`
	Grantmaker       string         `csv:"grantmaker"`
	Recipient        string         `csv:"recipient"`
	Title            string         `csv:"title"`
	FocusArea        string         `csv:"focus_area"`
	Category         model.Category `csv:"category"`
	Amount           float64        `csv:"amount"`
	Currency         string         `csv:"currency"`
	Date             model.Date     `csv:"date"`
	URL              string         `csv:"url"`
	Funders          string         `csv:"funders"`
	Topics           string         `csv:"topics"`
	IsResidual       bool           `csv:"is_residual"`
	ExcludeFromTotal bool           `csv:"exclude_from_total"`
}

// WriteCSV writes the dataset as CSV to path, atomically.
func WriteCSV(path string, build *model.BuildResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	// Empty builds still get a header so downstream readers see a schema.
	if len(build.Grants) == 0 {
		if err := enc.EncodeHeader(csvGrant{}); err != nil {
			return eris.Wrap(err, "export: encode csv header")
		}
	}

	for _, g := range build.Grants {
		row := csvGrant{
			ID:               g.ID,
			Grantmaker:       g.Grantmaker,
			Recipient:        g.Recipient,
			Title:            g.Title,
			FocusArea:        g.FocusArea,
			Category:         g.Category,
			Amount:           g.Amount,
			Currency:         g.Currency,
			Date:             g.Date,
			URL:              g.URL,
			Funders:          strings.Join(g.Funders, "|"),
			Topics:           strings.Join(g.Topics, "|"),
			IsResidual:       g.IsResidual,
			ExcludeFromTotal: g.ExcludeFromTotal,
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "export: encode csv row %s", g.ID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}

	return writeAtomic(path, buf.Bytes())
}
