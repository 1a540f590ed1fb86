package fetcher

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// HTMLTableOptions selects which table to extract from a document.
type HTMLTableOptions struct {
	// Selector narrows the search (e.g. "table.grants"). Empty means
	// every <table> in the document.
	Selector string

	// TableIndex picks among matched tables. Default 0.
	TableIndex int
}

// ReadHTMLTable extracts one table from an HTML document as rows of cell
// text. The first row holds the header cells (th or td). Cell text is
// trimmed.
func ReadHTMLTable(r io.Reader, opts HTMLTableOptions) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse html")
	}

	selector := opts.Selector
	if selector == "" {
		selector = "table"
	}

	tables := doc.Find(selector)
	if opts.TableIndex >= tables.Length() {
		return nil, eris.Errorf("fetcher: html table %d not found (%d matched %q)",
			opts.TableIndex, tables.Length(), selector)
	}

	var rows [][]string
	tables.Eq(opts.TableIndex).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	if len(rows) < 2 {
		return nil, eris.New("fetcher: html table has no data rows")
	}
	return rows, nil
}
