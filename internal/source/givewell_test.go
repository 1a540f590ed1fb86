package source

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/grantscope/grants-cli/internal/model"
)

func giveWellWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	s, err := f.AddSheet("Grants")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := s.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestGiveWellFetch(t *testing.T) {
	payload := giveWellWorkbook(t, [][]string{
		{"Organization", "Program", "Purpose", "Amount", "Date", "Writeup"},
		{"Against Malaria Foundation", "Top Charities Fund", "Net distribution", "$3,200,000", "2024-02-20", "https://example.org/amf"},
		{"Helen Keller Intl", "Top Charities Fund", "Vitamin A", "1,000,000", "November 2024", ""},
		{"", "", "", "", "", ""},
		{"Bad Row Org", "Top Charities Fund", "No amount", "", "2024-01-01", ""},
	})

	src := NewGiveWell("https://example.org/grants.xlsx")
	f := &stubFetcher{payload: payload}

	grants, rowErrs, err := src.Fetch(context.Background(), f)
	require.NoError(t, err)

	require.Len(t, grants, 2)
	require.Len(t, rowErrs, 1)

	amf := grants[0]
	assert.Equal(t, "GiveWell", amf.Grantmaker)
	assert.Equal(t, "Against Malaria Foundation", amf.Recipient)
	assert.Equal(t, model.CategoryGlobalHealth, amf.Category)
	assert.Equal(t, 3_200_000.0, amf.Amount)
	assert.Equal(t, "https://example.org/amf", amf.URL)

	// Month-year dates coerce to the 15th.
	assert.Equal(t, "2024-11-15", grants[1].Date.String())

	assert.Equal(t, "givewell", rowErrs[0].Source)
	assert.Contains(t, rowErrs[0].Reason, "invalid amount")
}

func TestGiveWellSkipsBlankRows(t *testing.T) {
	payload := giveWellWorkbook(t, [][]string{
		{"Organization", "Program", "Purpose", "Amount", "Date", "Writeup"},
		{"", "", "", "", "", ""},
		{"", "", "", "", "", ""},
	})

	src := NewGiveWell("")
	grants, rowErrs, err := src.Fetch(context.Background(), &stubFetcher{payload: payload})
	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.Empty(t, rowErrs)
}
