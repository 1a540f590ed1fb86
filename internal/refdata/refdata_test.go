package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/grants-cli/internal/model"
)

const totalsYAML = `
"#": "annual totals in USD, from published reports"
Alpha Philanthropy:
  "2023": 8000000
  "2024": 10000000
  "#source": "2024 annual report"
Beta Fund:
  "2024": 2500000
  "2025": "TBD"
_placeholder:
  "2024": 1
`

func TestParsePublishedTotals(t *testing.T) {
	totals, err := ParsePublishedTotals([]byte(totalsYAML))
	require.NoError(t, err)

	got, ok := totals.Lookup("Alpha Philanthropy", 2024)
	require.True(t, ok)
	assert.Equal(t, 10000000.0, got)

	got, ok = totals.Lookup("Alpha Philanthropy", 2023)
	require.True(t, ok)
	assert.Equal(t, 8000000.0, got)

	// Non-numeric value skipped, not an error.
	_, ok = totals.Lookup("Beta Fund", 2025)
	assert.False(t, ok)

	// Comment and placeholder keys skipped.
	_, ok = totals.Lookup("#", 2024)
	assert.False(t, ok)
	_, ok = totals.Lookup("_placeholder", 2024)
	assert.False(t, ok)

	assert.Equal(t, []int{2023, 2024}, totals.Years("Alpha Philanthropy"))
	assert.Equal(t, []string{"Alpha Philanthropy", "Beta Fund"}, totals.Grantmakers())
}

func TestParsePublishedTotals_Malformed(t *testing.T) {
	_, err := ParsePublishedTotals([]byte("not: [valid: yaml"))
	assert.Error(t, err)
}

func TestCategoryHints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
Alpha Philanthropy: "Long-Term & X-Risk"
Beta Fund: "Global Health"
Misconfigured: "Not A Category"
"#note": "comment"
`), 0o644))

	hints, err := LoadCategoryHints(path)
	require.NoError(t, err)

	assert.Equal(t, model.CategoryLongTerm, hints.For("Alpha Philanthropy"))
	assert.Equal(t, model.CategoryGlobalHealth, hints.For("Beta Fund"))
	// Unknown grantmakers and invalid categories default to Other.
	assert.Equal(t, model.CategoryOther, hints.For("Gamma Trust"))
	assert.Equal(t, model.CategoryOther, hints.For("Misconfigured"))
	assert.NotContains(t, hints, "#note")
}

func TestLoadPublishedTotals_MissingFile(t *testing.T) {
	_, err := LoadPublishedTotals(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
