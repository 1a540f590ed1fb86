package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/grants-cli/internal/model"
)

func testBuild() *model.BuildResult {
	return &model.BuildResult{
		FinishedAt: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		Grants: []model.Grant{
			{
				ID: "openphil-2", Grantmaker: "Open Philanthropy",
				Recipient: "Redwood Labs", Title: "AI alignment research",
				Description: "Long description that the lean artifact drops.",
				Category:    model.CategoryLongTerm, Amount: 1_500_000,
				Currency: "USD", Date: model.NewDate(2024, 3, 15),
				URL:     "https://example.org/grants/1",
				Funders: []string{"Open Philanthropy", "Beta Fund"},
			},
			{
				ID: "residual-alpha-2024", Grantmaker: "Alpha Foundation",
				Recipient: "Unspecified recipients", Category: model.CategoryOther,
				Amount: 3_000_000, Currency: "USD", Date: model.NewDate(2024, 7, 1),
				IsResidual: true, ResidualNote: "gap note",
			},
		},
		TotalGrants: 2,
		TotalAmount: 4_500_000,
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "grants.json")
	require.NoError(t, WriteJSON(path, testBuild()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		GeneratedAt string        `json:"generated_at"`
		TotalGrants int           `json:"total_grants"`
		TotalAmount float64       `json:"total_amount"`
		Grants      []model.Grant `json:"grants"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "2026-01-05T12:00:00Z", doc.GeneratedAt)
	assert.Equal(t, 2, doc.TotalGrants)
	require.Len(t, doc.Grants, 2)
	assert.Equal(t, "Redwood Labs", doc.Grants[0].Recipient)
	assert.Equal(t, "2024-03-15", doc.Grants[0].Date.String())
	assert.True(t, doc.Grants[1].IsResidual)

	// Indented output, no temp files left behind.
	assert.True(t, strings.HasPrefix(string(data), "{\n  "))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteLeanJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.lean.json")
	require.NoError(t, WriteLeanJSON(path, testBuild()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "Long description")
	assert.NotContains(t, out, "residual_note")
	assert.NotContains(t, out, "https://example.org/grants/1")
	assert.Contains(t, out, "Redwood Labs")
	assert.Contains(t, out, `"is_residual": true`)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.csv")
	require.NoError(t, WriteCSV(path, testBuild()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "grantmaker")
	assert.Contains(t, lines[1], "Open Philanthropy|Beta Fund")
	assert.Contains(t, lines[1], "2024-03-15")
	assert.Contains(t, lines[2], "true")
}

func TestWriteCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.csv")
	require.NoError(t, WriteCSV(path, &model.BuildResult{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,grantmaker,recipient")
}

func TestWriteJSONBadDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteJSON(filepath.Join(blocker, "grants.json"), testBuild())
	require.Error(t, err)
}
