package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/grants-cli/internal/model"
)

const serveArtifact = `{
  "generated_at": "2026-01-05T12:00:00Z",
  "total_grants": 3,
  "total_amount": 4800000,
  "grants": [
    {"id": "g-1", "grantmaker": "Open Philanthropy", "recipient": "Redwood Labs",
     "category": "Long-Term & X-Risk", "amount": 1500000, "currency": "USD", "date": "2024-03-15"},
    {"id": "g-2", "grantmaker": "GiveWell", "recipient": "Against Malaria Foundation",
     "category": "Global Health", "amount": 3200000, "currency": "USD", "date": "2023-11-02"},
    {"id": "g-3", "grantmaker": "Open Philanthropy", "recipient": "AMF",
     "category": "Global Health", "amount": 100000, "currency": "USD", "date": "2024-01-10",
     "exclude_from_total": true}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grants.json"), []byte(serveArtifact), 0o644))

	router, err := newRouter(dir)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServeHealthz(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, "ok", body["status"])
}

func TestServeGrantsFilters(t *testing.T) {
	srv := newTestServer(t)

	var all []model.Grant
	getJSON(t, srv.URL+"/api/grants", &all)
	assert.Len(t, all, 3)

	var op []model.Grant
	getJSON(t, srv.URL+"/api/grants?grantmaker=Open+Philanthropy", &op)
	assert.Len(t, op, 2)

	var health []model.Grant
	getJSON(t, srv.URL+"/api/grants?category=Global+Health&year=2023", &health)
	require.Len(t, health, 1)
	assert.Equal(t, "g-2", health[0].ID)

	var big []model.Grant
	getJSON(t, srv.URL+"/api/grants?min_amount=2000000", &big)
	require.Len(t, big, 1)
	assert.Equal(t, "g-2", big[0].ID)
}

func TestServeStats(t *testing.T) {
	srv := newTestServer(t)

	var stats statsResponse
	getJSON(t, srv.URL+"/api/stats", &stats)

	assert.Equal(t, 3, stats.TotalGrants)
	// Excluded grants stay out of the aggregates.
	assert.Equal(t, 3_200_000.0, stats.ByCategory["Global Health"])
	assert.Equal(t, 1_500_000.0, stats.ByGrantmaker["Open Philanthropy"])
}

func TestServeDataFiles(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/data/grants.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewRouterMissingArtifact(t *testing.T) {
	_, err := newRouter(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run build first")
}
