package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built dataset over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		router, err := newRouter(cfg.Export.OutDir)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return eris.Wrap(err, "serve: listen")
		}
	},
}

// datasetArtifact mirrors the JSON the exporter writes.
type datasetArtifact struct {
	GeneratedAt string        `json:"generated_at"`
	TotalGrants int           `json:"total_grants"`
	TotalAmount float64       `json:"total_amount"`
	Grants      []model.Grant `json:"grants"`
}

// newRouter loads the grants.json artifact from outDir and builds the
// API routes around it.
func newRouter(outDir string) (http.Handler, error) {
	data, err := os.ReadFile(filepath.Join(outDir, "grants.json"))
	if err != nil {
		return nil, eris.Wrapf(err, "serve: read artifact in %s (run build first)", outDir)
	}
	var ds datasetArtifact
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrap(err, "serve: parse artifact")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/grants", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, filterGrants(ds.Grants, req))
	})

	r.Get("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, datasetStats(&ds))
	})

	// Raw artifacts (grants.json, grants.lean.json, grants.csv).
	r.Handle("/data/*", http.StripPrefix("/data/", http.FileServer(http.Dir(outDir))))

	return r, nil
}

func filterGrants(grants []model.Grant, req *http.Request) []model.Grant {
	q := req.URL.Query()
	grantmaker := q.Get("grantmaker")
	category := q.Get("category")
	year, _ := strconv.Atoi(q.Get("year"))
	minAmount, _ := strconv.ParseFloat(q.Get("min_amount"), 64)

	out := make([]model.Grant, 0, len(grants))
	for _, g := range grants {
		if grantmaker != "" && g.Grantmaker != grantmaker {
			continue
		}
		if category != "" && string(g.Category) != category {
			continue
		}
		if year != 0 && g.Date.Year() != year {
			continue
		}
		if minAmount > 0 && g.Amount < minAmount {
			continue
		}
		out = append(out, g)
	}
	return out
}

type statsResponse struct {
	GeneratedAt  string             `json:"generated_at"`
	TotalGrants  int                `json:"total_grants"`
	TotalAmount  float64            `json:"total_amount"`
	ByCategory   map[string]float64 `json:"by_category"`
	ByGrantmaker map[string]float64 `json:"by_grantmaker"`
}

func datasetStats(ds *datasetArtifact) statsResponse {
	stats := statsResponse{
		GeneratedAt:  ds.GeneratedAt,
		TotalGrants:  ds.TotalGrants,
		TotalAmount:  ds.TotalAmount,
		ByCategory:   make(map[string]float64),
		ByGrantmaker: make(map[string]float64),
	}
	for _, g := range ds.Grants {
		if g.ExcludeFromTotal {
			continue
		}
		stats.ByCategory[string(g.Category)] += g.Amount
		stats.ByGrantmaker[g.Grantmaker] += g.Amount
	}
	return stats
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: config server.port)")
	rootCmd.AddCommand(serveCmd)
}
