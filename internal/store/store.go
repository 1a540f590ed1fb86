// Package store persists build outputs to SQLite or Postgres. The grants
// table always reflects the most recent build; the builds table keeps a
// run history.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/grantscope/grants-cli/internal/config"
	"github.com/grantscope/grants-cli/internal/model"
)

// BuildRecord is one row of the run history.
type BuildRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	TotalGrants int       `json:"total_grants"`
	TotalAmount float64   `json:"total_amount"`
}

// Store is the persistence backend.
type Store interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// RecordBuild inserts a history row and returns its generated id.
	RecordBuild(ctx context.Context, build *model.BuildResult) (string, error)

	// ReplaceGrants swaps the grants table contents for the given build.
	ReplaceGrants(ctx context.Context, buildID string, grants []model.Grant) error

	// ListBuilds returns run history, newest first.
	ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error)

	Close() error
}

// Open dispatches on the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return OpenSQLite(cfg.DatabaseURL)
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
