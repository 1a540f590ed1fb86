package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/grantscope/grants-cli/internal/model"
)

// SQLiteStore is the default zero-setup backend.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "grants.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open sqlite %s", path)
	}
	// Single writer; WAL keeps readers unblocked during a build.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: set pragmas")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS builds (
	id           TEXT PRIMARY KEY,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP NOT NULL,
	total_grants INTEGER NOT NULL,
	total_amount REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS grants (
	id                 TEXT PRIMARY KEY,
	build_id           TEXT NOT NULL REFERENCES builds(id),
	grantmaker         TEXT NOT NULL,
	recipient          TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	focus_area         TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL,
	amount             REAL NOT NULL,
	currency           TEXT NOT NULL,
	grant_date         TEXT NOT NULL,
	url                TEXT NOT NULL DEFAULT '',
	funders            TEXT NOT NULL DEFAULT '',
	is_residual        INTEGER NOT NULL DEFAULT 0,
	residual_note      TEXT NOT NULL DEFAULT '',
	exclude_from_total INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_grants_grantmaker ON grants(grantmaker);
CREATE INDEX IF NOT EXISTS idx_grants_date ON grants(grant_date);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

// RecordBuild implements Store.
func (s *SQLiteStore) RecordBuild(ctx context.Context, build *model.BuildResult) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, total_grants, total_amount)
		 VALUES (?, ?, ?, ?, ?)`,
		id, build.StartedAt, build.FinishedAt, build.TotalGrants, build.TotalAmount,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert build")
	}
	return id, nil
}

// ReplaceGrants implements Store.
func (s *SQLiteStore) ReplaceGrants(ctx context.Context, buildID string, grants []model.Grant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM grants"); err != nil {
		return eris.Wrap(err, "store: clear grants")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO grants (id, build_id, grantmaker, recipient, title, focus_area,
			category, amount, currency, grant_date, url, funders,
			is_residual, residual_note, exclude_from_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "store: prepare insert")
	}
	defer stmt.Close()

	for _, g := range grants {
		_, err := stmt.ExecContext(ctx,
			g.ID, buildID, g.Grantmaker, g.Recipient, g.Title, g.FocusArea,
			string(g.Category), g.Amount, g.Currency, g.Date.String(), g.URL,
			strings.Join(g.Funders, "|"),
			g.IsResidual, g.ResidualNote, g.ExcludeFromTotal,
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert grant %s", g.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "store: commit")
	}

	zap.L().Info("store: replaced grants",
		zap.String("build_id", buildID),
		zap.Int("grants", len(grants)),
	)
	return nil
}

// ListBuilds implements Store.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, total_grants, total_amount
		 FROM builds ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list builds")
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var r BuildRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.TotalGrants, &r.TotalAmount); err != nil {
			return nil, eris.Wrap(err, "store: scan build")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate builds")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
