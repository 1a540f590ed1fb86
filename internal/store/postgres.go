package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/grantscope/grants-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore backs multi-reader deployments.
type PostgresStore struct {
	pool pgPool
}

// OpenPostgres connects using a pgx connection string.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. Used by tests.
func NewPostgresStore(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS builds (
	id           UUID PRIMARY KEY,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL,
	total_grants INTEGER NOT NULL,
	total_amount DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS grants (
	id                 TEXT PRIMARY KEY,
	build_id           UUID NOT NULL REFERENCES builds(id),
	grantmaker         TEXT NOT NULL,
	recipient          TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	focus_area         TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL,
	amount             DOUBLE PRECISION NOT NULL,
	currency           TEXT NOT NULL,
	grant_date         DATE NOT NULL,
	url                TEXT NOT NULL DEFAULT '',
	funders            TEXT NOT NULL DEFAULT '',
	is_residual        BOOLEAN NOT NULL DEFAULT FALSE,
	residual_note      TEXT NOT NULL DEFAULT '',
	exclude_from_total BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_grants_grantmaker ON grants(grantmaker);
CREATE INDEX IF NOT EXISTS idx_grants_date ON grants(grant_date);
`

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

// RecordBuild implements Store.
func (s *PostgresStore) RecordBuild(ctx context.Context, build *model.BuildResult) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO builds (id, started_at, finished_at, total_grants, total_amount)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, build.StartedAt, build.FinishedAt, build.TotalGrants, build.TotalAmount,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert build")
	}
	return id, nil
}

// ReplaceGrants implements Store.
func (s *PostgresStore) ReplaceGrants(ctx context.Context, buildID string, grants []model.Grant) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM grants"); err != nil {
		return eris.Wrap(err, "store: clear grants")
	}

	for _, g := range grants {
		_, err := tx.Exec(ctx,
			`INSERT INTO grants (id, build_id, grantmaker, recipient, title, focus_area,
				category, amount, currency, grant_date, url, funders,
				is_residual, residual_note, exclude_from_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			g.ID, buildID, g.Grantmaker, g.Recipient, g.Title, g.FocusArea,
			string(g.Category), g.Amount, g.Currency, g.Date.Time, g.URL,
			strings.Join(g.Funders, "|"),
			g.IsResidual, g.ResidualNote, g.ExcludeFromTotal,
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert grant %s", g.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "store: commit")
	}

	zap.L().Info("store: replaced grants",
		zap.String("build_id", buildID),
		zap.Int("grants", len(grants)),
	)
	return nil
}

// ListBuilds implements Store.
func (s *PostgresStore) ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, finished_at, total_grants, total_amount
		 FROM builds ORDER BY started_at DESC LIMIT $1`, limit,
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
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
