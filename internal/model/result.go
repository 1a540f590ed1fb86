package model

import "time"

// RowError records a single rejected source row and why it was dropped.
type RowError struct {
	Source string `json:"source"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// SourceResult is the per-adapter fetch outcome. A transport failure after
// retries yields zero grants plus a non-empty Err; it is never fatal to
// the build.
type SourceResult struct {
	Source     string     `json:"source"`
	Grantmaker string     `json:"grantmaker"`
	Grants     []Grant    `json:"-"`
	Fetched    int        `json:"fetched"`
	Rejected   int        `json:"rejected"`
	RowErrors  []RowError `json:"row_errors,omitempty"`
	Err        string     `json:"error,omitempty"`
}

// DedupStats summarizes the deduplication pass.
type DedupStats struct {
	Input    int `json:"input"`
	Excluded int `json:"excluded"`
	Merged   int `json:"merged"`
	Output   int `json:"output"`
}

// GrantmakerResidual aggregates residual records for one grantmaker.
type GrantmakerResidual struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// CoverageRow compares itemized grants against a published annual total
// for one grantmaker/year. Used by the validation report.
type CoverageRow struct {
	Grantmaker  string  `json:"grantmaker"`
	Year        int     `json:"year"`
	Published   float64 `json:"published"`
	Itemized    float64 `json:"itemized"`
	Residual    float64 `json:"residual"`
	CoveragePct float64 `json:"coverage_pct"`
	Emitted     bool    `json:"emitted"`
}

// ResidualStats summarizes residual computation.
type ResidualStats struct {
	Count        int                           `json:"count"`
	TotalAmount  float64                       `json:"total_amount"`
	ByGrantmaker map[string]GrantmakerResidual `json:"by_grantmaker,omitempty"`
	Coverage     []CoverageRow                 `json:"coverage,omitempty"`
}

// BuildResult is the full outcome of one pipeline run.
type BuildResult struct {
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Sources     []SourceResult `json:"sources"`
	Dedup       DedupStats     `json:"dedup"`
	Residual    ResidualStats  `json:"residual"`
	Grants      []Grant        `json:"-"`
	TotalGrants int            `json:"total_grants"`
	TotalAmount float64        `json:"total_amount"`
}
