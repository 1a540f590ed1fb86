package pipeline

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/grantscope/grants-cli/internal/model"
)

// Report renders the validation report for one build: per-source fetch
// outcomes, dedup counts, and the published-total coverage table.
func Report(build *model.BuildResult) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "Build %s — %s\n\n",
		build.StartedAt.Format("2006-01-02 15:04:05 MST"),
		build.FinishedAt.Sub(build.StartedAt).Round(time.Millisecond),
	)

	b.WriteString("Sources\n")
	for _, sr := range build.Sources {
		if sr.Err != "" {
			fmt.Fprintf(&b, "  %-10s FAILED: %s\n", sr.Source, sr.Err)
			continue
		}
		p.Fprintf(&b, "  %-10s %d grants, %d rejected\n", sr.Source, sr.Fetched, sr.Rejected)
		for _, re := range sr.RowErrors {
			fmt.Fprintf(&b, "             row %d: %s\n", re.Row, re.Reason)
		}
	}

	b.WriteString("\nDeduplication\n")
	p.Fprintf(&b, "  %d in, %d excluded from totals, %d merged, %d out\n",
		build.Dedup.Input, build.Dedup.Excluded, build.Dedup.Merged, build.Dedup.Output)

	b.WriteString("\nResiduals\n")
	p.Fprintf(&b, "  %d records, $%.0f total\n", build.Residual.Count, build.Residual.TotalAmount)
	if len(build.Residual.Coverage) > 0 {
		p.Fprintf(&b, "  %-34s %-6s %14s %14s %14s %9s\n",
			"grantmaker", "year", "published", "itemized", "residual", "coverage")
		for _, row := range build.Residual.Coverage {
			marker := ""
			if row.Emitted {
				marker = " *"
			}
			p.Fprintf(&b, "  %-34s %-6d %14.0f %14.0f %14.0f %8.1f%%%s\n",
				row.Grantmaker, row.Year, row.Published, row.Itemized, row.Residual,
				row.CoveragePct, marker)
		}
	}

	b.WriteString("\nTotals\n")
	p.Fprintf(&b, "  %d grants, $%.0f\n", build.TotalGrants, build.TotalAmount)

	return b.String()
}
