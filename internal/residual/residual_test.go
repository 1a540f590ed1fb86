package residual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscope/grants-cli/internal/model"
	"github.com/grantscope/grants-cli/internal/refdata"
)

func itemizedGrant(grantmaker string, amount float64, date model.Date) model.Grant {
	return model.Grant{
		Grantmaker: grantmaker,
		Recipient:  "Some Org",
		Amount:     amount,
		Currency:   "USD",
		Date:       date,
		Category:   model.CategoryGlobalHealth,
	}
}

func totals(grantmaker string, year int, published float64) refdata.PublishedTotals {
	return refdata.PublishedTotals{grantmaker: {year: published}}
}

func TestCompute_EmitsResidualForMaterialGap(t *testing.T) {
	// Alpha published $10M for 2024; itemized grants sum to $7M.
	grants := []model.Grant{
		itemizedGrant("Alpha", 4_000_000, model.NewDate(2024, time.February, 10)),
		itemizedGrant("Alpha", 3_000_000, model.NewDate(2024, time.September, 5)),
	}
	hints := refdata.CategoryHints{"Alpha": model.CategoryLongTerm}

	res := Compute(grants, totals("Alpha", 2024, 10_000_000), hints, DefaultConfig())

	require.Len(t, res.Residuals, 1)
	r := res.Residuals[0]
	assert.Equal(t, 3_000_000.0, r.Amount)
	assert.True(t, r.IsResidual)
	assert.Empty(t, r.SourceID)
	assert.Equal(t, "residual-alpha-2024", r.ID)
	assert.Equal(t, model.CategoryLongTerm, r.Category)
	assert.Equal(t, "2024-07-01", r.Date.String())
	assert.Contains(t, r.ResidualNote, "$10000000")
	assert.Contains(t, r.ResidualNote, "$7000000")
	assert.Contains(t, r.ResidualNote, "30.0%")
}

func TestCompute_BelowRelativeThresholdNotEmitted(t *testing.T) {
	// Gap of $300K is 3% of a $10M total: exceeds the $100K absolute
	// gate but fails the 5% relative gate, so no residual.
	grants := []model.Grant{
		itemizedGrant("Alpha", 9_700_000, model.NewDate(2024, time.March, 1)),
	}

	res := Compute(grants, totals("Alpha", 2024, 10_000_000), nil, DefaultConfig())

	assert.Empty(t, res.Residuals)
	require.Len(t, res.Stats.Coverage, 1)
	assert.False(t, res.Stats.Coverage[0].Emitted)
	assert.InDelta(t, 97.0, res.Stats.Coverage[0].CoveragePct, 0.001)
}

func TestCompute_BelowAbsoluteThresholdNotEmitted(t *testing.T) {
	// Gap of $90K is 45% of a $200K total: passes the relative gate but
	// fails the $100K absolute gate.
	grants := []model.Grant{
		itemizedGrant("Small Grantmaker", 110_000, model.NewDate(2024, time.March, 1)),
	}

	res := Compute(grants, totals("Small Grantmaker", 2024, 200_000), nil, DefaultConfig())
	assert.Empty(t, res.Residuals)
}

func TestCompute_NegativeResidualIsNoOp(t *testing.T) {
	// Itemized exceeds published: not an error, just no record.
	grants := []model.Grant{
		itemizedGrant("Alpha", 12_000_000, model.NewDate(2024, time.March, 1)),
	}

	res := Compute(grants, totals("Alpha", 2024, 10_000_000), nil, DefaultConfig())
	assert.Empty(t, res.Residuals)
}

func TestCompute_NoItemizedDataYields100PercentResidual(t *testing.T) {
	res := Compute(nil, totals("Annual Only Fund", 2023, 5_000_000), nil, DefaultConfig())

	require.Len(t, res.Residuals, 1)
	assert.Equal(t, 5_000_000.0, res.Residuals[0].Amount)
	assert.Contains(t, res.Residuals[0].ResidualNote, "100.0%")
	assert.Equal(t, model.CategoryOther, res.Residuals[0].Category)
}

func TestCompute_SkipsResidualAndExcludedRecords(t *testing.T) {
	prior := itemizedGrant("Alpha", 2_000_000, model.NewDate(2024, time.July, 1))
	prior.IsResidual = true
	excluded := itemizedGrant("Alpha", 3_000_000, model.NewDate(2024, time.June, 1))
	excluded.ExcludeFromTotal = true
	real := itemizedGrant("Alpha", 7_000_000, model.NewDate(2024, time.March, 1))

	res := Compute([]model.Grant{prior, excluded, real}, totals("Alpha", 2024, 10_000_000), nil, DefaultConfig())

	// Only the real $7M counts: gap is $3M.
	require.Len(t, res.Residuals, 1)
	assert.Equal(t, 3_000_000.0, res.Residuals[0].Amount)
}

func TestCompute_Deterministic(t *testing.T) {
	grants := []model.Grant{
		itemizedGrant("Alpha", 4_000_000, model.NewDate(2024, time.February, 10)),
		itemizedGrant("Beta", 1_000_000, model.NewDate(2023, time.May, 2)),
	}
	pt := refdata.PublishedTotals{
		"Alpha": {2024: 10_000_000, 2023: 6_000_000},
		"Beta":  {2023: 2_000_000},
	}
	hints := refdata.CategoryHints{"Alpha": model.CategoryLongTerm}

	first := Compute(grants, pt, hints, DefaultConfig())
	second := Compute(grants, pt, hints, DefaultConfig())

	require.Equal(t, len(first.Residuals), len(second.Residuals))
	for i := range first.Residuals {
		assert.Equal(t, first.Residuals[i], second.Residuals[i])
	}
	assert.Equal(t, first.Stats, second.Stats)
}

func TestCompute_PerGrantmakerStats(t *testing.T) {
	pt := refdata.PublishedTotals{
		"Alpha": {2023: 6_000_000, 2024: 10_000_000},
	}
	grants := []model.Grant{
		itemizedGrant("Alpha", 4_000_000, model.NewDate(2024, time.February, 10)),
		itemizedGrant("Alpha", 5_000_000, model.NewDate(2023, time.June, 20)),
	}

	res := Compute(grants, pt, nil, DefaultConfig())

	require.Len(t, res.Residuals, 2)
	agg := res.Stats.ByGrantmaker["Alpha"]
	assert.Equal(t, 2, agg.Count)
	assert.Equal(t, 7_000_000.0, agg.Amount)
	assert.Equal(t, 7_000_000.0, res.Stats.TotalAmount)
}

func TestResidualID_Slugging(t *testing.T) {
	assert.Equal(t, "residual-open-philanthropy-2024", residualID("Open Philanthropy", 2024))
	assert.Equal(t, "residual-ea-funds-animal-welfare-2023", residualID("EA Funds: Animal Welfare", 2023))
}
