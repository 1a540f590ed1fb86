package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/grantscope/grants-cli/internal/model"
)

var (
	yearMonthRe = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	quarterRe   = regexp.MustCompile(`^(?:Q([1-4])\s+(\d{4})|(\d{4})[\s-]Q([1-4]))$`)
	yearOnlyRe  = regexp.MustCompile(`^\d{4}$`)
)

// exact layouts tried in order for full dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseDate coerces the date granularities that appear in source feeds to
// a single representative day:
//
//	exact day     → as given
//	year-month    → 15th of the month
//	quarter       → middle of the quarter (Feb/May/Aug/Nov 15)
//	bare year     → July 1 (year midpoint)
func ParseDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, eris.New("invalid date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Date{Time: t.UTC()}, nil
		}
	}

	// Month-year text like "November 2024" is mid-month granularity.
	if t, err := time.Parse("January 2006", s); err == nil {
		return model.NewDate(t.Year(), t.Month(), 15), nil
	}

	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return model.NewDate(year, time.Month(month), 15), nil
		}
	}

	if m := quarterRe.FindStringSubmatch(s); m != nil {
		q, y := m[1], m[2]
		if q == "" {
			y, q = m[3], m[4]
		}
		year, _ := strconv.Atoi(y)
		quarter, _ := strconv.Atoi(q)
		// Mid-quarter: Feb 15, May 15, Aug 15, Nov 15.
		return model.NewDate(year, time.Month(quarter*3-1), 15), nil
	}

	if yearOnlyRe.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return model.NewDate(year, time.July, 1), nil
	}

	return model.Date{}, eris.Errorf("invalid date %q", s)
}

var amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "", "USD", "", "usd", "")

// ParseAmount parses a dollar amount that may carry currency symbols and
// thousands separators. Amounts must be positive.
func ParseAmount(s string) (float64, error) {
	cleaned := amountCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, eris.New("invalid amount")
	}

	// Suffix multipliers appear in hand-edited HTML tables ($1.5M).
	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "M"), strings.HasSuffix(cleaned, "m"):
		multiplier = 1e6
		cleaned = cleaned[:len(cleaned)-1]
	case strings.HasSuffix(cleaned, "K"), strings.HasSuffix(cleaned, "k"):
		multiplier = 1e3
		cleaned = cleaned[:len(cleaned)-1]
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, eris.Errorf("invalid amount %q", s)
	}
	v *= multiplier
	if v <= 0 {
		return 0, eris.Errorf("invalid amount %v", v)
	}
	return v, nil
}
