package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// dateLayout is the canonical wire format for grant dates.
const dateLayout = "2006-01-02"

// Date is a calendar date in UTC. It marshals to and from "YYYY-MM-DD"
// in both JSON and CSV, and compares at day granularity.
type Date struct {
	time.Time
}

// NewDate builds a Date at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the canonical YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, eris.Wrapf(err, "model: parse date %q", s)
	}
	return Date{t.UTC()}, nil
}

// String renders the canonical YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// DaysApart returns the absolute gap between two dates in days.
func (d Date) DaysApart(other Date) int {
	diff := d.Sub(other.Time)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "model: date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalCSV encodes the date for csvutil-based exports.
func (d Date) MarshalCSV() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalCSV decodes the date for csvutil-based imports.
func (d *Date) UnmarshalCSV(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
