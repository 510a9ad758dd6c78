package models

import (
	"fmt"
	"strings"
	"time"
)

// clearanceDateLayouts are the date formats seen in openFDA exports and spreadsheets.
var clearanceDateLayouts = []string{
	"2006-01-02",
	"20060102",
	"01/02/2006",
	time.RFC3339,
}

const hoursPerYear = 24 * 365.25

// ParseClearanceDate parses a clearance date in any of the supported layouts.
func ParseClearanceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing clearance date")
	}
	for _, layout := range clearanceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable clearance date %q", s)
}

// AgeYears returns the fractional number of years between cleared and now.
// Dates in the future yield 0.
func AgeYears(cleared, now time.Time) float64 {
	d := now.Sub(cleared)
	if d < 0 {
		return 0
	}
	return d.Hours() / hoursPerYear
}

// Age parses the candidate's clearance date and returns its age in years at now.
func (c *CandidateDevice) Age(now time.Time) (float64, error) {
	t, err := ParseClearanceDate(c.ClearanceDate)
	if err != nil {
		return 0, err
	}
	return AgeYears(t, now), nil
}
