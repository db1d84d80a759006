package model

import (
	"strings"
	"time"
)

// Record is a single calendar event extracted from an ICS export or
// reconstructed from the failure ledger. Records are built once and not
// mutated afterwards; the only exception is Row, which the retry path
// stamps with the ledger position the record came from.
type Record struct {
	Title string

	// Start is required; a record without it never leaves the parser.
	Start time.Time

	// End is optional. A zero End means the source gave none and the
	// default duration (24h all-day, 1h timed) applies at creation time.
	End time.Time

	// AllDay is true when Start was encoded as a bare date.
	AllDay bool

	Description string
	Location    string

	// Row is the 1-based ledger row this record was reconstructed from.
	// Zero for freshly parsed records. Positional bookkeeping only,
	// recomputed on every run.
	Row int
}

// HasEnd reports whether the source provided an explicit end.
func (r Record) HasEnd() bool {
	return !r.End.IsZero()
}

// Key returns the reconciliation key for this record.
func (r Record) Key() string {
	return Key(r.Title, r.Start)
}

// Key builds the reconciliation key "<YYYY-MM-DD>|<lowercased-trimmed-title>".
// The calendar day is formatted from the time value as stored, without
// location conversion: two records on the same title and day are the same
// real-world event regardless of time-of-day.
func Key(title string, day time.Time) string {
	return day.Format("2006-01-02") + "|" + strings.ToLower(strings.TrimSpace(title))
}
