// Package reconcile decides which event records are missing from the
// target calendar. Comparison is deliberately coarse: the reconciliation
// key is (calendar day, lowercased title), so two entries on the same day
// with the same title count as one event no matter their time-of-day.
package reconcile

import (
	"time"

	"icsync/internal/model"
)

// KeySet is the set of reconciliation keys already present in the
// calendar for the queried window. Rebuilt from a store query every run.
type KeySet map[string]struct{}

// Add inserts the key for an existing calendar entry.
func (s KeySet) Add(title string, start time.Time) {
	s[model.Key(title, start)] = struct{}{}
}

// Has reports whether the key is present.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Window computes the calendar query range covering the given records:
// start of the day before the earliest start through end of the day after
// the latest start. ok is false when records is empty, in which case no
// query should be made and every record is treated as missing.
func Window(records []model.Record) (from, to time.Time, ok bool) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false
	}

	min := records[0].Start
	max := records[0].Start
	for _, rec := range records[1:] {
		if rec.Start.Before(min) {
			min = rec.Start
		}
		if rec.Start.After(max) {
			max = rec.Start
		}
	}

	from = startOfDay(min.AddDate(0, 0, -1))
	to = endOfDay(max.AddDate(0, 0, 1))
	return from, to, true
}

// Filter returns the records whose key is absent from existing. The
// result keeps input order; nothing is resorted.
func Filter(records []model.Record, existing KeySet) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if existing.Has(rec.Key()) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
