// Package calendar abstracts the target calendar the sync writes into.
package calendar

import (
	"context"
	"time"

	"icsync/internal/model"
)

// Entry is an event already present in the calendar, reduced to the
// fields reconciliation needs.
type Entry struct {
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

// Store is the narrow calendar interface the sync depends on: query a
// date range and create new events. Implementations may fail transiently;
// the caller logs failures to the ledger and retries on a later run.
type Store interface {
	// Events returns the entries whose start falls within [from, to].
	Events(ctx context.Context, from, to time.Time) ([]Entry, error)
	// Create adds a new event for the given record.
	Create(ctx context.Context, rec model.Record) error
}
