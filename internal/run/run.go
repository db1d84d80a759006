// Package run wires the sync pipeline end to end: fetch the export,
// parse it, drop duplicates, reconcile against the calendar, replay
// ledger failures and create what is missing.
package run

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"icsync/internal/calendar"
	"icsync/internal/dedupe"
	"icsync/internal/ics"
	"icsync/internal/ledger"
	appLog "icsync/internal/log"
	"icsync/internal/metrics"
	"icsync/internal/model"
	"icsync/internal/reconcile"
	"icsync/internal/source"
)

// Default durations applied at creation time when the export gave no end.
const (
	defaultAllDaySpan = 24 * time.Hour
	defaultTimedSpan  = time.Hour
)

// Runner executes one sync pass over its collaborators.
type Runner struct {
	Source source.Source
	Store  calendar.Store
	Ledger *ledger.Ledger
	// Metrics may be nil (e.g. one-shot CLI runs).
	Metrics *metrics.Metrics

	// BatchSize creations happen between pauses of BatchPause. Zero
	// BatchSize disables pausing.
	BatchSize  int
	BatchPause time.Duration

	// DryRun runs the pipeline without creating events or touching the
	// ledger.
	DryRun bool
}

// Report summarizes one run.
type Report struct {
	Parsed         int
	Unique         int
	AlreadyPresent int
	Retried        int
	Created        int
	Failed         int
}

// Run performs a full sync pass. A returned error means the pass could
// not complete (fetch or calendar query failed); individual creation
// failures do not fail the run, they land in the ledger.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report
	r.count(func(m *metrics.Metrics) { m.Runs.Inc() })

	body, err := r.Source.Fetch(ctx)
	if err != nil {
		r.count(func(m *metrics.Metrics) { m.RunFailures.Inc() })
		return report, fmt.Errorf("fetch export: %w", err)
	}

	records, stats := ics.Parse(bytes.NewReader(body))
	report.Parsed = len(records)
	r.count(func(m *metrics.Metrics) { m.RecordsParsed.Add(float64(len(records))) })
	appLog.Info("export parsed",
		"records", stats.Kept,
		"dropped_incomplete", stats.DroppedIncomplete,
		"nested_restarts", stats.NestedRestarts,
		"decode_failures", stats.DecodeFailures,
	)

	unique := dedupe.Records(records)
	report.Unique = len(unique)
	r.count(func(m *metrics.Metrics) { m.Duplicates.Add(float64(len(records) - len(unique))) })

	existing := reconcile.KeySet{}
	if from, to, ok := reconcile.Window(unique); ok {
		entries, err := r.Store.Events(ctx, from, to)
		if err != nil {
			r.count(func(m *metrics.Metrics) { m.RunFailures.Inc() })
			return report, fmt.Errorf("query calendar: %w", err)
		}
		for _, e := range entries {
			existing.Add(e.Title, e.Start)
		}
		appLog.Debug("calendar window queried",
			"from", from.Format(time.RFC3339), "to", to.Format(time.RFC3339),
			"existing", len(entries))
	}

	eligible := reconcile.Filter(unique, existing)
	report.AlreadyPresent = len(unique) - len(eligible)
	r.count(func(m *metrics.Metrics) { m.AlreadyPresent.Add(float64(report.AlreadyPresent)) })

	// Ledger retries go after the fresh records and are never filtered
	// against the calendar or deduplicated against the fresh batch; a
	// record that failed last run is always attempted again.
	retries := r.readRetries()
	report.Retried = len(retries)
	r.count(func(m *metrics.Metrics) { m.RetriesReplayed.Add(float64(len(retries))) })

	batch := append(eligible, retries...)

	if r.DryRun {
		appLog.Info("dry run, skipping creation", "would_create", len(batch))
		return report, nil
	}

	// Clear before creating so only this run's failures repopulate it.
	if r.Ledger != nil {
		if err := r.Ledger.Clear(); err != nil {
			r.count(func(m *metrics.Metrics) { m.RunFailures.Inc() })
			return report, fmt.Errorf("clear ledger: %w", err)
		}
	}

	if err := r.createAll(ctx, batch, &report); err != nil {
		return report, err
	}

	appLog.Info("run complete",
		"parsed", report.Parsed,
		"unique", report.Unique,
		"already_present", report.AlreadyPresent,
		"retried", report.Retried,
		"created", report.Created,
		"failed", report.Failed,
	)
	return report, nil
}

func (r *Runner) createAll(ctx context.Context, batch []model.Record, report *Report) error {
	for i, rec := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.Store.Create(ctx, withDefaultEnd(rec)); err != nil {
			report.Failed++
			r.count(func(m *metrics.Metrics) { m.CreateFailures.Inc() })
			appLog.Error("event creation failed", err, "title", rec.Title, "key", rec.Key())
			if r.Ledger != nil {
				if lerr := r.Ledger.Append(rec, err.Error()); lerr != nil {
					appLog.Error("ledger append failed", lerr, "title", rec.Title)
				}
			}
			continue
		}

		report.Created++
		r.count(func(m *metrics.Metrics) { m.Created.Inc() })

		if r.BatchSize > 0 && r.BatchPause > 0 && (i+1)%r.BatchSize == 0 && i+1 < len(batch) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.BatchPause):
			}
		}
	}
	return nil
}

// withDefaultEnd fills in the creation-time default duration for records
// the export gave no end: a full day for all-day events, an hour for
// timed ones.
func withDefaultEnd(rec model.Record) model.Record {
	if rec.HasEnd() {
		return rec
	}
	if rec.AllDay {
		rec.End = rec.Start.Add(defaultAllDaySpan)
	} else {
		rec.End = rec.Start.Add(defaultTimedSpan)
	}
	return rec
}

func (r *Runner) count(f func(*metrics.Metrics)) {
	if r.Metrics != nil {
		f(r.Metrics)
	}
}
