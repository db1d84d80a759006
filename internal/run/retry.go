package run

import (
	appLog "icsync/internal/log"
	"icsync/internal/model"
)

// readRetries reconstructs records from the failure ledger. Rows that do
// not reconstruct are logged and skipped; one corrupt row never blocks
// the rest of the batch. Each record carries its 1-based ledger row for
// traceability.
func (r *Runner) readRetries() []model.Record {
	if r.Ledger == nil {
		return nil
	}

	rows, err := r.Ledger.Read()
	if err != nil {
		appLog.Error("ledger read failed, skipping retries", err)
		return nil
	}

	out := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			appLog.Error("ledger row skipped", err, "row", i+1)
			continue
		}
		rec.Row = i + 1
		out = append(out, rec)
	}
	return out
}
