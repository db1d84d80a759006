// Package dedupe collapses event records that describe the same
// real-world event.
package dedupe

import "icsync/internal/model"

// Records returns the input with every record after the first occurrence
// of its reconciliation key removed. Relative order of the survivors is
// preserved, so the function is idempotent: applying it to its own output
// changes nothing.
func Records(in []model.Record) []model.Record {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Record, 0, len(in))

	for _, rec := range in {
		k := rec.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}

	return out
}
