package ics

import (
	"io"
	"strings"
	"time"

	"icsync/internal/model"
)

// Recognized lines, matched case-sensitively after unfolding.
const (
	lineBegin = "BEGIN:VEVENT"
	lineEnd   = "END:VEVENT"

	prefixSummary   = "SUMMARY:"
	prefixStartDate = "DTSTART;VALUE=DATE:"
	prefixStart     = "DTSTART:"
	prefixEndDate   = "DTEND;VALUE=DATE:"
	prefixEnd       = "DTEND:"
	prefixDesc      = "DESCRIPTION:"
	prefixLocation  = "LOCATION:"
)

// Stats reports what happened during a parse. The export is produced by
// external tools, so malformed blocks are tolerated rather than surfaced
// as errors; the counters here are the only trace they leave.
type Stats struct {
	// Kept is the number of records emitted.
	Kept int
	// DroppedIncomplete counts blocks that ended without both a title
	// and a start.
	DroppedIncomplete int
	// NestedRestarts counts BEGIN:VEVENT lines seen while already inside
	// a block; each one discards the unfinished record and starts fresh.
	NestedRestarts int
	// DecodeFailures counts date/date-time property values that failed
	// to decode. The property is ignored; the record may still be
	// dropped later for lacking a start.
	DecodeFailures int
}

// builder accumulates the properties of one VEVENT block. It is finalized
// into a model.Record only when the required fields are present.
type builder struct {
	title    string
	start    time.Time
	hasStart bool
	end      time.Time
	hasEnd   bool
	allDay   bool
	desc     string
	location string
}

func (b *builder) record() (model.Record, bool) {
	if b.title == "" || !b.hasStart {
		return model.Record{}, false
	}
	rec := model.Record{
		Title:       b.title,
		Start:       b.start,
		AllDay:      b.allDay,
		Description: b.desc,
		Location:    b.location,
	}
	if b.hasEnd {
		rec.End = b.end
	}
	return rec, true
}

// Parse extracts event records from an ICS payload. Lines are unfolded
// first; the parser then walks BEGIN:VEVENT/END:VEVENT blocks and reads
// the recognized properties. Blocks missing a summary or a start produce
// no record. Record order follows source order.
func Parse(r io.Reader) ([]model.Record, Stats) {
	var (
		records []model.Record
		stats   Stats
		cur     *builder
	)

	u := NewUnfolder(r)
	for u.Scan() {
		line := u.Text()

		switch {
		case line == lineBegin:
			if cur != nil {
				stats.NestedRestarts++
			}
			cur = &builder{}

		case line == lineEnd:
			if cur == nil {
				continue
			}
			if rec, ok := cur.record(); ok {
				records = append(records, rec)
				stats.Kept++
			} else {
				stats.DroppedIncomplete++
			}
			cur = nil

		case cur == nil:
			// Outside any block; ignore.

		case strings.HasPrefix(line, prefixSummary):
			cur.title = strings.TrimSpace(line[len(prefixSummary):])

		case strings.HasPrefix(line, prefixStartDate):
			t, err := DecodeDate(line[len(prefixStartDate):])
			if err != nil {
				stats.DecodeFailures++
				continue
			}
			cur.start, cur.hasStart = t, true
			cur.allDay = true

		case strings.HasPrefix(line, prefixStart):
			t, err := DecodeDateTime(line[len(prefixStart):])
			if err != nil {
				stats.DecodeFailures++
				continue
			}
			cur.start, cur.hasStart = t, true
			cur.allDay = false

		case strings.HasPrefix(line, prefixEndDate):
			t, err := DecodeDate(line[len(prefixEndDate):])
			if err != nil {
				stats.DecodeFailures++
				continue
			}
			cur.end, cur.hasEnd = t, true
			cur.allDay = true

		case strings.HasPrefix(line, prefixEnd):
			t, err := DecodeDateTime(line[len(prefixEnd):])
			if err != nil {
				stats.DecodeFailures++
				continue
			}
			cur.end, cur.hasEnd = t, true
			cur.allDay = false

		case strings.HasPrefix(line, prefixDesc):
			// Value kept verbatim; backslash escapes are not undone.
			cur.desc = line[len(prefixDesc):]

		case strings.HasPrefix(line, prefixLocation):
			cur.location = line[len(prefixLocation):]
		}
	}

	return records, stats
}
