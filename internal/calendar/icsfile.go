package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"icsync/internal/model"
)

// FileStore keeps the target calendar in a single ICS file on disk. It is
// the default Store implementation; querying parses the file, creation
// appends a VEVENT and rewrites the file atomically.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Events parses the calendar file and returns the entries starting inside
// [from, to]. A missing file is an empty calendar, not an error.
func (s *FileStore) Events(_ context.Context, from, to time.Time) ([]Entry, error) {
	cal, err := s.load()
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, nil
	}

	var entries []Entry
	for _, ve := range cal.Events() {
		entry, ok := entryFromEvent(ve)
		if !ok {
			continue
		}
		if entry.Start.Before(from) || entry.Start.After(to) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Create appends a VEVENT for rec and rewrites the file. The record's end
// is written as given; the caller is responsible for filling in a default
// duration beforehand.
func (s *FileStore) Create(_ context.Context, rec model.Record) error {
	cal, err := s.load()
	if err != nil {
		return err
	}
	if cal == nil {
		cal = ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId("-//icsync//EN")
	}

	now := time.Now()
	ev := cal.AddEvent(fmt.Sprintf("%d@icsync", now.UnixNano()))
	ev.SetDtStampTime(now)
	ev.SetSummary(rec.Title)

	if rec.AllDay {
		ev.SetAllDayStartAt(rec.Start)
		if rec.HasEnd() {
			ev.SetAllDayEndAt(rec.End)
		}
	} else {
		ev.SetStartAt(rec.Start)
		if rec.HasEnd() {
			ev.SetEndAt(rec.End)
		}
	}

	if rec.Description != "" {
		ev.SetDescription(rec.Description)
	}
	if rec.Location != "" {
		ev.SetLocation(rec.Location)
	}

	return s.save(cal)
}

// load parses the calendar file. Returns (nil, nil) when the file does
// not exist yet.
func (s *FileStore) load() (*ical.Calendar, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", s.path, err)
	}
	return cal, nil
}

// save writes the serialized calendar atomically: temp file in the same
// directory, then rename over the target.
func (s *FileStore) save(cal *ical.Calendar) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsync-cal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(cal.Serialize()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// entryFromEvent reduces a parsed VEVENT to an Entry. Events without a
// usable start are skipped.
func entryFromEvent(ve *ical.VEvent) (Entry, bool) {
	var entry Entry

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		entry.Title = p.Value
	}

	// All-day when DTSTART carries VALUE=DATE or the value has no time part.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			entry.AllDay = true
		}
		if !strings.Contains(p.Value, "T") {
			entry.AllDay = true
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return Entry{}, false
		}
	}
	entry.Start = start

	if end, err := ve.GetEndAt(); err == nil {
		entry.End = end
	} else if end, err := ve.GetAllDayEndAt(); err == nil {
		entry.End = end
	}

	return entry, true
}
