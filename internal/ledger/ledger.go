// Package ledger persists event records whose calendar creation failed,
// so a later run can retry them. The backing store is a CSV file with a
// fixed header; the contract is read-all, clear, append-on-failure.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"icsync/internal/model"
)

// timeLayout is the format used for start/end columns. Values are written
// and read back as local wall-clock time.
const timeLayout = "2006-01-02T15:04:05"

var header = []string{
	"Title", "Start Date", "End Date", "Is All Day",
	"Description", "Location", "Error Message",
}

// Row is one ledger entry as stored, all columns still text.
type Row struct {
	Title       string
	Start       string
	End         string
	AllDay      string
	Description string
	Location    string
	Message     string
}

// Record reconstructs the event record held by this row. It fails when
// the title is empty or the start column does not parse; the caller is
// expected to skip such rows rather than abort.
func (r Row) Record() (model.Record, error) {
	if r.Title == "" {
		return model.Record{}, errors.New("ledger row: empty title")
	}

	start, err := time.ParseInLocation(timeLayout, r.Start, time.Local)
	if err != nil {
		return model.Record{}, fmt.Errorf("ledger row: bad start %q: %w", r.Start, err)
	}

	rec := model.Record{
		Title:       r.Title,
		Start:       start,
		AllDay:      r.AllDay == "TRUE",
		Description: r.Description,
		Location:    r.Location,
	}

	if r.End != "" {
		end, err := time.ParseInLocation(timeLayout, r.End, time.Local)
		if err != nil {
			return model.Record{}, fmt.Errorf("ledger row: bad end %q: %w", r.End, err)
		}
		rec.End = end
	}

	return rec, nil
}

// Ledger reads and writes the failure CSV at a fixed path.
type Ledger struct {
	path string
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Read returns all data rows, header excluded. A missing file reads as
// empty. Rows with an unexpected column count are returned as-is with
// missing columns blank; deciding whether they reconstruct is Row.Record's
// job.
func (l *Ledger) Read() ([]Row, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(all)-1)
	for _, cols := range all[1:] {
		rows = append(rows, rowFromColumns(cols))
	}
	return rows, nil
}

// Append adds one failed record with its error message, creating the file
// (with header) on first use.
func (l *Ledger) Append(rec model.Record, msg string) error {
	if err := l.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columnsFromRecord(rec, msg)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Clear rewrites the ledger to hold only the header. The write is atomic
// (temp file + rename) so a concurrent reader never sees a torn file.
func (l *Ledger) Clear() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsync-ledger-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, l.path)
}

func (l *Ledger) ensureFile() error {
	_, err := os.Stat(l.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return l.Clear()
}

func rowFromColumns(cols []string) Row {
	get := func(i int) string {
		if i < len(cols) {
			return cols[i]
		}
		return ""
	}
	return Row{
		Title:       get(0),
		Start:       get(1),
		End:         get(2),
		AllDay:      get(3),
		Description: get(4),
		Location:    get(5),
		Message:     get(6),
	}
}

func columnsFromRecord(rec model.Record, msg string) []string {
	end := ""
	if rec.HasEnd() {
		end = rec.End.Format(timeLayout)
	}
	allDay := "FALSE"
	if rec.AllDay {
		allDay = "TRUE"
	}
	return []string{
		rec.Title,
		rec.Start.Format(timeLayout),
		end,
		allDay,
		rec.Description,
		rec.Location,
		msg,
	}
}
