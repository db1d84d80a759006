package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsync/internal/model"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "calendar.ics"))
}

func TestEventsMissingFile(t *testing.T) {
	t.Parallel()

	entries, err := tempStore(t).Events(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateAndQueryTimedEvent(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	ctx := context.Background()

	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	rec := model.Record{
		Title:       "Sync",
		Start:       start,
		End:         start.Add(time.Hour),
		Description: "agenda",
		Location:    "HQ",
	}
	require.NoError(t, store.Create(ctx, rec))

	entries, err := store.Events(ctx,
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 2, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "Sync", got.Title)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.End.Equal(start.Add(time.Hour)))
	assert.False(t, got.AllDay)
}

func TestCreateAndQueryAllDayEvent(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	ctx := context.Background()

	rec := model.Record{
		Title:  "Offsite",
		Start:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}
	require.NoError(t, store.Create(ctx, rec))

	entries, err := store.Events(ctx,
		time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "Offsite", got.Title)
	assert.True(t, got.AllDay)
	assert.Equal(t, "2024-03-10", got.Start.Format("2006-01-02"))
}

func TestEventsFiltersByWindow(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	ctx := context.Background()

	mk := func(title string, day int) model.Record {
		start := time.Date(2024, 5, day, 9, 0, 0, 0, time.UTC)
		return model.Record{Title: title, Start: start, End: start.Add(time.Hour)}
	}
	require.NoError(t, store.Create(ctx, mk("in", 10)))
	require.NoError(t, store.Create(ctx, mk("before", 1)))
	require.NoError(t, store.Create(ctx, mk("after", 20)))

	entries, err := store.Events(ctx,
		time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 11, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "in", entries[0].Title)
}

func TestCreateAppendsToExistingCalendar(t *testing.T) {
	t.Parallel()

	store := tempStore(t)
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, model.Record{Title: "first", Start: start, End: start.Add(time.Hour)}))
	require.NoError(t, store.Create(ctx, model.Record{Title: "second", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)}))

	entries, err := store.Events(ctx, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "BEGIN:VEVENT"))
}
