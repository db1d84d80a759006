package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsync/internal/model"
)

func rec(title string, start time.Time) model.Record {
	return model.Record{Title: title, Start: start}
}

func TestRecordsKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local)
	in := []model.Record{
		rec("Standup", day),
		rec("Review", day),
		rec("Standup", day),
		rec("Review", day.AddDate(0, 0, 1)),
	}

	out := Records(in)
	require.Len(t, out, 3)
	assert.Equal(t, "Standup", out[0].Title)
	assert.Equal(t, "Review", out[1].Title)
	assert.Equal(t, "Review", out[2].Title)
	assert.Equal(t, day.AddDate(0, 0, 1), out[2].Start)
}

func TestRecordsCoarsensByDayAndTitle(t *testing.T) {
	t.Parallel()

	// Same title and calendar day but different times-of-day collapse
	// into one record; case and surrounding whitespace do not matter.
	in := []model.Record{
		rec("Standup", time.Date(2024, 1, 5, 9, 0, 0, 0, time.Local)),
		rec("  standup ", time.Date(2024, 1, 5, 16, 30, 0, 0, time.Local)),
		rec("STANDUP", time.Date(2024, 1, 5, 23, 0, 0, 0, time.Local)),
	}

	out := Records(in)
	require.Len(t, out, 1)
	assert.Equal(t, 9, out[0].Start.Hour(), "first occurrence wins")
}

func TestRecordsIdempotent(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local)
	in := []model.Record{
		rec("a", day),
		rec("b", day),
		rec("a", day),
		rec("c", day),
		rec("b", day),
	}

	once := Records(in)
	twice := Records(once)
	assert.Equal(t, once, twice)
}

func TestRecordsEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Records(nil))
	assert.Empty(t, Records([]model.Record{}))
}
