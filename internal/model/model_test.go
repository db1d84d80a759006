package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		day   time.Time
		want  string
	}{
		{
			name:  "lowercased and trimmed",
			title: "  Standup  ",
			day:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local),
			want:  "2024-01-05|standup",
		},
		{
			name:  "time of day ignored",
			title: "Standup",
			day:   time.Date(2024, 1, 5, 23, 59, 0, 0, time.Local),
			want:  "2024-01-05|standup",
		},
		{
			name:  "day formatted from the stored representation",
			title: "Sync",
			day:   time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC),
			want:  "2024-03-01|sync",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Key(tt.title, tt.day))
		})
	}
}

func TestRecordHasEnd(t *testing.T) {
	t.Parallel()

	var rec Record
	assert.False(t, rec.HasEnd())

	rec.End = time.Date(2024, 1, 5, 10, 0, 0, 0, time.Local)
	assert.True(t, rec.HasEnd())
}
