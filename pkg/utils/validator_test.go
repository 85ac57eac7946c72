package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 utc", "2025-01-01T08:00:00Z", time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2025-01-01T08:00:00+03:00", time.Date(2025, 1, 1, 5, 0, 0, 0, time.UTC)},
		{"naive seconds", "2025-01-01T08:00:00", time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"naive minutes", "2025-01-01T12:30", time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)},
		{"naive fraction", "2025-01-01T08:00:00.250", time.Date(2025, 1, 1, 8, 0, 0, 250000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestCalendarDate_KeepsWrittenZone(t *testing.T) {
	ts, err := ParseTimestamp("2025-01-01T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", CalendarDate(ts))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, 28, d.Day())

	_, err = ParseDate("28/02/2025")
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("reports@mealvoucher.local.test"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Ava Brooks", SanitizeString("  Ava\x00 Brooks\t"))
}
