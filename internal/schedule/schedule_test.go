package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	entries, err := Parse("time=03:30,band_contains=6529;time=15:00,band_contains=10027", now)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC), entries[0].At)
	assert.Equal(t, 10027, entries[0].FreqKHz)

	assert.Equal(t, time.Date(2024, 5, 2, 3, 30, 0, 0, time.UTC), entries[1].At)
	assert.Equal(t, 6529, entries[1].FreqKHz)
}

func TestParseScheduleRejectsBadSegment(t *testing.T) {
	_, err := Parse("time=25:00,band_contains=6529", time.Now())
	assert.Error(t, err)
}

func TestParseScheduleDedupesByInstant(t *testing.T) {
	var now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries, err := Parse("time=03:30,band_contains=6529;time=03:30,band_contains=8921", now)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
