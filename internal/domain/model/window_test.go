package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryWindow_Bounds(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	w := NewQueryWindow(now, 1, GranularityDay)

	assert.Equal(t, time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC), w.Start)
	assert.Equal(t, now, w.End)
	assert.Equal(t, GranularityDay, w.Granularity)
}

func TestNewQueryWindow_NegativeDaysClampedToZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	w := NewQueryWindow(now, -4, "")

	assert.Equal(t, now, w.Start)
	assert.Equal(t, GranularityDay, w.Granularity)
}

func TestQueryWindow_DayGranularityIncludesWholeStartDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	w := NewQueryWindow(now, 1, GranularityDay)

	// Earlier in the day than Start, but on the same calendar date.
	assert.True(t, w.Contains(time.Date(2026, 3, 9, 0, 5, 0, 0, time.UTC)))
	// Later today than now, same calendar date.
	assert.True(t, w.Contains(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))
}

func TestQueryWindow_InstantGranularityIsExact(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	w := NewQueryWindow(now, 1, GranularityInstant)

	assert.False(t, w.Contains(time.Date(2026, 3, 9, 9, 29, 59, 0, time.UTC)))
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(now))
	assert.False(t, w.Contains(now.Add(time.Second)))
}

func TestQueryWindow_ContainsNormalizesTimezones(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	w := NewQueryWindow(now, 0, GranularityDay)

	// 2026-03-10 01:00 in UTC+3 is 2026-03-09 22:00 UTC.
	tz := time.FixedZone("UTC+3", 3*60*60)
	assert.False(t, w.Contains(time.Date(2026, 3, 10, 1, 0, 0, 0, tz)))
}

func TestQueryWindow_Earliest(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	day := NewQueryWindow(now, 2, GranularityDay)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), day.Earliest())

	instant := NewQueryWindow(now, 2, GranularityInstant)
	assert.Equal(t, instant.Start, instant.Earliest())
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, GranularityDay, g)

	g, err = ParseGranularity(" Instant ")
	require.NoError(t, err)
	assert.Equal(t, GranularityInstant, g)

	_, err = ParseGranularity("hour")
	require.Error(t, err)
}
