package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classHours() *TimeSpec {
	return &TimeSpec{
		Days:  []string{"MON", "TUE", "WED", "THU", "FRI"},
		Start: "07:00",
		End:   "13:00",
		TZ:    "America/Guayaquil",
	}
}

func TestTimeSpec_IsZero(t *testing.T) {
	var nilSpec *TimeSpec
	assert.True(t, nilSpec.IsZero())
	assert.True(t, (&TimeSpec{}).IsZero())
	assert.False(t, classHours().IsZero())
	assert.False(t, (&TimeSpec{TZ: "UTC"}).IsZero())
}

func TestTimeSpec_EmptyAlwaysMatches(t *testing.T) {
	ok, err := (&TimeSpec{}).Matches(time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTimeSpec_MatchesInsideWindow(t *testing.T) {
	// 2024-04-15 is a Monday; 10:00 in Guayaquil (UTC-5) is 15:00 UTC.
	at := time.Date(2024, 4, 15, 15, 0, 0, 0, time.UTC)
	ok, err := classHours().Matches(at)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTimeSpec_WeekdayOutsideDays(t *testing.T) {
	// 2024-04-14 is a Sunday in Guayaquil.
	at := time.Date(2024, 4, 14, 15, 0, 0, 0, time.UTC)
	ok, err := classHours().Matches(at)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimeSpec_Boundaries(t *testing.T) {
	spec := classHours()

	// Start edge is inclusive: 07:00 Guayaquil == 12:00 UTC on a Monday.
	ok, err := spec.Matches(time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	// End edge is exclusive: 13:00 Guayaquil == 18:00 UTC.
	ok, err = spec.Matches(time.Date(2024, 4, 15, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	// One minute before the end still matches.
	ok, err = spec.Matches(time.Date(2024, 4, 15, 17, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTimeSpec_TimezoneChangesWeekday(t *testing.T) {
	// 2024-04-16 01:00 UTC is still Monday 20:00 in Guayaquil.
	spec := &TimeSpec{
		Days:  []string{"MON"},
		Start: "19:00",
		End:   "22:00",
		TZ:    "America/Guayaquil",
	}
	ok, err := spec.Matches(time.Date(2024, 4, 16, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	// The same instant evaluated in UTC is Tuesday, outside the window.
	spec.TZ = "UTC"
	ok, err = spec.Matches(time.Date(2024, 4, 16, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimeSpec_UnknownTimezone(t *testing.T) {
	spec := classHours()
	spec.TZ = "Mars/Olympus"
	_, err := spec.Matches(time.Now())
	assert.Error(t, err)
}

func TestValidClock(t *testing.T) {
	valid := []string{"00:00", "07:30", "23:59"}
	for _, s := range valid {
		assert.True(t, validClock(s), s)
	}

	invalid := []string{"24:00", "12:60", "7:00", "0700", "ab:cd", "12-30", ""}
	for _, s := range invalid {
		assert.False(t, validClock(s), s)
	}
}
