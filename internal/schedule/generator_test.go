package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	s, err := ParseClock(start)
	require.NoError(t, err)
	e, err := ParseClock(end)
	require.NoError(t, err)
	return Window{Start: s, End: e}
}

func starts(seq []Interval) []string {
	out := make([]string, 0, len(seq))
	for _, s := range seq {
		out = append(out, s.Start.Format("15:04")+"-"+s.End.Format("15:04"))
	}
	return out
}

func TestGenerateSlots_Partition(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, time.Time{}))

	assert.Equal(t, []string{"08:00-08:30", "08:30-09:00", "09:00-09:30", "09:30-10:00"}, starts(got))
}

func TestGenerateSlots_DropsRemainder(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "09:10")}

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, time.Time{}))

	assert.Equal(t, []string{"08:00-08:30", "08:30-09:00"}, starts(got))
}

func TestGenerateSlots_MergesOverlappingWindows(t *testing.T) {
	windows := []Window{
		mustWindow(t, "13:00", "14:00"),
		mustWindow(t, "08:00", "09:00"),
		mustWindow(t, "08:30", "09:30"),
		mustWindow(t, "09:30", "10:00"), // adjacent
		mustWindow(t, "08:00", "09:00"), // duplicate
	}

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, time.Time{}))

	assert.Equal(t, []string{
		"08:00-08:30", "08:30-09:00", "09:00-09:30", "09:30-10:00",
		"13:00-13:30", "13:30-14:00",
	}, starts(got))
}

func TestGenerateSlots_SkipsPastSlotsToday(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}
	now := monday.Add(8*time.Hour + 45*time.Minute)

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, now))

	assert.Equal(t, []string{"09:00-09:30", "09:30-10:00"}, starts(got))
}

func TestGenerateSlots_PastDateIsEmpty(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, monday.AddDate(0, 0, 1)))

	assert.Empty(t, got)
}

func TestGenerateSlots_NoWindows(t *testing.T) {
	assert.Empty(t, slices.Collect(GenerateSlots(nil, monday, 30*time.Minute, time.Time{})))
}

func TestGenerateSlots_RunsUntilMidnight(t *testing.T) {
	windows := []Window{mustWindow(t, "23:00", "24:00")}

	got := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, time.Time{}))

	require.Len(t, got, 2)
	assert.Equal(t, monday.AddDate(0, 0, 1), got[1].End)
}

func TestGenerateSlots_Restartable(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "12:00"), mustWindow(t, "14:00", "16:30")}
	seq := GenerateSlots(windows, monday, 30*time.Minute, time.Time{})

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	again := slices.Collect(GenerateSlots(windows, monday, 30*time.Minute, time.Time{}))

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
	assert.Len(t, first, 13)
}

func TestGenerateSlots_EarlyStop(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "12:00")}

	var seen int
	for range GenerateSlots(windows, monday, 30*time.Minute, time.Time{}) {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestMergeWindows_IgnoresInvalid(t *testing.T) {
	in := []Window{{Start: 600, End: 600}, {Start: 700, End: 650}, {Start: 480, End: 540}}

	got := MergeWindows(in)

	assert.Equal(t, []Window{{Start: 480, End: 540}}, got)
	assert.Len(t, in, 3)
}
