// Package schedule holds the pure slot arithmetic of the booking engine:
// turning weekly availability into slots for a date and removing the slots
// that existing appointments occupy. Nothing here touches storage.
package schedule

import (
	"iter"
	"slices"
	"time"
)

// Window is a recurring availability range on one weekday, [Start, End).
type Window struct {
	Start Clock
	End   Clock
}

// MergeWindows returns the union of windows as disjoint ranges sorted by
// start. Overlapping and adjacent windows collapse into one; empty or
// inverted windows are ignored. The input is not modified.
func MergeWindows(windows []Window) []Window {
	sorted := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Start < w.End && w.Start.Valid() && w.End.Valid() {
			sorted = append(sorted, w)
		}
	}
	slices.SortFunc(sorted, func(a, b Window) int {
		if a.Start != b.Start {
			return int(a.Start - b.Start)
		}
		return int(a.End - b.End)
	})

	var merged []Window
	for _, w := range sorted {
		n := len(merged)
		if n > 0 && w.Start <= merged[n-1].End {
			if w.End > merged[n-1].End {
				merged[n-1].End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// GenerateSlots yields the candidate slots of length slot for the calendar day
// of date (in date's location) in ascending order. Each merged window is cut
// into consecutive slots starting at its own start; a trailing remainder
// shorter than slot is dropped. Slots starting before now are skipped, so a
// date in the past yields nothing and today only yields the rest of the day.
//
// The returned sequence can be ranged over any number of times.
func GenerateSlots(windows []Window, date time.Time, slot time.Duration, now time.Time) iter.Seq[Interval] {
	merged := MergeWindows(windows)

	return func(yield func(Interval) bool) {
		if slot <= 0 {
			return
		}
		for _, w := range merged {
			start := w.Start.On(date)
			end := w.End.On(date)
			for cur := start; !cur.Add(slot).After(end); cur = cur.Add(slot) {
				if cur.Before(now) {
					continue
				}
				if !yield(Interval{Start: cur, End: cur.Add(slot)}) {
					return
				}
			}
		}
	}
}
