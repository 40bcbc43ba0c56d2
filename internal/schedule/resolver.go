package schedule

import (
	"iter"
	"time"
)

// Occupant is anything that may hold a slot, typically a booked appointment.
type Occupant interface {
	OccupiedFrom() time.Time
	// BlocksSlots reports whether the occupant still holds its interval.
	BlocksSlots() bool
}

// ResolveBookable drops every candidate that overlaps
// [o.OccupiedFrom(), o.OccupiedFrom()+slot) for a blocking occupant.
// Candidate order is preserved.
func ResolveBookable[T Occupant](candidates iter.Seq[Interval], existing []T, slot time.Duration) iter.Seq[Interval] {
	busy := make([]Interval, 0, len(existing))
	for _, o := range existing {
		if !o.BlocksSlots() {
			continue
		}
		start := o.OccupiedFrom()
		busy = append(busy, Interval{Start: start, End: start.Add(slot)})
	}

	return func(yield func(Interval) bool) {
		for c := range candidates {
			if overlapsAny(c, busy) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func overlapsAny(c Interval, busy []Interval) bool {
	for _, b := range busy {
		if c.Overlaps(b) {
			return true
		}
	}
	return false
}

// Find returns the slot of seq that starts exactly at start.
func Find(seq iter.Seq[Interval], start time.Time) (Interval, bool) {
	for s := range seq {
		if s.Start.Equal(start) {
			return s, true
		}
		if s.Start.After(start) {
			break
		}
	}
	return Interval{}, false
}
