package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
)

type booking struct {
	at     time.Time
	active bool
}

func (b booking) OccupiedFrom() time.Time { return b.at }
func (b booking) BlocksSlots() bool       { return b.active }

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 19, hour, minute, 0, 0, time.UTC)
}

func TestResolveBookable_RemovesOccupied(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}
	candidates := GenerateSlots(windows, monday, 30*time.Minute, time.Time{})
	existing := []booking{
		{at: at(8, 30), active: true},
		{at: at(9, 0), active: false},
	}

	got := slices.Collect(ResolveBookable(candidates, existing, 30*time.Minute))

	assert.Equal(t, []string{"08:00-08:30", "09:00-09:30", "09:30-10:00"}, starts(got))
}

func TestResolveBookable_MisalignedAppointmentBlocksBothNeighbours(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}
	candidates := GenerateSlots(windows, monday, 30*time.Minute, time.Time{})
	existing := []booking{{at: at(8, 45), active: true}}

	got := slices.Collect(ResolveBookable(candidates, existing, 30*time.Minute))

	assert.Equal(t, []string{"08:00-08:30", "09:30-10:00"}, starts(got))
}

func TestResolveBookable_TouchingIntervalsDoNotConflict(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "09:00")}
	candidates := GenerateSlots(windows, monday, 30*time.Minute, time.Time{})
	existing := []booking{{at: at(7, 30), active: true}, {at: at(9, 0), active: true}}

	got := slices.Collect(ResolveBookable(candidates, existing, 30*time.Minute))

	assert.Len(t, got, 2)
}

func TestResolveBookable_Monotonic(t *testing.T) {
	faker := gofakeit.New(42)
	windows := []Window{mustWindow(t, "07:00", "19:00")}
	candidates := GenerateSlots(windows, monday, 20*time.Minute, time.Time{})

	var existing []booking
	previous := slices.Collect(ResolveBookable(candidates, existing, 20*time.Minute))

	for i := 0; i < 50; i++ {
		existing = append(existing, booking{
			at:     at(faker.Number(6, 19), faker.Number(0, 59)),
			active: faker.Bool(),
		})

		current := slices.Collect(ResolveBookable(candidates, existing, 20*time.Minute))

		assert.LessOrEqual(t, len(current), len(previous))
		for _, s := range current {
			assert.Contains(t, previous, s, "adding an appointment must not add slots")
		}
		previous = current
	}
}

func TestFind(t *testing.T) {
	windows := []Window{mustWindow(t, "08:00", "10:00")}
	seq := GenerateSlots(windows, monday, 30*time.Minute, time.Time{})

	slot, ok := Find(seq, at(9, 0))
	assert.True(t, ok)
	assert.Equal(t, at(9, 30), slot.End)

	_, ok = Find(seq, at(9, 10))
	assert.False(t, ok)
}
