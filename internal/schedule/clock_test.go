package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "08:00", want: 480},
		{in: "8:30", want: 510},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", want: MinutesPerDay},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "12:5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockStringAndOn(t *testing.T) {
	c, err := NewClock(9, 5)
	require.NoError(t, err)
	assert.Equal(t, "09:05", c.String())

	date := time.Date(2026, 10, 19, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC), c.On(date))
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), Clock(MinutesPerDay).On(date))
	assert.Equal(t, Clock(17*60+45), ClockOf(date))
}
