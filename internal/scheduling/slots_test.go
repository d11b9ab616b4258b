package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}

func TestGenerateSlots_FullWindow(t *testing.T) {
	slots := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "12:00"), 60)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start.String())
	assert.Equal(t, "10:00", slots[0].End.String())
	assert.Equal(t, "10:00", slots[1].Start.String())
	assert.Equal(t, "11:00", slots[1].End.String())
	assert.Equal(t, "11:00", slots[2].Start.String())
	assert.Equal(t, "12:00", slots[2].End.String())
}

func TestGenerateSlots_WindowTooShort(t *testing.T) {
	slots := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "09:59"), 60)
	assert.Empty(t, slots)
}

func TestGenerateSlots_NeverPastWindowEnd(t *testing.T) {
	// 09:00-10:45 with 30 minute slots: the 10:30 slot would end at
	// 11:00, outside the window, so only three slots fit.
	slots := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "10:45"), 30)

	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.LessOrEqual(t, s.End, mustTime(t, "10:45"))
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	a := GenerateSlots(mustTime(t, "08:00"), mustTime(t, "17:00"), 45)
	b := GenerateSlots(mustTime(t, "08:00"), mustTime(t, "17:00"), 45)
	assert.Equal(t, a, b)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"identical", "10:00", "11:00", "10:00", "11:00", true},
		{"partial", "10:00", "11:00", "10:30", "11:30", true},
		{"contained", "10:00", "12:00", "10:30", "11:00", true},
		{"back to back", "10:00", "11:00", "11:00", "12:00", false},
		{"disjoint", "09:00", "10:00", "11:00", "12:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(mustTime(t, tt.aStart), mustTime(t, tt.aEnd), mustTime(t, tt.bStart), mustTime(t, tt.bEnd))
			assert.Equal(t, tt.want, got)
			// The relation is symmetric.
			assert.Equal(t, tt.want, Overlaps(mustTime(t, tt.bStart), mustTime(t, tt.bEnd), mustTime(t, tt.aStart), mustTime(t, tt.aEnd)))
		})
	}
}

func TestFilterBooked(t *testing.T) {
	candidates := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "12:00"), 60)
	booked := []Appointment{
		{StartTime: mustTime(t, "10:00"), EndTime: mustTime(t, "11:00"), Status: StatusScheduled},
	}

	free := FilterBooked(candidates, booked)

	require.Len(t, free, 2)
	assert.Equal(t, "09:00", free[0].Start.String())
	assert.Equal(t, "11:00", free[1].Start.String())
}
