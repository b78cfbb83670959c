package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		open     string
		close    string
		interval int
		expected []string
	}{
		{
			name:     "half hour slots exclude closing time",
			open:     "09:00",
			close:    "11:00",
			interval: 30,
			expected: []string{"09:00", "09:30", "10:00", "10:30"},
		},
		{
			name:     "partial trailing period yields no slot",
			open:     "09:00",
			close:    "10:45",
			interval: 30,
			expected: []string{"09:00", "09:30", "10:00", "10:30"},
		},
		{
			name:     "open equals close yields empty",
			open:     "12:00",
			close:    "12:00",
			interval: 30,
			expected: nil,
		},
		{
			name:     "hourly interval",
			open:     "17:00",
			close:    "21:00",
			interval: 60,
			expected: []string{"17:00", "18:00", "19:00", "20:00"},
		},
		{
			name:     "zero interval falls back to default",
			open:     "09:00",
			close:    "10:00",
			interval: 0,
			expected: []string{"09:00", "09:30"},
		},
		{
			name:     "minutes carry across the hour",
			open:     "09:15",
			close:    "10:30",
			interval: 30,
			expected: []string{"09:15", "09:45", "10:15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.open, tt.close, tt.interval)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate("09:00", "23:00", 30)
	require.NoError(t, err)
	second, err := Generate("09:00", "23:00", 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_InvalidTimes(t *testing.T) {
	_, err := Generate("9am", "11:00", 30)
	assert.Error(t, err)

	_, err = Generate("09:00", "25:00", 30)
	assert.Error(t, err)
}

func TestDayName(t *testing.T) {
	day, err := DayName("2025-06-06")
	require.NoError(t, err)
	assert.Equal(t, "friday", day)

	_, err = DayName("06/06/2025")
	assert.Error(t, err)
}

func TestSlotInstant(t *testing.T) {
	instant, err := SlotInstant("2025-06-06", "18:30")
	require.NoError(t, err)
	assert.Equal(t, 18, instant.Hour())
	assert.Equal(t, 30, instant.Minute())
	assert.Equal(t, "2025-06-06", instant.Format(DateLayout))
}

func TestContains(t *testing.T) {
	slots := []string{"09:00", "09:30"}
	assert.True(t, Contains(slots, "09:30"))
	assert.False(t, Contains(slots, "10:00"))
}
