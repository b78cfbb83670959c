package service

import (
	"testing"

	"tabletreats/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestMatchDeals_DayAndTimeWindow(t *testing.T) {
	happyHour := model.Deal{
		ID:            "deal-1",
		Title:         "Friday Happy Hour",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: floatPtr(20),
		ValidDays:     []string{"friday"},
		TimeStart:     "17:00",
		TimeEnd:       "21:00",
		IsActive:      true,
	}

	tests := []struct {
		name    string
		date    string
		time    string
		matches bool
	}{
		// 2025-06-06 is a Friday.
		{"friday inside window", "2025-06-06", "18:00", true},
		{"friday at window start", "2025-06-06", "17:00", true},
		{"friday at window end", "2025-06-06", "21:00", true},
		{"friday before window", "2025-06-06", "16:30", false},
		{"friday after window", "2025-06-06", "21:30", false},
		{"saturday inside window", "2025-06-07", "18:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := MatchDeals([]model.Deal{happyHour}, tt.date, tt.time)
			if tt.matches {
				require.Len(t, matched, 1)
				assert.Equal(t, "deal-1", matched[0].ID)
			} else {
				assert.Empty(t, matched)
			}
		})
	}
}

func TestMatchDeals_DateRange(t *testing.T) {
	seasonal := model.Deal{
		ID:            "deal-2",
		DiscountType:  model.DiscountFlatAmount,
		DiscountValue: floatPtr(5),
		StartDate:     "2025-06-01",
		EndDate:       "2025-06-30",
		IsActive:      true,
	}

	tests := []struct {
		name    string
		date    string
		matches bool
	}{
		{"inside range", "2025-06-15", true},
		{"first day", "2025-06-01", true},
		{"last day", "2025-06-30", true},
		{"before range", "2025-05-31", false},
		{"after range", "2025-07-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := MatchDeals([]model.Deal{seasonal}, tt.date, "12:00")
			assert.Equal(t, tt.matches, len(matched) == 1)
		})
	}
}

func TestMatchDeals_EmptyValidDaysMeansEveryDay(t *testing.T) {
	deal := model.Deal{ID: "deal-3", DiscountType: model.DiscountBogo, IsActive: true}

	for _, date := range []string{"2025-06-02", "2025-06-04", "2025-06-08"} {
		matched := MatchDeals([]model.Deal{deal}, date, "12:00")
		assert.Len(t, matched, 1, "date %s", date)
	}
}

func TestMatchDeals_DefaultTimeWindowCoversWholeDay(t *testing.T) {
	deal := model.Deal{ID: "deal-4", DiscountType: model.DiscountBogo, IsActive: true}

	for _, slot := range []string{"00:00", "12:00", "23:59"} {
		matched := MatchDeals([]model.Deal{deal}, "2025-06-06", slot)
		assert.Len(t, matched, 1, "slot %s", slot)
	}
}

func TestMatchDeals_InactiveExcluded(t *testing.T) {
	deal := model.Deal{ID: "deal-5", DiscountType: model.DiscountBogo, IsActive: false}

	matched := MatchDeals([]model.Deal{deal}, "2025-06-06", "12:00")
	assert.Empty(t, matched)
}

func TestMatchDeals_PreservesStoredOrder(t *testing.T) {
	deals := []model.Deal{
		{ID: "first", DiscountType: model.DiscountBogo, IsActive: true},
		{ID: "skipped", DiscountType: model.DiscountBogo, IsActive: false},
		{ID: "second", DiscountType: model.DiscountBogo, IsActive: true},
	}

	matched := MatchDeals(deals, "2025-06-06", "12:00")
	require.Len(t, matched, 2)
	assert.Equal(t, "first", matched[0].ID)
	assert.Equal(t, "second", matched[1].ID)
}

func TestMatchDeals_InvalidDate(t *testing.T) {
	deal := model.Deal{ID: "deal-6", DiscountType: model.DiscountBogo, IsActive: true}

	matched := MatchDeals([]model.Deal{deal}, "06/06/2025", "12:00")
	assert.Empty(t, matched)
}
