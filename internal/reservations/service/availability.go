package service

import (
	"context"
	"errors"

	reservationerrors "tabletreats/internal/reservations/errors"
	restauranterrors "tabletreats/internal/restaurants/errors"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/model"
	"tabletreats/pkg/timeslot"
)

// Availability reasons reported when a slot cannot take a party.
const (
	ReasonClosed       = "closed"
	ReasonOutsideHours = "outside_hours"
)

// CheckAvailability answers whether number_of_guests can be seated at
// the given slot. A party is never split: at least one seating area
// must have enough remaining capacity for the whole group.
func (s *reservationService) CheckAvailability(ctx context.Context, check *model.AvailabilityCheck) (*model.AvailabilityResult, error) {
	if err := s.validator.ValidateAvailabilityCheck(check); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	restaurant, err := s.restaurants.FindByID(ctx, check.RestaurantID)
	if err != nil {
		return nil, s.translateRestaurantError(err, check.RestaurantID)
	}

	hours, err := s.hoursForDate(ctx, restaurant, check.Date)
	if err != nil {
		return nil, err
	}
	if hours.Closed {
		return &model.AvailabilityResult{Available: false, Reason: ReasonClosed}, nil
	}
	if !timeslot.Contains(hours.AvailableSlots, check.TimeSlot) {
		return &model.AvailabilityResult{Available: false, Reason: ReasonOutsideHours}, nil
	}

	booked, err := s.ledger.BookedForSlot(ctx, check.RestaurantID, check.Date, check.TimeSlot)
	if err != nil {
		return nil, apperrors.Internal("Failed to read capacity ledger", err)
	}

	result := &model.AvailabilityResult{
		AvailableSeatingAreas: []model.AreaAvailability{},
	}
	for _, area := range restaurant.SeatingConfig.SeatingAreas {
		areaBooked := booked[area.ID]
		result.TotalCapacity += area.AreaCapacity
		result.Booked += areaBooked

		remaining := area.AreaCapacity - areaBooked
		if remaining < 0 {
			remaining = 0
		}
		result.RemainingCapacity += remaining

		if area.AreaCapacity < check.NumberOfGuests || remaining < check.NumberOfGuests {
			continue
		}

		result.AvailableSeatingAreas = append(result.AvailableSeatingAreas, model.AreaAvailability{
			AreaID:            area.ID,
			AreaName:          area.AreaName,
			AreaType:          area.AreaType,
			SeatsPerTable:     area.SeatsPerTable,
			AvailableTables:   remaining / area.SeatsPerTable,
			AreaCapacity:      area.AreaCapacity,
			RemainingCapacity: remaining,
		})
	}

	result.Available = len(result.AvailableSeatingAreas) > 0
	return result, nil
}

// DailyAvailability returns one aggregate row per slot of the day.
func (s *reservationService) DailyAvailability(ctx context.Context, restaurantID, date string) ([]model.SlotAvailability, error) {
	if _, err := timeslot.DayName(date); err != nil {
		return nil, apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, s.translateRestaurantError(err, restaurantID)
	}

	hours, err := s.hoursForDate(ctx, restaurant, date)
	if err != nil {
		return nil, err
	}
	if hours.Closed {
		return []model.SlotAvailability{}, nil
	}

	booked, err := s.ledger.BookedByDate(ctx, restaurantID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to read capacity ledger", err)
	}

	total := restaurant.SeatingConfig.TotalCapacity
	rows := make([]model.SlotAvailability, 0, len(hours.AvailableSlots))
	for _, slot := range hours.AvailableSlots {
		slotBooked := booked[slot]
		remaining := total - slotBooked
		if remaining < 0 {
			remaining = 0
		}
		rows = append(rows, model.SlotAvailability{
			TimeSlot:          slot,
			Available:         remaining > 0,
			RemainingCapacity: remaining,
			TotalCapacity:     total,
			Booked:            slotBooked,
		})
	}

	return rows, nil
}

// hoursForDate resolves the operating window for the date, consulting
// the slot cache first.
func (s *reservationService) hoursForDate(ctx context.Context, restaurant *model.Restaurant, date string) (*model.HoursInfo, error) {
	if cached, ok := s.cache.GetHours(ctx, restaurant.ID, date); ok {
		return cached, nil
	}

	day, err := timeslot.DayName(date)
	if err != nil {
		return nil, apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}

	dh := restaurant.DayHoursFor(day)
	info := &model.HoursInfo{Closed: true, Day: day}
	if !dh.Closed {
		slots, err := timeslot.Generate(dh.Open, dh.Close, s.cfg.SlotIntervalMinutes)
		if err != nil {
			return nil, apperrors.Internal("Stored hours are malformed", err)
		}
		info = &model.HoursInfo{
			Closed:         false,
			Day:            day,
			Open:           dh.Open,
			Close:          dh.Close,
			AvailableSlots: slots,
		}
	}

	s.cache.SetHours(ctx, restaurant.ID, date, info)
	return info, nil
}

func (s *reservationService) translateRestaurantError(err error, id string) error {
	switch {
	case errors.Is(err, restauranterrors.ErrNotFound):
		return apperrors.NotFoundWithID("restaurant", id)
	case errors.Is(err, restauranterrors.ErrInvalidID):
		return apperrors.InvalidInput("restaurant ID must be a valid ObjectID")
	default:
		return apperrors.Internal("Restaurant lookup failed", err)
	}
}

func (s *reservationService) translateReservationError(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("reservation", id)
	case errors.Is(err, reservationerrors.ErrInvalidID):
		return apperrors.InvalidInput("reservation ID must be a valid ObjectID")
	default:
		return apperrors.Internal("Reservation lookup failed", err)
	}
}
