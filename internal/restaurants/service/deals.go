package service

import (
	"context"
	"time"

	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/model"
	"tabletreats/pkg/sanitizer"
	"tabletreats/pkg/timeslot"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

func (s *restaurantService) CreatePromo(ctx context.Context, restaurantID, ownerEmail string, deal *model.Deal) error {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return err
	}

	s.sanitizeDeal(deal)
	if err := s.validator.ValidateDeal(deal); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	deal.ID = newID()
	deal.IsActive = true
	deal.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.AddPromo(ctx, restaurant.ID, *deal); err != nil {
		return apperrors.Internal("Failed to create promo", err)
	}

	s.cfg.Log.Info("Promo created",
		"restaurant_id", restaurant.ID,
		"promo_id", deal.ID,
		"discount_type", deal.DiscountType,
	)
	return nil
}

func (s *restaurantService) ListPromos(ctx context.Context, restaurantID, ownerEmail string) ([]model.Deal, error) {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return nil, err
	}
	return restaurant.Promos, nil
}

func (s *restaurantService) GetPromo(ctx context.Context, restaurantID, ownerEmail, promoID string) (*model.Deal, error) {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return nil, err
	}

	deal := findDeal(restaurant.Promos, promoID)
	if deal == nil {
		return nil, apperrors.NotFoundWithID("promo", promoID)
	}
	return deal, nil
}

func (s *restaurantService) UpdatePromo(ctx context.Context, restaurantID, ownerEmail, promoID string, update *model.DealUpdate) (*model.Deal, error) {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return nil, err
	}

	deal := findDeal(restaurant.Promos, promoID)
	if deal == nil {
		return nil, apperrors.NotFoundWithID("promo", promoID)
	}

	applyDealUpdate(deal, update)
	s.sanitizeDeal(deal)
	if err := s.validator.ValidateDeal(deal); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	deal.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.ReplacePromo(ctx, restaurant.ID, *deal); err != nil {
		return nil, s.translateError(err, promoID)
	}

	s.cfg.Log.Info("Promo updated", "restaurant_id", restaurant.ID, "promo_id", promoID)
	return deal, nil
}

func (s *restaurantService) DeletePromo(ctx context.Context, restaurantID, ownerEmail, promoID string) error {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return err
	}

	if findDeal(restaurant.Promos, promoID) == nil {
		return apperrors.NotFoundWithID("promo", promoID)
	}

	if err := s.repo.RemovePromo(ctx, restaurant.ID, promoID); err != nil {
		return s.translateError(err, promoID)
	}

	s.cfg.Log.Info("Promo deleted", "restaurant_id", restaurant.ID, "promo_id", promoID)
	return nil
}

func (s *restaurantService) TogglePromo(ctx context.Context, restaurantID, ownerEmail, promoID string) (*model.Deal, error) {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return nil, err
	}

	deal := findDeal(restaurant.Promos, promoID)
	if deal == nil {
		return nil, apperrors.NotFoundWithID("promo", promoID)
	}

	deal.IsActive = !deal.IsActive
	deal.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.ReplacePromo(ctx, restaurant.ID, *deal); err != nil {
		return nil, s.translateError(err, promoID)
	}

	s.cfg.Log.Info("Promo toggled",
		"restaurant_id", restaurant.ID,
		"promo_id", promoID,
		"is_active", deal.IsActive,
	)
	return deal, nil
}

// PublicPromos returns the deals that match right now, for the public
// restaurant page.
func (s *restaurantService) PublicPromos(ctx context.Context, restaurantID string) ([]model.Deal, error) {
	restaurant, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, s.translateError(err, restaurantID)
	}

	now := time.Now().UTC()
	return MatchDeals(restaurant.Promos,
		now.Format(timeslot.DateLayout),
		now.Format(timeslot.TimeLayout),
	), nil
}

// ApplicableDeals returns the deals that would apply to a reservation
// at the given date and slot.
func (s *restaurantService) ApplicableDeals(ctx context.Context, restaurantID, date, slot string) ([]model.Deal, error) {
	if _, err := timeslot.DayName(date); err != nil {
		return nil, apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}
	if _, err := timeslot.MinutesOf(slot); err != nil {
		return nil, apperrors.InvalidInput("time_slot must be an HH:MM time")
	}

	restaurant, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, s.translateError(err, restaurantID)
	}

	return MatchDeals(restaurant.Promos, date, slot), nil
}

// MatchDeals filters deals down to those applying at the given date
// and HH:MM time. A deal applies when it is active, the date falls
// inside its start/end window, the weekday is listed (an empty
// valid_days list means every day), and the time falls inside its
// daily window, which defaults to the whole day. Matches keep stored
// order; there is no ranking between overlapping deals.
func MatchDeals(deals []model.Deal, date, hhmm string) []model.Deal {
	day, err := timeslot.DayName(date)
	if err != nil {
		return []model.Deal{}
	}

	matched := make([]model.Deal, 0, len(deals))
	for _, deal := range deals {
		if !deal.IsActive {
			continue
		}
		if deal.StartDate != "" && date < deal.StartDate {
			continue
		}
		if deal.EndDate != "" && date > deal.EndDate {
			continue
		}
		if len(deal.ValidDays) > 0 && !containsDay(deal.ValidDays, day) {
			continue
		}

		start := deal.TimeStart
		if start == "" {
			start = "00:00"
		}
		end := deal.TimeEnd
		if end == "" {
			end = "23:59"
		}
		if hhmm < start || hhmm > end {
			continue
		}

		matched = append(matched, deal)
	}
	return matched
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func findDeal(deals []model.Deal, promoID string) *model.Deal {
	for i := range deals {
		if deals[i].ID == promoID {
			copied := deals[i]
			return &copied
		}
	}
	return nil
}

func applyDealUpdate(deal *model.Deal, update *model.DealUpdate) {
	if update.Title != "" {
		deal.Title = update.Title
	}
	if update.Description != "" {
		deal.Description = update.Description
	}
	if update.DiscountType != "" {
		deal.DiscountType = update.DiscountType
		deal.DiscountValue = update.DiscountValue
	} else if update.DiscountValue != nil {
		deal.DiscountValue = update.DiscountValue
	}
	if update.ValidDays != nil {
		deal.ValidDays = update.ValidDays
	}
	if update.TimeStart != "" {
		deal.TimeStart = update.TimeStart
	}
	if update.TimeEnd != "" {
		deal.TimeEnd = update.TimeEnd
	}
	if update.StartDate != "" {
		deal.StartDate = update.StartDate
	}
	if update.EndDate != "" {
		deal.EndDate = update.EndDate
	}
	if update.IsActive != nil {
		deal.IsActive = *update.IsActive
	}
}

func (s *restaurantService) sanitizeDeal(deal *model.Deal) {
	deal.Title = sanitizer.TrimAndNormalize(deal.Title)
	deal.Description = sanitizer.TrimAndNormalize(deal.Description)
	for i, day := range deal.ValidDays {
		deal.ValidDays[i] = sanitizer.NormalizeDay(day)
	}
}
