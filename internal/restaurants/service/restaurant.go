package service

import (
	"context"
	"errors"

	restauranterrors "tabletreats/internal/restaurants/errors"
	"tabletreats/internal/restaurants/repository"
	"tabletreats/internal/restaurants/validator"
	"tabletreats/pkg/config"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/model"
	"tabletreats/pkg/sanitizer"
	"tabletreats/pkg/timeslot"
)

// SlotCache is the slice of the slot cache this package needs: hours
// and seating updates must drop any cached slot lists for the
// restaurant so availability reflects the new configuration.
type SlotCache interface {
	InvalidateRestaurant(ctx context.Context, restaurantID string)
}

type RestaurantService interface {
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
	GetByOwner(ctx context.Context, ownerEmail string) (*model.Restaurant, error)
	List(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Restaurant, int64, error)
	HoursForDate(ctx context.Context, restaurantID, date string) (*model.HoursInfo, error)
	UpdateHours(ctx context.Context, restaurantID, ownerEmail string, hours map[string]model.DayHours) error
	UpdateSeatingConfig(ctx context.Context, restaurantID, ownerEmail string, seating *model.SeatingConfig) error

	CreatePromo(ctx context.Context, restaurantID, ownerEmail string, deal *model.Deal) error
	ListPromos(ctx context.Context, restaurantID, ownerEmail string) ([]model.Deal, error)
	GetPromo(ctx context.Context, restaurantID, ownerEmail, promoID string) (*model.Deal, error)
	UpdatePromo(ctx context.Context, restaurantID, ownerEmail, promoID string, update *model.DealUpdate) (*model.Deal, error)
	DeletePromo(ctx context.Context, restaurantID, ownerEmail, promoID string) error
	TogglePromo(ctx context.Context, restaurantID, ownerEmail, promoID string) (*model.Deal, error)
	PublicPromos(ctx context.Context, restaurantID string) ([]model.Deal, error)
	ApplicableDeals(ctx context.Context, restaurantID, date, slot string) ([]model.Deal, error)
}

type restaurantService struct {
	repo      repository.RestaurantRepository
	validator *validator.RestaurantValidator
	cache     SlotCache
	cfg       *config.Config
}

func NewRestaurantService(
	repo repository.RestaurantRepository,
	validator *validator.RestaurantValidator,
	cache SlotCache,
	cfg *config.Config,
) RestaurantService {
	return &restaurantService{
		repo:      repo,
		validator: validator,
		cache:     cache,
		cfg:       cfg,
	}
}

func (s *restaurantService) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err, id)
	}
	return restaurant, nil
}

func (s *restaurantService) GetByOwner(ctx context.Context, ownerEmail string) (*model.Restaurant, error) {
	restaurant, err := s.repo.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		if errors.Is(err, restauranterrors.ErrNotFound) {
			return nil, apperrors.NotFound("restaurant")
		}
		return nil, apperrors.Internal("Failed to look up restaurant by owner", err)
	}
	return restaurant, nil
}

func (s *restaurantService) List(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Restaurant, int64, error) {
	filter.City = sanitizer.NormalizeCity(filter.City)
	filter.Cuisine = sanitizer.TrimAndNormalize(filter.Cuisine)

	restaurants, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list restaurants", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count restaurants", err)
	}

	return restaurants, total, nil
}

// HoursForDate resolves a calendar date to the restaurant's operating
// window for that weekday and the slot labels inside it. A day that is
// absent from the hours map counts as closed.
func (s *restaurantService) HoursForDate(ctx context.Context, restaurantID, date string) (*model.HoursInfo, error) {
	day, err := timeslot.DayName(date)
	if err != nil {
		return nil, apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}

	restaurant, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, s.translateError(err, restaurantID)
	}

	dh := restaurant.DayHoursFor(day)
	if dh.Closed {
		return &model.HoursInfo{Closed: true, Day: day}, nil
	}

	slots, err := timeslot.Generate(dh.Open, dh.Close, s.cfg.SlotIntervalMinutes)
	if err != nil {
		return nil, apperrors.Internal("Stored hours are malformed", err)
	}

	return &model.HoursInfo{
		Closed:         false,
		Day:            day,
		Open:           dh.Open,
		Close:          dh.Close,
		AvailableSlots: slots,
	}, nil
}

func (s *restaurantService) UpdateHours(ctx context.Context, restaurantID, ownerEmail string, hours map[string]model.DayHours) error {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateHours(hours); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	if err := s.repo.UpdateHours(ctx, restaurant.ID, hours); err != nil {
		return apperrors.Internal("Failed to update hours", err)
	}

	s.invalidateSlots(ctx, restaurant.ID)
	s.cfg.Log.Info("Restaurant hours updated", "restaurant_id", restaurant.ID)
	return nil
}

func (s *restaurantService) UpdateSeatingConfig(ctx context.Context, restaurantID, ownerEmail string, seating *model.SeatingConfig) error {
	restaurant, err := s.ownedRestaurant(ctx, restaurantID, ownerEmail)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateSeatingConfig(seating); err != nil {
		return apperrors.Validation(err.Error(), nil)
	}

	// Derived capacities are never trusted from the caller.
	total := 0
	for i := range seating.SeatingAreas {
		area := &seating.SeatingAreas[i]
		if area.ID == "" {
			area.ID = newID()
		}
		area.AreaName = sanitizer.NormalizeName(area.AreaName)
		area.AreaCapacity = area.SeatsPerTable * area.NumberOfTables
		total += area.AreaCapacity
	}
	seating.TotalCapacity = total

	if err := s.repo.UpdateSeatingConfig(ctx, restaurant.ID, *seating); err != nil {
		return apperrors.Internal("Failed to update seating configuration", err)
	}

	s.invalidateSlots(ctx, restaurant.ID)
	s.cfg.Log.Info("Seating configuration updated",
		"restaurant_id", restaurant.ID,
		"areas", len(seating.SeatingAreas),
		"total_capacity", total,
	)
	return nil
}

// ownedRestaurant loads the restaurant and enforces that ownerEmail is
// its owner. All owner-scoped mutations funnel through here.
func (s *restaurantService) ownedRestaurant(ctx context.Context, restaurantID, ownerEmail string) (*model.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, s.translateError(err, restaurantID)
	}

	if restaurant.OwnerEmail != ownerEmail {
		return nil, apperrors.Forbidden("You do not manage this restaurant")
	}

	return restaurant, nil
}

func (s *restaurantService) invalidateSlots(ctx context.Context, restaurantID string) {
	if s.cache != nil {
		s.cache.InvalidateRestaurant(ctx, restaurantID)
	}
}

func (s *restaurantService) translateError(err error, id string) error {
	switch {
	case errors.Is(err, restauranterrors.ErrNotFound):
		return apperrors.NotFoundWithID("restaurant", id)
	case errors.Is(err, restauranterrors.ErrInvalidID):
		return apperrors.InvalidInput("restaurant ID must be a valid ObjectID")
	case errors.Is(err, restauranterrors.ErrPromoNotFound):
		return apperrors.NotFound("promo")
	default:
		return apperrors.Internal("Restaurant lookup failed", err)
	}
}
