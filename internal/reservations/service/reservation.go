package service

import (
	"context"
	"errors"
	"time"

	"tabletreats/internal/reservations/cache"
	reservationerrors "tabletreats/internal/reservations/errors"
	"tabletreats/internal/reservations/repository"
	"tabletreats/internal/reservations/validator"
	"tabletreats/pkg/config"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/model"
	"tabletreats/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// RestaurantSource is the slice of the restaurant store this package
// needs.
type RestaurantSource interface {
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
}

type ReservationService interface {
	CheckAvailability(ctx context.Context, check *model.AvailabilityCheck) (*model.AvailabilityResult, error)
	DailyAvailability(ctx context.Context, restaurantID, date string) ([]model.SlotAvailability, error)

	Create(ctx context.Context, customerEmail string, create *model.ReservationCreate) (*model.Reservation, error)
	GetByID(ctx context.Context, id string, principal model.Principal) (*model.Reservation, error)
	ListByCustomer(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListForRestaurant(ctx context.Context, ownerEmail, restaurantID, date string) ([]*model.Reservation, error)
	TotalGuests(ctx context.Context, ownerEmail, restaurantID, date string) (int, error)
	Cancel(ctx context.Context, id, customerEmail string) error
	CheckIn(ctx context.Context, id, ownerEmail string) (*model.Reservation, error)
	UndoCheckIn(ctx context.Context, id, ownerEmail string) (*model.Reservation, error)
}

type reservationService struct {
	repo        repository.ReservationRepository
	ledger      repository.LedgerRepository
	locks       repository.SlotLockRepository
	restaurants RestaurantSource
	cache       *cache.SlotCache
	validator   *validator.ReservationValidator
	events      *EventPublisher
	cfg         *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	ledger repository.LedgerRepository,
	locks repository.SlotLockRepository,
	restaurants RestaurantSource,
	slotCache *cache.SlotCache,
	validator *validator.ReservationValidator,
	events *EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:        repo,
		ledger:      ledger,
		locks:       locks,
		restaurants: restaurants,
		cache:       slotCache,
		validator:   validator,
		events:      events,
		cfg:         cfg,
	}
}

// Create books a slot. The advisory lock serializes writers for the
// same (restaurant, date, slot, area) key; the availability re-check
// and the reservation insert plus ledger increment then run inside a
// transaction, so a full slot can never leave a dangling reservation.
func (s *reservationService) Create(ctx context.Context, customerEmail string, create *model.ReservationCreate) (*model.Reservation, error) {
	s.sanitizeCreate(create)
	if err := s.validator.ValidateCreate(create); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	restaurant, err := s.restaurants.FindByID(ctx, create.RestaurantID)
	if err != nil {
		return nil, s.translateRestaurantError(err, create.RestaurantID)
	}

	area := restaurant.AreaByID(create.SeatingAreaID)
	if area == nil {
		return nil, apperrors.NotFoundWithID("seating area", create.SeatingAreaID)
	}

	key := model.LedgerKey{
		RestaurantID:  create.RestaurantID,
		Date:          create.Date,
		TimeSlot:      create.TimeSlot,
		SeatingAreaID: create.SeatingAreaID,
	}

	lockID, err := s.locks.Acquire(ctx, key, s.cfg.SlotLockTTL)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrLockHeld) {
			return nil, apperrors.ConflictReason(apperrors.ReasonSlotLocked,
				"Another reservation for this slot is in progress, retry shortly")
		}
		return nil, apperrors.Internal("Failed to acquire slot lock", err)
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	if err := s.recheckAvailability(ctx, restaurant, create); err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		RestaurantID:    create.RestaurantID,
		RestaurantName:  restaurant.RestaurantName,
		CustomerName:    create.CustomerName,
		CustomerEmail:   customerEmail,
		CustomerPhone:   create.CustomerPhone,
		Date:            create.Date,
		TimeSlot:        create.TimeSlot,
		NumberOfGuests:  create.NumberOfGuests,
		SeatingAreaID:   area.ID,
		SeatingAreaName: area.AreaName,
		Status:          model.StatusConfirmed,
		SpecialRequests: create.SpecialRequests,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		if err := s.ledger.Increment(sessCtx, key, create.NumberOfGuests, area.AreaCapacity); err != nil {
			if errors.Is(err, reservationerrors.ErrCapacityExceeded) {
				return apperrors.ConflictReason(apperrors.ReasonSlotUnavailable,
					"The requested slot can no longer seat this party")
			}
			return apperrors.Internal("Failed to update capacity ledger", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"restaurant_id", create.RestaurantID,
			"date", create.Date,
			"time_slot", create.TimeSlot,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"restaurant_id", reservation.RestaurantID,
		"date", reservation.Date,
		"time_slot", reservation.TimeSlot,
		"guests", reservation.NumberOfGuests,
	)
	s.events.ReservationCreated(ctx, reservation)

	return reservation, nil
}

// recheckAvailability re-runs the availability check for the selected
// area while the advisory lock is held.
func (s *reservationService) recheckAvailability(ctx context.Context, restaurant *model.Restaurant, create *model.ReservationCreate) error {
	result, err := s.CheckAvailability(ctx, &model.AvailabilityCheck{
		RestaurantID:   create.RestaurantID,
		Date:           create.Date,
		TimeSlot:       create.TimeSlot,
		NumberOfGuests: create.NumberOfGuests,
	})
	if err != nil {
		return err
	}

	if !result.Available {
		return apperrors.ConflictReason(apperrors.ReasonSlotUnavailable,
			"The requested slot cannot seat this party")
	}
	for _, candidate := range result.AvailableSeatingAreas {
		if candidate.AreaID == create.SeatingAreaID {
			return nil
		}
	}
	return apperrors.ConflictReason(apperrors.ReasonSlotUnavailable,
		"The selected seating area cannot seat this party")
}

func (s *reservationService) GetByID(ctx context.Context, id string, principal model.Principal) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateReservationError(err, id)
	}

	if err := s.authorize(ctx, reservation, principal); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) ListByCustomer(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	reservations, err := s.repo.FindByCustomer(ctx, email, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list reservations", err)
	}

	total, err := s.repo.CountByCustomer(ctx, email)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count reservations", err)
	}

	return reservations, total, nil
}

func (s *reservationService) ListForRestaurant(ctx context.Context, ownerEmail, restaurantID, date string) ([]*model.Reservation, error) {
	if err := s.authorizeOwner(ctx, ownerEmail, restaurantID); err != nil {
		return nil, err
	}

	reservations, err := s.repo.FindByRestaurantAndDate(ctx, restaurantID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to list reservations", err)
	}
	return reservations, nil
}

func (s *reservationService) TotalGuests(ctx context.Context, ownerEmail, restaurantID, date string) (int, error) {
	if err := s.authorizeOwner(ctx, ownerEmail, restaurantID); err != nil {
		return 0, err
	}

	total, err := s.repo.TotalGuests(ctx, restaurantID, date)
	if err != nil {
		return 0, apperrors.Internal("Failed to total guests", err)
	}
	return total, nil
}

// Cancel releases the slot. Only the booking customer may cancel, only
// before check-in, and only before the reservation's own date and time
// slot. The cutoff compares the naive slot instant against UTC now;
// restaurants carry no timezone.
func (s *reservationService) Cancel(ctx context.Context, id, customerEmail string) error {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translateReservationError(err, id)
	}

	if reservation.CustomerEmail != customerEmail {
		return apperrors.Forbidden("You do not own this reservation")
	}
	if reservation.Status == model.StatusCancelled {
		return apperrors.ConflictReason(apperrors.ReasonAlreadyCancelled,
			"Reservation is already cancelled")
	}
	if reservation.CheckedIn {
		return apperrors.ConflictReason(apperrors.ReasonAlreadyCheckedIn,
			"Reservation cannot be cancelled after check-in")
	}

	slotTime, err := reservation.SlotTime()
	if err != nil {
		return apperrors.Internal("Stored reservation slot is malformed", err)
	}
	if !time.Now().UTC().Before(slotTime) {
		return apperrors.ConflictReason(apperrors.ReasonCutoffPassed,
			"Reservation time has passed, cancellation is no longer possible")
	}

	key := model.LedgerKey{
		RestaurantID:  reservation.RestaurantID,
		Date:          reservation.Date,
		TimeSlot:      reservation.TimeSlot,
		SeatingAreaID: reservation.SeatingAreaID,
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.SetStatus(sessCtx, id, model.StatusCancelled); err != nil {
			return apperrors.Internal("Failed to cancel reservation", err)
		}
		if err := s.ledger.Decrement(sessCtx, key, reservation.NumberOfGuests); err != nil {
			return apperrors.Internal("Failed to release capacity", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Reservation cancelled", "id", id, "guests", reservation.NumberOfGuests)
	reservation.Status = model.StatusCancelled
	s.events.ReservationCancelled(ctx, reservation)

	return nil
}

func (s *reservationService) CheckIn(ctx context.Context, id, ownerEmail string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateReservationError(err, id)
	}

	if err := s.authorizeOwner(ctx, ownerEmail, reservation.RestaurantID); err != nil {
		return nil, err
	}
	if reservation.Status == model.StatusCancelled {
		return nil, apperrors.ConflictReason(apperrors.ReasonAlreadyCancelled,
			"Cancelled reservations cannot be checked in")
	}
	if reservation.CheckedIn {
		return nil, apperrors.ConflictReason(apperrors.ReasonAlreadyCheckedIn,
			"Reservation is already checked in")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.repo.SetCheckIn(ctx, id, true, &now); err != nil {
		return nil, apperrors.Internal("Failed to check in reservation", err)
	}

	reservation.CheckedIn = true
	reservation.CheckedInAt = &now

	s.cfg.Log.Info("Reservation checked in", "id", id)
	s.events.ReservationCheckedIn(ctx, reservation)

	return reservation, nil
}

func (s *reservationService) UndoCheckIn(ctx context.Context, id, ownerEmail string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateReservationError(err, id)
	}

	if err := s.authorizeOwner(ctx, ownerEmail, reservation.RestaurantID); err != nil {
		return nil, err
	}
	if !reservation.CheckedIn {
		return nil, apperrors.ConflictReason(apperrors.ReasonNotCheckedIn,
			"Reservation is not checked in")
	}
	if reservation.Bill != nil {
		return nil, apperrors.ConflictReason(apperrors.ReasonBillExists,
			"Check-in cannot be undone once a bill exists")
	}

	if err := s.repo.SetCheckIn(ctx, id, false, nil); err != nil {
		return nil, apperrors.Internal("Failed to undo check-in", err)
	}

	reservation.CheckedIn = false
	reservation.CheckedInAt = nil

	s.cfg.Log.Info("Reservation check-in undone", "id", id)
	s.events.ReservationCheckInUndone(ctx, reservation)

	return reservation, nil
}

// authorize permits the booking customer or the restaurant owner.
func (s *reservationService) authorize(ctx context.Context, reservation *model.Reservation, principal model.Principal) error {
	if principal.Role == model.RoleCustomer {
		if reservation.CustomerEmail != principal.Email {
			return apperrors.Forbidden("You do not own this reservation")
		}
		return nil
	}
	return s.authorizeOwner(ctx, principal.Email, reservation.RestaurantID)
}

func (s *reservationService) authorizeOwner(ctx context.Context, ownerEmail, restaurantID string) error {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return s.translateRestaurantError(err, restaurantID)
	}
	if restaurant.OwnerEmail != ownerEmail {
		return apperrors.Forbidden("You do not manage this restaurant")
	}
	return nil
}

func (s *reservationService) sanitizeCreate(create *model.ReservationCreate) {
	create.CustomerName = sanitizer.NormalizeName(create.CustomerName)
	create.CustomerPhone = sanitizer.TrimAndNormalize(create.CustomerPhone)
	create.SpecialRequests = sanitizer.TrimAndNormalize(create.SpecialRequests)
}
