package service

import (
	"context"
	"errors"
	"time"

	"tabletreats/internal/bills"
	"tabletreats/internal/bills/validator"
	reservationerrors "tabletreats/internal/reservations/errors"
	reservationrepo "tabletreats/internal/reservations/repository"
	reservationservice "tabletreats/internal/reservations/service"
	restauranterrors "tabletreats/internal/restaurants/errors"
	"tabletreats/pkg/config"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/model"
	"tabletreats/pkg/sanitizer"

	"github.com/google/uuid"
)

// PaymentReceipt confirms a bill was settled. The transaction ID is
// the bill ID; there is no external payment processor in the loop.
type PaymentReceipt struct {
	TransactionID     string     `json:"transaction_id"`
	ReservationID     string     `json:"reservation_id"`
	Total             float64    `json:"total"`
	PaidAt            *time.Time `json:"paid_at"`
	ReservationStatus string     `json:"reservation_status"`
}

type BillService interface {
	Create(ctx context.Context, ownerEmail string, create *model.BillCreate) (*model.Bill, error)
	Update(ctx context.Context, ownerEmail, reservationID string, update *model.BillUpdate) (*model.Bill, error)
	Get(ctx context.Context, reservationID string, principal model.Principal) (*model.Bill, error)
	MarkPaid(ctx context.Context, customerEmail, reservationID string) (*PaymentReceipt, error)
}

type billService struct {
	reservations reservationrepo.ReservationRepository
	restaurants  reservationservice.RestaurantSource
	validator    *validator.BillValidator
	events       *reservationservice.EventPublisher
	cfg          *config.Config
}

func NewBillService(
	reservations reservationrepo.ReservationRepository,
	restaurants reservationservice.RestaurantSource,
	validator *validator.BillValidator,
	events *reservationservice.EventPublisher,
	cfg *config.Config,
) BillService {
	return &billService{
		reservations: reservations,
		restaurants:  restaurants,
		validator:    validator,
		events:       events,
		cfg:          cfg,
	}
}

// Create attaches a bill to a checked-in reservation. The restaurant's
// deal list prices the discounts; one bill per reservation.
func (s *billService) Create(ctx context.Context, ownerEmail string, create *model.BillCreate) (*model.Bill, error) {
	s.sanitizeItems(create.Items)
	if err := s.validator.ValidateCreate(create); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	reservation, restaurant, err := s.ownedReservation(ctx, create.ReservationID, ownerEmail)
	if err != nil {
		return nil, err
	}

	if reservation.Status == model.StatusCancelled {
		return nil, apperrors.ConflictReason(apperrors.ReasonAlreadyCancelled,
			"Cancelled reservations cannot be billed")
	}
	if !reservation.CheckedIn {
		return nil, apperrors.ConflictReason(apperrors.ReasonNotCheckedIn,
			"A bill requires a checked-in reservation")
	}
	if reservation.Bill != nil {
		return nil, apperrors.ConflictReason(apperrors.ReasonBillExists,
			"Reservation already has a bill")
	}

	bill := bills.Calculate(create.Items, restaurant.Promos, create.TaxRate)
	bill.BillID = uuid.NewString()
	bill.Notes = sanitizer.TrimAndNormalize(create.Notes)

	if err := s.reservations.SetBill(ctx, reservation.ID, bill); err != nil {
		return nil, apperrors.Internal("Failed to attach bill", err)
	}

	s.cfg.Log.Info("Bill created",
		"reservation_id", reservation.ID,
		"bill_id", bill.BillID,
		"total", bill.Total,
	)
	return bill, nil
}

// Update recomputes the bill from scratch. Items, tax rate and notes
// fall back to their stored values when omitted; a paid bill is
// immutable.
func (s *billService) Update(ctx context.Context, ownerEmail, reservationID string, update *model.BillUpdate) (*model.Bill, error) {
	s.sanitizeItems(update.Items)
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	reservation, restaurant, err := s.ownedReservation(ctx, reservationID, ownerEmail)
	if err != nil {
		return nil, err
	}

	existing := reservation.Bill
	if existing == nil {
		return nil, apperrors.NotFound("bill")
	}
	if existing.Paid {
		return nil, apperrors.ConflictReason(apperrors.ReasonBillPaid,
			"Paid bills cannot be changed")
	}

	items := update.Items
	if items == nil {
		items = itemInputs(existing.Items)
	}
	taxRate := existing.TaxRate
	if update.TaxRate != nil {
		taxRate = *update.TaxRate
	}

	bill := bills.Calculate(items, restaurant.Promos, taxRate)
	bill.BillID = existing.BillID
	bill.CreatedAt = existing.CreatedAt
	now := time.Now().UTC().Truncate(time.Millisecond)
	bill.UpdatedAt = &now
	bill.Notes = existing.Notes
	if update.Notes != nil {
		bill.Notes = sanitizer.TrimAndNormalize(*update.Notes)
	}

	if err := s.reservations.SetBill(ctx, reservation.ID, bill); err != nil {
		return nil, apperrors.Internal("Failed to update bill", err)
	}

	s.cfg.Log.Info("Bill updated",
		"reservation_id", reservation.ID,
		"bill_id", bill.BillID,
		"total", bill.Total,
	)
	return bill, nil
}

func (s *billService) Get(ctx context.Context, reservationID string, principal model.Principal) (*model.Bill, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, s.translateReservationError(err, reservationID)
	}

	if principal.Role == model.RoleCustomer {
		if reservation.CustomerEmail != principal.Email {
			return nil, apperrors.Forbidden("You do not own this reservation")
		}
	} else {
		if _, err := s.ownedRestaurant(ctx, reservation.RestaurantID, principal.Email); err != nil {
			return nil, err
		}
	}

	if reservation.Bill == nil {
		return nil, apperrors.NotFound("bill")
	}
	return reservation.Bill, nil
}

// MarkPaid settles the bill and completes the reservation. Paying is
// the booking customer's action, not the restaurant's. The second call
// conflicts; payment is not retried or reversed.
func (s *billService) MarkPaid(ctx context.Context, customerEmail, reservationID string) (*PaymentReceipt, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, s.translateReservationError(err, reservationID)
	}
	if reservation.CustomerEmail != customerEmail {
		return nil, apperrors.Forbidden("You do not own this reservation")
	}

	bill := reservation.Bill
	if bill == nil {
		return nil, apperrors.NotFound("bill")
	}
	if bill.Paid {
		return nil, apperrors.ConflictReason(apperrors.ReasonAlreadyPaid,
			"Bill has already been paid")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := s.reservations.MarkBillPaid(ctx, reservation.ID, now); err != nil {
		return nil, apperrors.Internal("Failed to mark bill paid", err)
	}

	bill.Paid = true
	bill.PaidAt = &now
	reservation.Status = model.StatusCompleted

	s.cfg.Log.Info("Bill paid",
		"reservation_id", reservation.ID,
		"bill_id", bill.BillID,
		"total", bill.Total,
	)
	s.events.BillPaid(ctx, reservation)

	return &PaymentReceipt{
		TransactionID:     bill.BillID,
		ReservationID:     reservation.ID,
		Total:             bill.Total,
		PaidAt:            &now,
		ReservationStatus: model.StatusCompleted,
	}, nil
}

func (s *billService) ownedReservation(ctx context.Context, reservationID, ownerEmail string) (*model.Reservation, *model.Restaurant, error) {
	reservation, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, nil, s.translateReservationError(err, reservationID)
	}

	restaurant, err := s.ownedRestaurant(ctx, reservation.RestaurantID, ownerEmail)
	if err != nil {
		return nil, nil, err
	}

	return reservation, restaurant, nil
}

func (s *billService) ownedRestaurant(ctx context.Context, restaurantID, ownerEmail string) (*model.Restaurant, error) {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, restauranterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("restaurant", restaurantID)
		}
		return nil, apperrors.Internal("Restaurant lookup failed", err)
	}
	if restaurant.OwnerEmail != ownerEmail {
		return nil, apperrors.Forbidden("You do not manage this restaurant")
	}
	return restaurant, nil
}

func (s *billService) translateReservationError(err error, id string) error {
	switch {
	case errors.Is(err, reservationerrors.ErrNotFound):
		return apperrors.NotFoundWithID("reservation", id)
	case errors.Is(err, reservationerrors.ErrInvalidID):
		return apperrors.InvalidInput("reservation ID must be a valid ObjectID")
	default:
		return apperrors.Internal("Reservation lookup failed", err)
	}
}

func (s *billService) sanitizeItems(items []model.BillItemInput) {
	for i := range items {
		items[i].DishName = sanitizer.TrimAndNormalize(items[i].DishName)
	}
}

func itemInputs(items []model.BillItem) []model.BillItemInput {
	inputs := make([]model.BillItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, model.BillItemInput{
			DishName:  item.DishName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			PromoID:   item.PromoID,
		})
	}
	return inputs
}
