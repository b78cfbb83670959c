package service

import (
	"context"
	"testing"
	"time"

	"tabletreats/internal/bills/validator"
	reservationerrors "tabletreats/internal/reservations/errors"
	reservationservice "tabletreats/internal/reservations/service"
	"tabletreats/pkg/config"
	mongotx "tabletreats/pkg/db/mongo"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReservationRepository struct {
	reservation *model.Reservation
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.reservation == nil {
		return nil, reservationerrors.ErrNotFound
	}
	copied := *m.reservation
	return &copied, nil
}

func (m *mockReservationRepository) FindByCustomer(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) CountByCustomer(ctx context.Context, email string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindByRestaurantAndDate(ctx context.Context, restaurantID, date string) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) SetStatus(ctx context.Context, id, status string) error {
	m.reservation.Status = status
	return nil
}

func (m *mockReservationRepository) SetCheckIn(ctx context.Context, id string, checkedIn bool, at *time.Time) error {
	return nil
}

func (m *mockReservationRepository) SetBill(ctx context.Context, id string, bill *model.Bill) error {
	m.reservation.Bill = bill
	return nil
}

func (m *mockReservationRepository) MarkBillPaid(ctx context.Context, id string, paidAt time.Time) error {
	m.reservation.Bill.Paid = true
	m.reservation.Bill.PaidAt = &paidAt
	m.reservation.Status = model.StatusCompleted
	return nil
}

func (m *mockReservationRepository) TotalGuests(ctx context.Context, restaurantID, date string) (int, error) {
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockRestaurantSource struct {
	restaurant *model.Restaurant
}

func (m *mockRestaurantSource) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return m.restaurant, nil
}

func floatPtr(v float64) *float64 {
	return &v
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func checkedInReservation() *model.Reservation {
	now := time.Now().UTC()
	return &model.Reservation{
		ID:            "64b000000000000000000001",
		RestaurantID:  "64a000000000000000000001",
		CustomerEmail: "dana@diner.test",
		Status:        model.StatusConfirmed,
		CheckedIn:     true,
		CheckedInAt:   &now,
	}
}

func dealRestaurant() *model.Restaurant {
	return &model.Restaurant{
		ID:         "64a000000000000000000001",
		OwnerEmail: "owner@bistro.test",
		Promos: []model.Deal{
			{ID: "promo-20", DiscountType: model.DiscountPercentage, DiscountValue: floatPtr(20), IsActive: true},
		},
	}
}

func newTestService(repo *mockReservationRepository) BillService {
	log := testLogger()
	return NewBillService(
		repo,
		&mockRestaurantSource{restaurant: dealRestaurant()},
		validator.NewBillValidator(log),
		reservationservice.NewEventPublisher(nil, log),
		&config.Config{Log: log},
	)
}

func billCreate() *model.BillCreate {
	return &model.BillCreate{
		ReservationID: "64b000000000000000000001",
		Items: []model.BillItemInput{
			{DishName: "Pasta", Quantity: 2, UnitPrice: 10, PromoID: "promo-20"},
			{DishName: "Steak", Quantity: 1, UnitPrice: 15},
		},
		TaxRate: 8,
	}
}

func TestCreateBill_AppliesDealsAndTax(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	bill, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)

	assert.NotEmpty(t, bill.BillID)
	assert.Equal(t, 33.48, bill.Total)
	assert.Equal(t, 4.0, bill.DiscountTotal)
	require.NotNil(t, repo.reservation.Bill)
	assert.Equal(t, bill.BillID, repo.reservation.Bill.BillID)
}

func TestCreateBill_RequiresCheckIn(t *testing.T) {
	reservation := checkedInReservation()
	reservation.CheckedIn = false
	svc := newTestService(&mockReservationRepository{reservation: reservation})

	_, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonNotCheckedIn, apperrors.AsAppError(err).Reason())
}

func TestCreateBill_OnePerReservation(t *testing.T) {
	reservation := checkedInReservation()
	reservation.Bill = &model.Bill{BillID: "bill-1"}
	svc := newTestService(&mockReservationRepository{reservation: reservation})

	_, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonBillExists, apperrors.AsAppError(err).Reason())
}

func TestCreateBill_WrongOwner(t *testing.T) {
	svc := newTestService(&mockReservationRepository{reservation: checkedInReservation()})

	_, err := svc.Create(context.Background(), "stranger@evil.test", billCreate())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestUpdateBill_RecomputesFromScratch(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)

	newTax := 10.0
	updated, err := svc.Update(context.Background(), "owner@bistro.test", "64b000000000000000000001", &model.BillUpdate{
		TaxRate: &newTax,
	})
	require.NoError(t, err)

	assert.Equal(t, created.BillID, updated.BillID)
	assert.Equal(t, 31.0, updated.SubtotalAfterDiscount)
	assert.Equal(t, 3.1, updated.TaxAmount)
	assert.Equal(t, 34.1, updated.Total)
	require.NotNil(t, updated.UpdatedAt)
}

func TestUpdateBill_BlockedOncePaid(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), "dana@diner.test", "64b000000000000000000001")
	require.NoError(t, err)

	newTax := 10.0
	_, err = svc.Update(context.Background(), "owner@bistro.test", "64b000000000000000000001", &model.BillUpdate{
		TaxRate: &newTax,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonBillPaid, apperrors.AsAppError(err).Reason())
}

func TestMarkPaid_IdempotencyGuard(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	bill, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, repo.reservation.Status)

	receipt, err := svc.MarkPaid(context.Background(), "dana@diner.test", "64b000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, bill.BillID, receipt.TransactionID)
	assert.Equal(t, model.StatusCompleted, receipt.ReservationStatus)
	assert.Equal(t, model.StatusCompleted, repo.reservation.Status)

	_, err = svc.MarkPaid(context.Background(), "dana@diner.test", "64b000000000000000000001")
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonAlreadyPaid, apperrors.AsAppError(err).Reason())
}

func TestMarkPaid_CustomerOwnsPayment(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)

	// Paying the bill belongs to the booking customer, not the
	// restaurant or anyone else.
	_, err = svc.MarkPaid(context.Background(), "owner@bistro.test", "64b000000000000000000001")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)

	_, err = svc.MarkPaid(context.Background(), "other@diner.test", "64b000000000000000000001")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)

	receipt, err := svc.MarkPaid(context.Background(), "dana@diner.test", "64b000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, receipt.ReservationStatus)
}

func TestGetBill_CustomerAndOwnerAccess(t *testing.T) {
	repo := &mockReservationRepository{reservation: checkedInReservation()}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "owner@bistro.test", billCreate())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "64b000000000000000000001", model.Principal{
		Email: "dana@diner.test", Role: model.RoleCustomer,
	})
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "64b000000000000000000001", model.Principal{
		Email: "owner@bistro.test", Role: model.RoleRestaurant,
	})
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "64b000000000000000000001", model.Principal{
		Email: "other@diner.test", Role: model.RoleCustomer,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestGetBill_NoBill(t *testing.T) {
	svc := newTestService(&mockReservationRepository{reservation: checkedInReservation()})

	_, err := svc.Get(context.Background(), "64b000000000000000000001", model.Principal{
		Email: "dana@diner.test", Role: model.RoleCustomer,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}
