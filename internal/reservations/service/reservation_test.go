package service

import (
	"context"
	"testing"
	"time"

	reservationerrors "tabletreats/internal/reservations/errors"
	reservationvalidator "tabletreats/internal/reservations/validator"
	restauranterrors "tabletreats/internal/restaurants/errors"
	"tabletreats/pkg/config"
	mongotx "tabletreats/pkg/db/mongo"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReservationRepository struct {
	createFunc       func(ctx context.Context, reservation *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	setStatusFunc    func(ctx context.Context, id, status string) error
	setCheckInFunc   func(ctx context.Context, id string, checkedIn bool, at *time.Time) error
	setBillFunc      func(ctx context.Context, id string, bill *model.Bill) error
	markBillPaidFunc func(ctx context.Context, id string, paidAt time.Time) error
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reservation)
	}
	reservation.ID = "64b000000000000000000001"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationerrors.ErrNotFound
}

func (m *mockReservationRepository) FindByCustomer(ctx context.Context, email string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByCustomer(ctx context.Context, email string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindByRestaurantAndDate(ctx context.Context, restaurantID, date string) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) SetStatus(ctx context.Context, id, status string) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) SetCheckIn(ctx context.Context, id string, checkedIn bool, at *time.Time) error {
	if m.setCheckInFunc != nil {
		return m.setCheckInFunc(ctx, id, checkedIn, at)
	}
	return nil
}

func (m *mockReservationRepository) SetBill(ctx context.Context, id string, bill *model.Bill) error {
	if m.setBillFunc != nil {
		return m.setBillFunc(ctx, id, bill)
	}
	return nil
}

func (m *mockReservationRepository) MarkBillPaid(ctx context.Context, id string, paidAt time.Time) error {
	if m.markBillPaidFunc != nil {
		return m.markBillPaidFunc(ctx, id, paidAt)
	}
	return nil
}

func (m *mockReservationRepository) TotalGuests(ctx context.Context, restaurantID, date string) (int, error) {
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLedgerRepository struct {
	bookedForSlotFunc func(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error)
	bookedByDateFunc  func(ctx context.Context, restaurantID, date string) (map[string]int, error)
	incrementFunc     func(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error
	decrementFunc     func(ctx context.Context, key model.LedgerKey, guests int) error
}

func (m *mockLedgerRepository) Booked(ctx context.Context, key model.LedgerKey) (int, error) {
	return 0, nil
}

func (m *mockLedgerRepository) BookedForSlot(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error) {
	if m.bookedForSlotFunc != nil {
		return m.bookedForSlotFunc(ctx, restaurantID, date, timeSlot)
	}
	return map[string]int{}, nil
}

func (m *mockLedgerRepository) BookedByDate(ctx context.Context, restaurantID, date string) (map[string]int, error) {
	if m.bookedByDateFunc != nil {
		return m.bookedByDateFunc(ctx, restaurantID, date)
	}
	return map[string]int{}, nil
}

func (m *mockLedgerRepository) Increment(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error {
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, key, guests, areaCapacity)
	}
	return nil
}

func (m *mockLedgerRepository) Decrement(ctx context.Context, key model.LedgerKey, guests int) error {
	if m.decrementFunc != nil {
		return m.decrementFunc(ctx, key, guests)
	}
	return nil
}

type mockSlotLockRepository struct {
	acquireFunc func(ctx context.Context, key model.LedgerKey, ttl time.Duration) (string, error)
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, key model.LedgerKey, ttl time.Duration) (string, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, key, ttl)
	}
	return "lock-1", nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, lockID string) error {
	return nil
}

type mockRestaurantSource struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Restaurant, error)
}

func (m *mockRestaurantSource) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, restauranterrors.ErrNotFound
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                 testLogger(),
		SlotIntervalMinutes: 30,
		SlotLockTTL:         10 * time.Second,
	}
}

type testDeps struct {
	repo        *mockReservationRepository
	ledger      *mockLedgerRepository
	locks       *mockSlotLockRepository
	restaurants *mockRestaurantSource
}

func newTestService(deps testDeps) ReservationService {
	log := testLogger()
	if deps.repo == nil {
		deps.repo = &mockReservationRepository{}
	}
	if deps.ledger == nil {
		deps.ledger = &mockLedgerRepository{}
	}
	if deps.locks == nil {
		deps.locks = &mockSlotLockRepository{}
	}
	if deps.restaurants == nil {
		deps.restaurants = &mockRestaurantSource{}
	}
	return NewReservationService(
		deps.repo,
		deps.ledger,
		deps.locks,
		deps.restaurants,
		nil,
		reservationvalidator.NewReservationValidator(log),
		NewEventPublisher(nil, log),
		testConfig(),
	)
}

func bistro() *model.Restaurant {
	return &model.Restaurant{
		ID:             "64a000000000000000000001",
		OwnerEmail:     "owner@bistro.test",
		RestaurantName: "The Test Bistro",
		Hours: map[string]model.DayHours{
			"friday": {Open: "17:00", Close: "22:00"},
		},
		SeatingConfig: model.SeatingConfig{
			SeatingAreas: []model.SeatingArea{
				{ID: "area-main", AreaName: "Main Hall", AreaType: "indoor", SeatsPerTable: 4, NumberOfTables: 5, AreaCapacity: 20},
				{ID: "area-bar", AreaName: "Bar", AreaType: "indoor", SeatsPerTable: 2, NumberOfTables: 2, AreaCapacity: 4},
			},
			TotalCapacity: 24,
		},
	}
}

func bistroSource() *mockRestaurantSource {
	return &mockRestaurantSource{
		findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
			return bistro(), nil
		},
	}
}

func availabilityCheck(guests int) *model.AvailabilityCheck {
	return &model.AvailabilityCheck{
		RestaurantID:   "64a000000000000000000001",
		Date:           "2025-06-06", // a Friday
		TimeSlot:       "18:00",
		NumberOfGuests: guests,
	}
}

func TestCheckAvailability_AreaFitsParty(t *testing.T) {
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		ledger: &mockLedgerRepository{
			bookedForSlotFunc: func(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error) {
				return map[string]int{"area-main": 8}, nil
			},
		},
	})

	result, err := svc.CheckAvailability(context.Background(), availabilityCheck(6))
	require.NoError(t, err)

	assert.True(t, result.Available)
	assert.Equal(t, 24, result.TotalCapacity)
	assert.Equal(t, 8, result.Booked)

	require.Len(t, result.AvailableSeatingAreas, 1)
	area := result.AvailableSeatingAreas[0]
	assert.Equal(t, "area-main", area.AreaID)
	assert.Equal(t, 12, area.RemainingCapacity)
	assert.Equal(t, 3, area.AvailableTables)
}

func TestCheckAvailability_PartyNeverSplit(t *testing.T) {
	// 13 guests fit no single area once the main hall is down to 12
	// seats, even though 16 seats remain across the floor.
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		ledger: &mockLedgerRepository{
			bookedForSlotFunc: func(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error) {
				return map[string]int{"area-main": 8}, nil
			},
		},
	})

	result, err := svc.CheckAvailability(context.Background(), availabilityCheck(13))
	require.NoError(t, err)

	assert.False(t, result.Available)
	assert.Equal(t, 16, result.RemainingCapacity)
	assert.Empty(t, result.AvailableSeatingAreas)
}

func TestCheckAvailability_ClosedDay(t *testing.T) {
	svc := newTestService(testDeps{restaurants: bistroSource()})

	check := availabilityCheck(2)
	check.Date = "2025-06-07" // Saturday, not in the hours map

	result, err := svc.CheckAvailability(context.Background(), check)
	require.NoError(t, err)

	assert.False(t, result.Available)
	assert.Equal(t, ReasonClosed, result.Reason)
}

func TestCheckAvailability_OutsideHours(t *testing.T) {
	svc := newTestService(testDeps{restaurants: bistroSource()})

	check := availabilityCheck(2)
	check.TimeSlot = "12:00"

	result, err := svc.CheckAvailability(context.Background(), check)
	require.NoError(t, err)

	assert.False(t, result.Available)
	assert.Equal(t, ReasonOutsideHours, result.Reason)
}

func TestDailyAvailability_AggregatesPerSlot(t *testing.T) {
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		ledger: &mockLedgerRepository{
			bookedByDateFunc: func(ctx context.Context, restaurantID, date string) (map[string]int, error) {
				return map[string]int{"18:00": 24, "19:00": 10}, nil
			},
		},
	})

	rows, err := svc.DailyAvailability(context.Background(), "64a000000000000000000001", "2025-06-06")
	require.NoError(t, err)

	// 17:00 through 21:30 at 30-minute intervals.
	require.Len(t, rows, 10)

	bySlot := make(map[string]model.SlotAvailability, len(rows))
	for _, row := range rows {
		bySlot[row.TimeSlot] = row
	}

	full := bySlot["18:00"]
	assert.False(t, full.Available)
	assert.Equal(t, 0, full.RemainingCapacity)
	assert.Equal(t, 24, full.Booked)

	partial := bySlot["19:00"]
	assert.True(t, partial.Available)
	assert.Equal(t, 14, partial.RemainingCapacity)

	empty := bySlot["17:00"]
	assert.True(t, empty.Available)
	assert.Equal(t, 24, empty.RemainingCapacity)
	assert.Equal(t, 0, empty.Booked)
}

func reservationCreate() *model.ReservationCreate {
	return &model.ReservationCreate{
		RestaurantID:   "64a000000000000000000001",
		CustomerName:   "Dana Diner",
		CustomerPhone:  "+12025550123",
		Date:           "2025-06-06",
		TimeSlot:       "18:00",
		NumberOfGuests: 4,
		SeatingAreaID:  "area-main",
	}
}

func TestCreate_Success(t *testing.T) {
	var incremented model.LedgerKey
	var incGuests int
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		ledger: &mockLedgerRepository{
			incrementFunc: func(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error {
				incremented = key
				incGuests = guests
				return nil
			},
		},
	})

	reservation, err := svc.Create(context.Background(), "dana@diner.test", reservationCreate())
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, reservation.Status)
	assert.Equal(t, "dana@diner.test", reservation.CustomerEmail)
	assert.Equal(t, "The Test Bistro", reservation.RestaurantName)
	assert.Equal(t, "Main Hall", reservation.SeatingAreaName)
	assert.Equal(t, 4, incGuests)
	assert.Equal(t, "area-main", incremented.SeatingAreaID)
	assert.Equal(t, "2025-06-06", incremented.Date)
}

func TestCreate_LedgerRejectionSurfacesSlotUnavailable(t *testing.T) {
	var statusWrites int
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			setStatusFunc: func(ctx context.Context, id, status string) error {
				statusWrites++
				return nil
			},
		},
		ledger: &mockLedgerRepository{
			incrementFunc: func(ctx context.Context, key model.LedgerKey, guests, areaCapacity int) error {
				return reservationerrors.ErrCapacityExceeded
			},
		},
	})

	_, err := svc.Create(context.Background(), "dana@diner.test", reservationCreate())
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, apperrors.ReasonSlotUnavailable, appErr.Reason())
	assert.Zero(t, statusWrites)
}

func TestCreate_SlotLockHeld(t *testing.T) {
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		locks: &mockSlotLockRepository{
			acquireFunc: func(ctx context.Context, key model.LedgerKey, ttl time.Duration) (string, error) {
				return "", reservationerrors.ErrLockHeld
			},
		},
	})

	_, err := svc.Create(context.Background(), "dana@diner.test", reservationCreate())
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonSlotLocked, apperrors.AsAppError(err).Reason())
}

func TestCreate_FullAreaRejectedBeforeWrite(t *testing.T) {
	var created int
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				created++
				return nil
			},
		},
		ledger: &mockLedgerRepository{
			bookedForSlotFunc: func(ctx context.Context, restaurantID, date, timeSlot string) (map[string]int, error) {
				return map[string]int{"area-main": 20, "area-bar": 4}, nil
			},
		},
	})

	_, err := svc.Create(context.Background(), "dana@diner.test", reservationCreate())
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonSlotUnavailable, apperrors.AsAppError(err).Reason())
	assert.Zero(t, created)
}

func confirmedReservation() *model.Reservation {
	return &model.Reservation{
		ID:             "64b000000000000000000001",
		RestaurantID:   "64a000000000000000000001",
		CustomerEmail:  "dana@diner.test",
		Date:           "2999-06-06",
		TimeSlot:       "18:00",
		NumberOfGuests: 4,
		SeatingAreaID:  "area-main",
		Status:         model.StatusConfirmed,
	}
}

func TestCancel_ReleasesCapacity(t *testing.T) {
	var decremented model.LedgerKey
	var decGuests int
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return confirmedReservation(), nil
			},
		},
		ledger: &mockLedgerRepository{
			decrementFunc: func(ctx context.Context, key model.LedgerKey, guests int) error {
				decremented = key
				decGuests = guests
				return nil
			},
		},
	})

	err := svc.Cancel(context.Background(), "64b000000000000000000001", "dana@diner.test")
	require.NoError(t, err)

	assert.Equal(t, 4, decGuests)
	assert.Equal(t, "area-main", decremented.SeatingAreaID)
}

func TestCancel_Conflicts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.Reservation)
		reason string
	}{
		{
			"already cancelled",
			func(r *model.Reservation) { r.Status = model.StatusCancelled },
			apperrors.ReasonAlreadyCancelled,
		},
		{
			"checked in",
			func(r *model.Reservation) { r.CheckedIn = true },
			apperrors.ReasonAlreadyCheckedIn,
		},
		{
			"cutoff passed",
			func(r *model.Reservation) { r.Date = "2020-01-01" },
			apperrors.ReasonCutoffPassed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reservation := confirmedReservation()
			tt.mutate(reservation)

			svc := newTestService(testDeps{
				restaurants: bistroSource(),
				repo: &mockReservationRepository{
					findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
						return reservation, nil
					},
				},
			})

			err := svc.Cancel(context.Background(), reservation.ID, "dana@diner.test")
			require.Error(t, err)
			assert.Equal(t, tt.reason, apperrors.AsAppError(err).Reason())
		})
	}
}

func TestCancel_WrongCustomer(t *testing.T) {
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return confirmedReservation(), nil
			},
		},
	})

	err := svc.Cancel(context.Background(), "64b000000000000000000001", "other@diner.test")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}

func TestCheckIn_ThenUndo(t *testing.T) {
	stored := confirmedReservation()
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				copied := *stored
				return &copied, nil
			},
			setCheckInFunc: func(ctx context.Context, id string, checkedIn bool, at *time.Time) error {
				stored.CheckedIn = checkedIn
				stored.CheckedInAt = at
				return nil
			},
		},
	})

	checked, err := svc.CheckIn(context.Background(), stored.ID, "owner@bistro.test")
	require.NoError(t, err)
	assert.True(t, checked.CheckedIn)
	require.NotNil(t, checked.CheckedInAt)

	undone, err := svc.UndoCheckIn(context.Background(), stored.ID, "owner@bistro.test")
	require.NoError(t, err)
	assert.False(t, undone.CheckedIn)
	assert.Nil(t, undone.CheckedInAt)
}

func TestCheckIn_AlreadyCheckedIn(t *testing.T) {
	reservation := confirmedReservation()
	reservation.CheckedIn = true

	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return reservation, nil
			},
		},
	})

	_, err := svc.CheckIn(context.Background(), reservation.ID, "owner@bistro.test")
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonAlreadyCheckedIn, apperrors.AsAppError(err).Reason())
}

func TestUndoCheckIn_BlockedByBill(t *testing.T) {
	reservation := confirmedReservation()
	reservation.CheckedIn = true
	reservation.Bill = &model.Bill{BillID: "bill-1"}

	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return reservation, nil
			},
		},
	})

	_, err := svc.UndoCheckIn(context.Background(), reservation.ID, "owner@bistro.test")
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonBillExists, apperrors.AsAppError(err).Reason())
}

func TestCheckIn_WrongOwner(t *testing.T) {
	svc := newTestService(testDeps{
		restaurants: bistroSource(),
		repo: &mockReservationRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
				return confirmedReservation(), nil
			},
		},
	})

	_, err := svc.CheckIn(context.Background(), "64b000000000000000000001", "stranger@evil.test")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}
