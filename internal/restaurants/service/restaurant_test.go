package service

import (
	"context"
	"testing"

	restauranterrors "tabletreats/internal/restaurants/errors"
	"tabletreats/internal/restaurants/repository"
	restaurantvalidator "tabletreats/internal/restaurants/validator"
	"tabletreats/pkg/config"
	apperrors "tabletreats/pkg/errors"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRestaurantRepository struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Restaurant, error)
	findByOwnerFunc   func(ctx context.Context, email string) (*model.Restaurant, error)
	updateHoursFunc   func(ctx context.Context, id string, hours map[string]model.DayHours) error
	updateSeatingFunc func(ctx context.Context, id string, cfg model.SeatingConfig) error
	addPromoFunc      func(ctx context.Context, id string, deal model.Deal) error
	replacePromoFunc  func(ctx context.Context, id string, deal model.Deal) error
	removePromoFunc   func(ctx context.Context, id string, promoID string) error
}

func (m *mockRestaurantRepository) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, restauranterrors.ErrNotFound
}

func (m *mockRestaurantRepository) FindByOwnerEmail(ctx context.Context, email string) (*model.Restaurant, error) {
	if m.findByOwnerFunc != nil {
		return m.findByOwnerFunc(ctx, email)
	}
	return nil, restauranterrors.ErrNotFound
}

func (m *mockRestaurantRepository) List(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Restaurant, error) {
	return []*model.Restaurant{}, nil
}

func (m *mockRestaurantRepository) Count(ctx context.Context, filter repository.ListFilter) (int64, error) {
	return 0, nil
}

func (m *mockRestaurantRepository) UpdateHours(ctx context.Context, id string, hours map[string]model.DayHours) error {
	if m.updateHoursFunc != nil {
		return m.updateHoursFunc(ctx, id, hours)
	}
	return nil
}

func (m *mockRestaurantRepository) UpdateSeatingConfig(ctx context.Context, id string, cfg model.SeatingConfig) error {
	if m.updateSeatingFunc != nil {
		return m.updateSeatingFunc(ctx, id, cfg)
	}
	return nil
}

func (m *mockRestaurantRepository) AddPromo(ctx context.Context, id string, deal model.Deal) error {
	if m.addPromoFunc != nil {
		return m.addPromoFunc(ctx, id, deal)
	}
	return nil
}

func (m *mockRestaurantRepository) ReplacePromo(ctx context.Context, id string, deal model.Deal) error {
	if m.replacePromoFunc != nil {
		return m.replacePromoFunc(ctx, id, deal)
	}
	return nil
}

func (m *mockRestaurantRepository) RemovePromo(ctx context.Context, id string, promoID string) error {
	if m.removePromoFunc != nil {
		return m.removePromoFunc(ctx, id, promoID)
	}
	return nil
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
	}
}

func newTestService(repo repository.RestaurantRepository) RestaurantService {
	return NewRestaurantService(repo, restaurantvalidator.NewRestaurantValidator(testLogger()), nil, testConfig())
}

func openRestaurant() *model.Restaurant {
	return &model.Restaurant{
		ID:         "64a000000000000000000001",
		OwnerEmail: "owner@bistro.test",
		Hours: map[string]model.DayHours{
			"friday": {Open: "09:00", Close: "11:00"},
		},
	}
}

func TestHoursForDate_OpenDay(t *testing.T) {
	repo := &mockRestaurantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
			return openRestaurant(), nil
		},
	}
	svc := newTestService(repo)

	// 2025-06-06 is a Friday.
	info, err := svc.HoursForDate(context.Background(), "64a000000000000000000001", "2025-06-06")
	require.NoError(t, err)

	assert.False(t, info.Closed)
	assert.Equal(t, "friday", info.Day)
	assert.Equal(t, "09:00", info.Open)
	assert.Equal(t, "11:00", info.Close)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, info.AvailableSlots)
}

func TestHoursForDate_MissingDayIsClosed(t *testing.T) {
	repo := &mockRestaurantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
			return openRestaurant(), nil
		},
	}
	svc := newTestService(repo)

	// 2025-06-07 is a Saturday, absent from the hours map.
	info, err := svc.HoursForDate(context.Background(), "64a000000000000000000001", "2025-06-07")
	require.NoError(t, err)

	assert.True(t, info.Closed)
	assert.Equal(t, "saturday", info.Day)
	assert.Empty(t, info.AvailableSlots)
}

func TestHoursForDate_InvalidDate(t *testing.T) {
	svc := newTestService(&mockRestaurantRepository{})

	_, err := svc.HoursForDate(context.Background(), "64a000000000000000000001", "June 6th")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
}

func TestHoursForDate_RestaurantNotFound(t *testing.T) {
	svc := newTestService(&mockRestaurantRepository{})

	_, err := svc.HoursForDate(context.Background(), "64a000000000000000000099", "2025-06-06")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}

func TestUpdateSeatingConfig_RecomputesDerivedCapacity(t *testing.T) {
	var saved model.SeatingConfig
	repo := &mockRestaurantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
			return openRestaurant(), nil
		},
		updateSeatingFunc: func(ctx context.Context, id string, cfg model.SeatingConfig) error {
			saved = cfg
			return nil
		},
	}
	svc := newTestService(repo)

	seating := &model.SeatingConfig{
		SeatingAreas: []model.SeatingArea{
			{AreaName: "Patio", AreaType: "outdoor", SeatsPerTable: 4, NumberOfTables: 5, AreaCapacity: 999},
			{AreaName: "Main Hall", AreaType: "indoor", SeatsPerTable: 2, NumberOfTables: 10},
		},
		TotalCapacity: 12345,
	}

	err := svc.UpdateSeatingConfig(context.Background(), "64a000000000000000000001", "owner@bistro.test", seating)
	require.NoError(t, err)

	require.Len(t, saved.SeatingAreas, 2)
	assert.Equal(t, 20, saved.SeatingAreas[0].AreaCapacity)
	assert.Equal(t, 20, saved.SeatingAreas[1].AreaCapacity)
	assert.Equal(t, 40, saved.TotalCapacity)
	assert.NotEmpty(t, saved.SeatingAreas[0].ID)
}

func TestUpdateSeatingConfig_WrongOwner(t *testing.T) {
	repo := &mockRestaurantRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
			return openRestaurant(), nil
		},
	}
	svc := newTestService(repo)

	err := svc.UpdateSeatingConfig(context.Background(), "64a000000000000000000001", "stranger@evil.test", &model.SeatingConfig{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}
