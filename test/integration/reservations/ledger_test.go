package integrationtests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mongoMigration "tabletreats/internal/migrations/mongo"
	reservationerrors "tabletreats/internal/reservations/errors"
	"tabletreats/internal/reservations/repository"
	"tabletreats/pkg/client"
	"tabletreats/pkg/config"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"
	"tabletreats/test/common"
)

const LedgerCollection = "timeslots"

func setupLedger(t *testing.T) repository.LedgerRepository {
	t.Helper()

	helper := common.NewMongoHelper(t)
	t.Cleanup(func() { helper.Close(t) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The unique compound index is part of the contract under test;
	// apply the real migrations rather than hand-building it.
	if err := mongoMigration.RunMigration(ctx, helper.Client, helper.DBName); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	helper.CleanCollection(t, LedgerCollection)

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "ledger-integration-tests",
	})

	cfg := &config.Config{
		MongoDatabaseName: helper.DBName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               log,
		Client:            &client.Client{Mongo: helper.Client},
	}

	return repository.NewMongoLedgerRepository(cfg)
}

func ledgerKey(slot string) model.LedgerKey {
	return model.LedgerKey{
		RestaurantID:  "64a000000000000000000001",
		Date:          "2025-06-06",
		TimeSlot:      slot,
		SeatingAreaID: "area-main",
	}
}

func TestLedgerIncrement_BoundedByAreaCapacity(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()
	key := ledgerKey("18:00")

	if err := ledger.Increment(ctx, key, 8, 10); err != nil {
		t.Fatalf("first increment failed: %v", err)
	}

	// 8 + 3 would exceed the capacity of 10.
	err := ledger.Increment(ctx, key, 3, 10)
	if !errors.Is(err, reservationerrors.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got: %v", err)
	}

	if err := ledger.Increment(ctx, key, 2, 10); err != nil {
		t.Fatalf("increment to exactly full failed: %v", err)
	}

	booked, err := ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != 10 {
		t.Fatalf("expected booked=10, got %d", booked)
	}
}

func TestLedgerIncrement_PartyLargerThanArea(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()
	key := ledgerKey("18:30")

	err := ledger.Increment(ctx, key, 12, 10)
	if !errors.Is(err, reservationerrors.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got: %v", err)
	}

	booked, err := ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != 0 {
		t.Fatalf("expected no entry written, got booked=%d", booked)
	}
}

// Racing writers all try to create the first entry for the same slot.
// The unique compound index collapses the duplicates and every
// successful increment must land within capacity.
func TestLedgerIncrement_ConcurrentFirstInsert(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()
	key := ledgerKey("19:00")

	const (
		writers      = 8
		partySize    = 2
		areaCapacity = 10
	)

	var wg sync.WaitGroup
	var successes, rejections int64

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Increment(ctx, key, partySize, areaCapacity)
			switch {
			case err == nil:
				atomic.AddInt64(&successes, 1)
			case errors.Is(err, reservationerrors.ErrCapacityExceeded):
				atomic.AddInt64(&rejections, 1)
			default:
				t.Errorf("unexpected increment error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 5 {
		t.Fatalf("expected exactly 5 parties seated, got %d (rejections=%d)", successes, rejections)
	}

	booked, err := ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != areaCapacity {
		t.Fatalf("expected booked=%d, got %d", areaCapacity, booked)
	}
}

func TestLedgerDecrement_FloorsAtZero(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()
	key := ledgerKey("19:30")

	if err := ledger.Increment(ctx, key, 4, 10); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	if err := ledger.Decrement(ctx, key, 3); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	booked, err := ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != 1 {
		t.Fatalf("expected booked=1, got %d", booked)
	}

	// A drifted counter smaller than the release clamps to zero
	// instead of going negative or failing the cancellation.
	if err := ledger.Decrement(ctx, key, 6); err != nil {
		t.Fatalf("clamping decrement failed: %v", err)
	}
	booked, err = ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != 0 {
		t.Fatalf("expected booked=0 after clamp, got %d", booked)
	}
}

func TestLedgerConcurrentCreateAndCancel(t *testing.T) {
	ledger := setupLedger(t)
	ctx := context.Background()
	key := ledgerKey("20:00")

	const areaCapacity = 20

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Increment(ctx, key, 2, areaCapacity); err == nil {
				_ = ledger.Decrement(ctx, key, 2)
			}
		}()
	}
	wg.Wait()

	booked, err := ledger.Booked(ctx, key)
	if err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if booked != 0 {
		t.Fatalf("expected booked=0 after paired create/cancel, got %d", booked)
	}
}
