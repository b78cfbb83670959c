package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrCapacityExceeded means the conditional ledger update could not
	// apply without pushing booked over the area capacity.
	ErrCapacityExceeded = errors.New("seating area capacity exceeded")

	// ErrLockHeld means another writer holds the advisory lock for the
	// same slot.
	ErrLockHeld = errors.New("slot lock already held")
)
