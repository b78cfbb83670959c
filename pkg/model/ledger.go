package model

import "time"

// LedgerKey addresses one capacity counter: guests already booked for a
// seating area at one time slot on one date.
type LedgerKey struct {
	RestaurantID  string `bson:"restaurant_id"`
	Date          string `bson:"date"`
	TimeSlot      string `bson:"time_slot"`
	SeatingAreaID string `bson:"seating_area_id"`
}

// LedgerEntry is the stored counter document. Booked never exceeds the
// area capacity and never goes below zero.
type LedgerEntry struct {
	ID            string `json:"id,omitempty" bson:"_id,omitempty"`
	RestaurantID  string `json:"restaurant_id" bson:"restaurant_id"`
	Date          string `json:"date" bson:"date"`
	TimeSlot      string `json:"time_slot" bson:"time_slot"`
	SeatingAreaID string `json:"seating_area_id" bson:"seating_area_id"`
	Booked        int    `json:"booked" bson:"booked"`
}

// SlotLock is an advisory lock serializing reservation writes for one
// ledger key. The _id doubles as the lock identity; a TTL index on
// expires_at reaps abandoned locks.
type SlotLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
