package model

import "time"

// Reservation lifecycle statuses. A reservation is never hard-deleted;
// cancelled and completed are terminal.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Reservation struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty"`
	RestaurantID    string     `json:"restaurant_id" bson:"restaurant_id" validate:"required,mongodb"`
	RestaurantName  string     `json:"restaurant_name" bson:"restaurant_name"`
	CustomerName    string     `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail   string     `json:"customer_email" bson:"customer_email" validate:"required,email"`
	CustomerPhone   string     `json:"customer_phone" bson:"customer_phone" validate:"required,min=7,max=20"`
	Date            string     `json:"date" bson:"date" validate:"required,valid_date"`
	TimeSlot        string     `json:"time_slot" bson:"time_slot" validate:"required,valid_time"`
	NumberOfGuests  int        `json:"number_of_guests" bson:"number_of_guests" validate:"required,min=1,max=100"`
	SeatingAreaID   string     `json:"seating_area_id" bson:"seating_area_id" validate:"required"`
	SeatingAreaName string     `json:"seating_area_name" bson:"seating_area_name"`
	Status          string     `json:"status" bson:"status"`
	SpecialRequests string     `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"omitempty,max=500"`
	CheckedIn       bool       `json:"checked_in" bson:"checked_in"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	Bill            *Bill      `json:"bill,omitempty" bson:"bill,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
}

// SlotTime parses the reservation's date and time slot as a naive UTC
// instant. The cancellation cutoff compares this against UTC now; the
// system carries no per-restaurant timezone.
func (r *Reservation) SlotTime() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", r.Date+" "+r.TimeSlot)
}

// ReservationCreate is the request payload for booking a slot. The
// customer email comes from the authenticated principal, not the body.
type ReservationCreate struct {
	RestaurantID    string `json:"restaurant_id" validate:"required,mongodb"`
	CustomerName    string `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone   string `json:"customer_phone" validate:"required,min=7,max=20"`
	Date            string `json:"date" validate:"required,valid_date"`
	TimeSlot        string `json:"time_slot" validate:"required,valid_time"`
	NumberOfGuests  int    `json:"number_of_guests" validate:"required,min=1,max=100"`
	SeatingAreaID   string `json:"seating_area_id" validate:"required"`
	SpecialRequests string `json:"special_requests,omitempty" validate:"omitempty,max=500"`
}
