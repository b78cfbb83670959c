package model

import "time"

// Discount types accepted on a Deal.
const (
	DiscountPercentage = "percentage"
	DiscountFlatAmount = "flat_amount"
	DiscountBogo       = "bogo"
)

// Deal is a time-boxed, day-scoped discount rule owned by a restaurant.
// DiscountValue is nil for bogo deals. An empty ValidDays means the deal
// applies on every day of the week.
type Deal struct {
	ID            string    `json:"id" bson:"id"`
	Title         string    `json:"title" bson:"title" validate:"required,min=3,max=100"`
	Description   string    `json:"description" bson:"description" validate:"required,min=10,max=500"`
	DiscountType  string    `json:"discount_type" bson:"discount_type" validate:"required,oneof=percentage flat_amount bogo"`
	DiscountValue *float64  `json:"discount_value,omitempty" bson:"discount_value,omitempty"`
	ValidDays     []string  `json:"valid_days,omitempty" bson:"valid_days,omitempty" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	TimeStart     string    `json:"time_start,omitempty" bson:"time_start,omitempty" validate:"omitempty,valid_time"`
	TimeEnd       string    `json:"time_end,omitempty" bson:"time_end,omitempty" validate:"omitempty,valid_time"`
	StartDate     string    `json:"start_date,omitempty" bson:"start_date,omitempty" validate:"omitempty,valid_date"`
	EndDate       string    `json:"end_date,omitempty" bson:"end_date,omitempty" validate:"omitempty,valid_date"`
	IsActive      bool      `json:"is_active" bson:"is_active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// DealUpdate carries the mutable fields of a deal. Nil pointers leave
// the stored value untouched.
type DealUpdate struct {
	Title         string   `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description   string   `json:"description,omitempty" validate:"omitempty,min=10,max=500"`
	DiscountType  string   `json:"discount_type,omitempty" validate:"omitempty,oneof=percentage flat_amount bogo"`
	DiscountValue *float64 `json:"discount_value,omitempty"`
	ValidDays     []string `json:"valid_days,omitempty" validate:"omitempty,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	TimeStart     string   `json:"time_start,omitempty" validate:"omitempty,valid_time"`
	TimeEnd       string   `json:"time_end,omitempty" validate:"omitempty,valid_time"`
	StartDate     string   `json:"start_date,omitempty" validate:"omitempty,valid_date"`
	EndDate       string   `json:"end_date,omitempty" validate:"omitempty,valid_date"`
	IsActive      *bool    `json:"is_active,omitempty"`
}
