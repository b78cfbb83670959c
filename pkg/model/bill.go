package model

import "time"

// BillItem is a single line on a bill. Subtotal, DiscountAmount and
// FinalAmount are computed, never accepted from the caller.
type BillItem struct {
	ItemID         string   `json:"item_id" bson:"item_id"`
	DishName       string   `json:"dish_name" bson:"dish_name" validate:"required,min=1,max=100"`
	Quantity       int      `json:"quantity" bson:"quantity" validate:"required,min=1,max=100"`
	UnitPrice      float64  `json:"unit_price" bson:"unit_price" validate:"required,gt=0"`
	PromoID        string   `json:"promo_id,omitempty" bson:"promo_id,omitempty"`
	Subtotal       float64  `json:"subtotal" bson:"subtotal"`
	DiscountAmount float64  `json:"discount_amount" bson:"discount_amount"`
	FinalAmount    float64  `json:"final_amount" bson:"final_amount"`
	DealApplied    *Deal    `json:"deal_applied,omitempty" bson:"deal_applied,omitempty"`
}

// Bill is embedded in its reservation. One bill per reservation; Paid
// is terminal and blocks further updates.
type Bill struct {
	BillID                string     `json:"bill_id" bson:"bill_id"`
	Items                 []BillItem `json:"items" bson:"items"`
	Subtotal              float64    `json:"subtotal" bson:"subtotal"`
	DiscountTotal         float64    `json:"discount_total" bson:"discount_total"`
	SubtotalAfterDiscount float64    `json:"subtotal_after_discount" bson:"subtotal_after_discount"`
	TaxRate               float64    `json:"tax_rate" bson:"tax_rate"`
	TaxAmount             float64    `json:"tax_amount" bson:"tax_amount"`
	Total                 float64    `json:"total" bson:"total"`
	Notes                 string     `json:"notes,omitempty" bson:"notes,omitempty"`
	Paid                  bool       `json:"paid" bson:"paid"`
	PaidAt                *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// BillItemInput is a requested line item before calculation.
type BillItemInput struct {
	DishName  string  `json:"dish_name" validate:"required,min=1,max=100"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=100"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
	PromoID   string  `json:"promo_id,omitempty"`
}

// BillCreate is the payload for attaching a bill to a checked-in
// reservation.
type BillCreate struct {
	ReservationID string          `json:"reservation_id" validate:"required,mongodb"`
	Items         []BillItemInput `json:"items" validate:"required,min=1,dive"`
	TaxRate       float64         `json:"tax_rate" validate:"min=0,max=100"`
	Notes         string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// BillUpdate replaces items and/or tax rate; totals are recomputed from
// scratch on every update.
type BillUpdate struct {
	Items   []BillItemInput `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	TaxRate *float64        `json:"tax_rate,omitempty" validate:"omitempty,min=0,max=100"`
	Notes   *string         `json:"notes,omitempty"`
}
