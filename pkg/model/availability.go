package model

// HoursInfo is the resolved operating window for one calendar date.
type HoursInfo struct {
	Closed         bool     `json:"closed"`
	Day            string   `json:"day"`
	Open           string   `json:"open,omitempty"`
	Close          string   `json:"close,omitempty"`
	AvailableSlots []string `json:"available_slots,omitempty"`
}

// AreaAvailability reports one seating area that can take the party.
type AreaAvailability struct {
	AreaID            string `json:"area_id"`
	AreaName          string `json:"area_name"`
	AreaType          string `json:"area_type"`
	SeatsPerTable     int    `json:"seats_per_table"`
	AvailableTables   int    `json:"available_tables"`
	AreaCapacity      int    `json:"area_capacity"`
	RemainingCapacity int    `json:"remaining_capacity"`
}

// AvailabilityResult answers "can N guests be seated at slot T on date
// D". Available is true iff at least one area fits the whole party.
type AvailabilityResult struct {
	Available             bool               `json:"available"`
	Reason                string             `json:"reason,omitempty"`
	RemainingCapacity     int                `json:"remaining_capacity"`
	TotalCapacity         int                `json:"total_capacity"`
	Booked                int                `json:"booked"`
	AvailableSeatingAreas []AreaAvailability `json:"available_seating_areas"`
}

// SlotAvailability is one row of the daily availability listing,
// aggregated across all seating areas.
type SlotAvailability struct {
	TimeSlot          string `json:"time_slot"`
	Available         bool   `json:"available"`
	RemainingCapacity int    `json:"remaining_capacity"`
	TotalCapacity     int    `json:"total_capacity"`
	Booked            int    `json:"booked"`
}

// AvailabilityCheck is the request payload for a point availability query.
type AvailabilityCheck struct {
	RestaurantID   string `json:"restaurant_id" validate:"required,mongodb"`
	Date           string `json:"date" validate:"required,valid_date"`
	TimeSlot       string `json:"time_slot" validate:"required,valid_time"`
	NumberOfGuests int    `json:"number_of_guests" validate:"min=0,max=100"`
}
