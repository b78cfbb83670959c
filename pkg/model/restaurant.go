package model

import "time"

// DayHours is a single day's entry in a restaurant's weekly hours map.
// Open and Close are "HH:MM" 24-hour strings and are only meaningful
// when Closed is false.
type DayHours struct {
	Closed bool   `json:"closed" bson:"closed"`
	Open   string `json:"open,omitempty" bson:"open,omitempty" validate:"omitempty,valid_time"`
	Close  string `json:"close,omitempty" bson:"close,omitempty" validate:"omitempty,valid_time"`
}

// SeatingArea is a named subdivision of the floor plan. AreaCapacity is
// derived (seats_per_table * number_of_tables) and recomputed on every
// write, never accepted from the caller.
type SeatingArea struct {
	ID             string `json:"id" bson:"id"`
	AreaName       string `json:"area_name" bson:"area_name" validate:"required,min=2,max=100"`
	AreaType       string `json:"area_type" bson:"area_type" validate:"required,min=2,max=50"`
	SeatsPerTable  int    `json:"seats_per_table" bson:"seats_per_table" validate:"required,min=1,max=50"`
	NumberOfTables int    `json:"number_of_tables" bson:"number_of_tables" validate:"required,min=1,max=500"`
	AreaCapacity   int    `json:"area_capacity" bson:"area_capacity"`
}

// SeatingConfig holds all seating areas plus the derived total.
type SeatingConfig struct {
	SeatingAreas  []SeatingArea `json:"seating_areas" bson:"seating_areas" validate:"omitempty,dive"`
	TotalCapacity int           `json:"total_capacity" bson:"total_capacity"`
}

type Restaurant struct {
	ID             string              `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerEmail     string              `json:"owner_email" bson:"owner_email" validate:"required,email"`
	RestaurantName string              `json:"restaurant_name" bson:"restaurant_name" validate:"required,min=2,max=100"`
	City           string              `json:"city" bson:"city" validate:"omitempty,min=2,max=50"`
	Cuisines       []string            `json:"cuisines,omitempty" bson:"cuisines,omitempty"`
	Features       []string            `json:"features,omitempty" bson:"features,omitempty"`
	IsOnboarded    bool                `json:"is_onboarded" bson:"is_onboarded"`
	Hours          map[string]DayHours `json:"hours" bson:"hours"`
	SeatingConfig  SeatingConfig       `json:"seating_config" bson:"seating_config"`
	Promos         []Deal              `json:"promos,omitempty" bson:"promos,omitempty"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// DayHoursFor looks up the entry for a lowercase weekday name. A missing
// entry is treated as closed.
func (r *Restaurant) DayHoursFor(day string) DayHours {
	if r.Hours == nil {
		return DayHours{Closed: true}
	}
	dh, ok := r.Hours[day]
	if !ok {
		return DayHours{Closed: true}
	}
	return dh
}

// AreaByID returns the seating area with the given id, or nil.
func (r *Restaurant) AreaByID(areaID string) *SeatingArea {
	for i := range r.SeatingConfig.SeatingAreas {
		if r.SeatingConfig.SeatingAreas[i].ID == areaID {
			return &r.SeatingConfig.SeatingAreas[i]
		}
	}
	return nil
}
