package service

import (
	"context"

	"tabletreats/pkg/kafka"
	"tabletreats/pkg/logger"
	"tabletreats/pkg/model"
)

// EventPublisher emits reservation lifecycle events. Publishing is
// best-effort: the reservation write has already committed, so a
// broker failure is logged and swallowed rather than surfaced to the
// caller. A nil producer disables publishing entirely.
type EventPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewEventPublisher(producer *kafka.Producer, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		log:      log,
	}
}

type reservationEvent struct {
	ReservationID  string `json:"reservation_id"`
	RestaurantID   string `json:"restaurant_id"`
	CustomerEmail  string `json:"customer_email"`
	Date           string `json:"date"`
	TimeSlot       string `json:"time_slot"`
	NumberOfGuests int    `json:"number_of_guests"`
	SeatingAreaID  string `json:"seating_area_id"`
	Status         string `json:"status"`
}

type billPaidEvent struct {
	ReservationID string  `json:"reservation_id"`
	RestaurantID  string  `json:"restaurant_id"`
	BillID        string  `json:"bill_id"`
	Total         float64 `json:"total"`
}

func (p *EventPublisher) ReservationCreated(ctx context.Context, r *model.Reservation) {
	p.publishReservation(ctx, kafka.EventReservationCreated, r)
}

func (p *EventPublisher) ReservationCancelled(ctx context.Context, r *model.Reservation) {
	p.publishReservation(ctx, kafka.EventReservationCancelled, r)
}

func (p *EventPublisher) ReservationCheckedIn(ctx context.Context, r *model.Reservation) {
	p.publishReservation(ctx, kafka.EventReservationCheckedIn, r)
}

func (p *EventPublisher) ReservationCheckInUndone(ctx context.Context, r *model.Reservation) {
	p.publishReservation(ctx, kafka.EventCheckInUndone, r)
}

func (p *EventPublisher) BillPaid(ctx context.Context, r *model.Reservation) {
	if p == nil || p.producer == nil || r.Bill == nil {
		return
	}

	msg, err := kafka.NewEvent(kafka.EventBillPaid, r.ID, billPaidEvent{
		ReservationID: r.ID,
		RestaurantID:  r.RestaurantID,
		BillID:        r.Bill.BillID,
		Total:         r.Bill.Total,
	})
	if err != nil {
		p.log.Error("Failed to build bill event", "reservation_id", r.ID, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish bill event", "reservation_id", r.ID, "error", err)
	}
}

func (p *EventPublisher) publishReservation(ctx context.Context, eventType string, r *model.Reservation) {
	if p == nil || p.producer == nil {
		return
	}

	msg, err := kafka.NewEvent(eventType, r.ID, reservationEvent{
		ReservationID:  r.ID,
		RestaurantID:   r.RestaurantID,
		CustomerEmail:  r.CustomerEmail,
		Date:           r.Date,
		TimeSlot:       r.TimeSlot,
		NumberOfGuests: r.NumberOfGuests,
		SeatingAreaID:  r.SeatingAreaID,
		Status:         r.Status,
	})
	if err != nil {
		p.log.Error("Failed to build reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
	}
}
