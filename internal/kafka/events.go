package kafka

import (
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

const (
	EventSevaBooked    = "seva_booked"
	EventSevaCancelled = "seva_cancelled"
	EventSevaCompleted = "seva_completed"
	EventSevaNoShow    = "seva_no_show"
)

type BookingEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	BookingID   string         `json:"booking_id"`
	TokenNumber string         `json:"token_number"`
	SacredID    string         `json:"sacred_id"`
	OfferingID  string         `json:"offering_id"`
	Date        string         `json:"date"`
	SlotStart   string         `json:"slot_start"`
	SlotEnd     string         `json:"slot_end"`
	Status      string         `json:"status"`
	Amount      string         `json:"amount"`
	Devotee     domain.Devotee `json:"devotee"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// EventTypeFor maps a booking status to the event announcing it.
func EventTypeFor(status domain.BookingStatus) string {
	switch status {
	case domain.BookingStatusCancelled:
		return EventSevaCancelled
	case domain.BookingStatusCompleted:
		return EventSevaCompleted
	case domain.BookingStatusNoShow:
		return EventSevaNoShow
	default:
		return EventSevaBooked
	}
}
