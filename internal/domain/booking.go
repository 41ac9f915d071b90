package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// HoldsCapacity reports whether a booking in this status occupies a slot.
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingStatusBooked || s == BookingStatusCompleted
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeUPI    PaymentMode = "upi"
	PaymentModeCard   PaymentMode = "card"
	PaymentModeOnline PaymentMode = "online"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Devotee struct {
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Gotra     string `json:"gotra,omitempty"`
	Nakshatra string `json:"nakshatra,omitempty"`
}

type SevaBooking struct {
	ID            string          `json:"id"`
	TokenNumber   string          `json:"token_number"`
	Sequence      int             `json:"sequence"`
	SacredID      string          `json:"sacred_id"`
	OfferingID    string          `json:"offering_id"`
	Date          string          `json:"date"`
	SlotStartTime string          `json:"slot_start_time"`
	SlotEndTime   string          `json:"slot_end_time"`
	Devotee       Devotee         `json:"devotee"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Status        BookingStatus   `json:"status"`
	BookedAt      time.Time       `json:"booked_at"`
	OperatorID    string          `json:"operator_id,omitempty"`
}

// Slot is a computed bookable window; it is never persisted.
type Slot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Capacity    int    `json:"capacity"`
	BookedCount int    `json:"booked_count"`
	Available   int    `json:"available"`
	IsBlackout  bool   `json:"is_blackout"`
}
