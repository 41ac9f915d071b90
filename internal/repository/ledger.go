package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrTokenConflict     = errors.New("token already issued")
	ErrCapacityConflict  = errors.New("slot capacity exhausted")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// AppendGuard carries the limits the ledger re-checks when it commits a booking.
// Zero disables a check.
type AppendGuard struct {
	Capacity   int
	DailyQuota int
}

// BookingLedger is the shared store of seva bookings. Append must reject, never
// overwrite, a booking that would exceed the guard or reuse a token sequence.
type BookingLedger interface {
	// ListByOffering returns bookings of any status for dates in [from, to].
	ListByOffering(ctx context.Context, offeringID, from, to string) ([]domain.SevaBooking, error)
	GetByID(ctx context.Context, id string) (*domain.SevaBooking, error)
	GetByToken(ctx context.Context, token string) (*domain.SevaBooking, error)
	Append(ctx context.Context, booking *domain.SevaBooking, guard AppendGuard) error
	// Transition moves a booked record to a terminal status.
	Transition(ctx context.Context, id string, to domain.BookingStatus) (*domain.SevaBooking, error)
}

// Catalog serves administrator-owned reference data.
type Catalog interface {
	GetSacred(ctx context.Context, id string) (*domain.Sacred, error)
	GetOffering(ctx context.Context, id string) (*domain.Offering, error)
	// ListFestivals returns festivals touching [from, to] in declaration order.
	ListFestivals(ctx context.Context, from, to string) ([]domain.Festival, error)
}

func canTransition(from, to domain.BookingStatus) bool {
	if from != domain.BookingStatusBooked {
		return false
	}
	switch to {
	case domain.BookingStatusCancelled, domain.BookingStatusCompleted, domain.BookingStatusNoShow:
		return true
	}
	return false
}
