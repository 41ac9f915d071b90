package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/sevabooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender notifies devotees about their seva bookings. Delivery is logged only;
// no mail transport is wired.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	to := event.Devotee.Email
	if to == "" {
		to = event.Devotee.Phone
	}
	if to == "" {
		s.log.Debug("no devotee contact, skipping notification", zap.String("token", event.TokenNumber))
		return nil
	}

	s.log.Info("notify devotee",
		zap.String("to", to),
		zap.String("subject", Subject(event)),
		zap.String("token", event.TokenNumber),
	)
	return nil
}

func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventSevaBooked:
		return fmt.Sprintf("Seva booked: token %s on %s at %s", event.TokenNumber, event.Date, event.SlotStart)
	case kafka.EventSevaCancelled:
		return fmt.Sprintf("Seva cancelled: token %s", event.TokenNumber)
	case kafka.EventSevaCompleted:
		return fmt.Sprintf("Seva performed: token %s", event.TokenNumber)
	case kafka.EventSevaNoShow:
		return fmt.Sprintf("Seva missed: token %s", event.TokenNumber)
	default:
		return fmt.Sprintf("Seva update: token %s", event.TokenNumber)
	}
}
