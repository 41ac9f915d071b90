package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/Domenick1991/sevabooking/internal/kafka"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSender_Send(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSender(zap.New(core))

	err := s.Send(context.Background(), kafka.BookingEvent{
		Type:        kafka.EventSevaBooked,
		TokenNumber: "S1-OFF1-20260110-001",
		Date:        "2026-01-10",
		SlotStart:   "06:00",
		Devotee:     domain.Devotee{Name: "Ravi", Email: "ravi@example.com"},
	})
	assert.NoError(t, err)

	entries := logs.FilterMessage("notify devotee").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "ravi@example.com", fields["to"])
		assert.Equal(t, "Seva booked: token S1-OFF1-20260110-001 on 2026-01-10 at 06:00", fields["subject"])
	}
}

func TestSender_SkipsWithoutContact(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSender(zap.New(core))

	assert.NoError(t, s.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventSevaCancelled}))
	assert.Equal(t, 0, logs.FilterMessage("notify devotee").Len())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Seva cancelled: token T", Subject(kafka.BookingEvent{Type: kafka.EventSevaCancelled, TokenNumber: "T"}))
	assert.Equal(t, "Seva missed: token T", Subject(kafka.BookingEvent{Type: kafka.EventSevaNoShow, TokenNumber: "T"}))
}
