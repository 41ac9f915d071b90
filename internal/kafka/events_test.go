package kafka

import (
	"testing"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEventTypeFor(t *testing.T) {
	assert.Equal(t, EventSevaBooked, EventTypeFor(domain.BookingStatusBooked))
	assert.Equal(t, EventSevaCancelled, EventTypeFor(domain.BookingStatusCancelled))
	assert.Equal(t, EventSevaCompleted, EventTypeFor(domain.BookingStatusCompleted))
	assert.Equal(t, EventSevaNoShow, EventTypeFor(domain.BookingStatusNoShow))
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, zap.NewNop())
	assert.NotNil(t, p)
	assert.NoError(t, p.Close())
}
