package seva

import (
	"testing"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCalendar(t *testing.T) {
	festivals := []domain.Festival{{ID: "HOLI", Date: "2026-03-08", Blackout: true}}
	bookings := booked("OFF1", "2026-03-09", "06:00", domain.BookingStatusBooked, 2)

	days, err := CalculateCalendar(abhishekam(), day(t, "2026-03-07"), 3, bookings, festivals)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2026-03-07", days[0].Date)
	assert.False(t, days[0].Blackout)
	assert.Len(t, days[0].Slots, 2)

	assert.Equal(t, "2026-03-08", days[1].Date)
	assert.True(t, days[1].Blackout)
	require.Len(t, days[1].Slots, 2)
	for _, s := range days[1].Slots {
		assert.True(t, s.IsBlackout)
		assert.Equal(t, 0, s.Available)
	}

	assert.Equal(t, 3, days[2].Slots[0].Available)
}

func TestCalculateCalendar_ZeroDays(t *testing.T) {
	days, err := CalculateCalendar(abhishekam(), day(t, "2026-03-07"), 0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, days)
}
