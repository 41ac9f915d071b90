package seva

import (
	"testing"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var allWeek = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

func abhishekam() domain.Offering {
	return domain.Offering{
		ID:       "OFF1",
		SacredID: "S1",
		Name:     "Abhishekam",
		Amount:   decimal.NewFromInt(501),
		Status:   domain.OfferingStatusActive,
		Rules: []domain.WeeklyRule{{
			DaysOfWeek: allWeek,
			Schedule: domain.Schedule{
				StartTime:           "06:00",
				EndTime:             "07:00",
				SlotDurationMinutes: 30,
				CapacityPerSlot:     5,
			},
		}},
		Window: domain.BookingWindow{MaxAdvanceDays: 90, MinCutoffMinutes: 30},
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s, time.UTC)
	require.NoError(t, err)
	return d
}

func booked(offeringID, date, start string, status domain.BookingStatus, n int) []domain.SevaBooking {
	out := make([]domain.SevaBooking, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.SevaBooking{
			SacredID:      "S1",
			OfferingID:    offeringID,
			Date:          date,
			SlotStartTime: start,
			Status:        status,
		})
	}
	return out
}
