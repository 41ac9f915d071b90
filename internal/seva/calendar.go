package seva

import (
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

type CalendarDay struct {
	Date     string        `json:"date"`
	Blackout bool          `json:"blackout"`
	Slots    []domain.Slot `json:"slots"`
}

// CalculateCalendar returns availability for days consecutive dates starting at from.
// A blacked-out day still lists its weekly slots, flagged and with nothing available.
func CalculateCalendar(offering domain.Offering, from time.Time, days int, bookings []domain.SevaBooking, festivals []domain.Festival) ([]CalendarDay, error) {
	out := make([]CalendarDay, 0, max(days, 0))
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i)
		day := DayKey(date)

		if blackedOut(offering.ID, day, festivals) {
			slots, err := blackoutSlots(offering, date)
			if err != nil {
				return nil, err
			}
			out = append(out, CalendarDay{Date: day, Blackout: true, Slots: slots})
			continue
		}

		slots, err := CalculateSlots(offering, date, bookings, festivals)
		if err != nil {
			return nil, err
		}
		out = append(out, CalendarDay{Date: day, Slots: slots})
	}
	return out, nil
}

func blackoutSlots(offering domain.Offering, date time.Time) ([]domain.Slot, error) {
	eff, ok, err := weeklySchedule(offering, date.Weekday())
	if err != nil || !ok {
		return []domain.Slot{}, err
	}
	slots := windows(eff)
	for i := range slots {
		slots[i].Available = 0
		slots[i].IsBlackout = true
	}
	return slots, nil
}
