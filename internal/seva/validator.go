package seva

import (
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

// Operator-facing rejection reasons.
const (
	ReasonDateInPast       = "date is in the past"
	ReasonWindowClosed     = "booking window closed for this slot"
	ReasonInvalidSlotTime  = "invalid slot time"
	ReasonNoSchedule       = "offering not available on this date"
	ReasonNoSuchSlot       = "no slot starts at this time"
	ReasonInactiveOffering = "offering is not active"
	ReasonSlotFull         = "slot fully booked"
	ReasonOutsideWindow    = "outside booking window"
)

type Decision struct {
	CanBook bool   `json:"can_book"`
	Reason  string `json:"reason,omitempty"`
	// Slot is the matched slot, set whenever the start time resolved to one.
	Slot *domain.Slot `json:"slot,omitempty"`
}

func reject(reason string, slot *domain.Slot) Decision {
	return Decision{Reason: reason, Slot: slot}
}

// CanBookSlot re-validates a booking attempt against freshly computed slots.
// Checks run in a fixed order and the first failure is reported.
// "Today" is now's calendar date in now's location; date is read as a calendar date
// in the same location. The returned error is reserved for malformed reference data.
func CanBookSlot(offering domain.Offering, date time.Time, startTime string, bookings []domain.SevaBooking, festivals []domain.Festival, now time.Time) (Decision, error) {
	loc := now.Location()
	today := startOfDay(now)
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	startMinute, err := ParseClock(startTime)
	if err != nil || startMinute >= minutesPerDay {
		return reject(ReasonInvalidSlotTime, nil), nil
	}

	if day.Before(today) {
		return reject(ReasonDateInPast, nil), nil
	}
	if day.Equal(today) {
		slotStart := time.Date(y, m, d, 0, startMinute, 0, 0, loc)
		cutoff := slotStart.Add(-time.Duration(offering.Window.MinCutoffMinutes) * time.Minute)
		if !now.Before(cutoff) {
			return reject(ReasonWindowClosed, nil), nil
		}
	}

	slots, err := CalculateSlots(offering, day, bookings, festivals)
	if err != nil {
		return Decision{}, err
	}
	if len(slots) == 0 {
		return reject(ReasonNoSchedule, nil), nil
	}
	var matched *domain.Slot
	for i := range slots {
		if slots[i].StartTime == FormatClock(startMinute) {
			matched = &slots[i]
			break
		}
	}
	if matched == nil {
		return reject(ReasonNoSuchSlot, nil), nil
	}

	if !offering.IsActive() {
		return reject(ReasonInactiveOffering, matched), nil
	}

	if matched.Available <= 0 {
		return reject(ReasonSlotFull, matched), nil
	}

	if limit := offering.Window.MaxAdvanceDays; limit > 0 && day.After(today.AddDate(0, 0, limit)) {
		return reject(ReasonOutsideWindow, matched), nil
	}

	return Decision{CanBook: true, Slot: matched}, nil
}
