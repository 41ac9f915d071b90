package seva

import (
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

// CalculateSlots expands the offering's schedule for date into consecutive slots
// with remaining capacity derived from bookings. It does not modify its inputs.
func CalculateSlots(offering domain.Offering, date time.Time, bookings []domain.SevaBooking, festivals []domain.Festival) ([]domain.Slot, error) {
	eff, ok, err := ResolveSchedule(offering, date, festivals)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Slot{}, nil
	}

	perSlot, dayTotal := countHolding(offering.ID, DayKey(date), bookings)
	slots := windows(eff)

	remainingQuota := eff.DailyQuota - dayTotal
	cumulative := 0
	for i := range slots {
		s := &slots[i]
		s.BookedCount = perSlot[s.StartTime]
		s.Available = max(0, s.Capacity-s.BookedCount)

		if eff.DailyQuota > 0 {
			cumulative += s.BookedCount
			if cumulative >= eff.DailyQuota || remainingQuota <= 0 {
				s.Available = 0
			} else {
				s.Available = min(s.Available, remainingQuota)
			}
		}
	}
	return slots, nil
}

// windows partitions the schedule into full slots; a trailing remainder is dropped.
func windows(eff EffectiveSchedule) []domain.Slot {
	n := (eff.EndMinute - eff.StartMinute) / eff.SlotDuration
	slots := make([]domain.Slot, 0, n)
	for start := eff.StartMinute; start+eff.SlotDuration <= eff.EndMinute; start += eff.SlotDuration {
		slots = append(slots, domain.Slot{
			StartTime: FormatClock(start),
			EndTime:   FormatClock(start + eff.SlotDuration),
			Capacity:  eff.Capacity,
			Available: eff.Capacity,
		})
	}
	return slots
}

// countHolding indexes capacity-holding bookings of one offering and day by slot start.
func countHolding(offeringID, day string, bookings []domain.SevaBooking) (map[string]int, int) {
	perSlot := make(map[string]int)
	total := 0
	for _, b := range bookings {
		if b.OfferingID != offeringID || b.Date != day || !b.Status.HoldsCapacity() {
			continue
		}
		perSlot[b.SlotStartTime]++
		total++
	}
	return perSlot, total
}
