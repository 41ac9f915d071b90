package seva

import (
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

// EffectiveSchedule is the schedule that governs one offering on one date,
// expressed in minutes after midnight.
type EffectiveSchedule struct {
	StartMinute  int
	EndMinute    int
	SlotDuration int
	Capacity     int
	DailyQuota   int
	// FestivalID is set when a festival override replaced the weekly rule.
	FestivalID string
	RuleIndex  int
}

func (s EffectiveSchedule) Overridden() bool {
	return s.FestivalID != ""
}

// ResolveSchedule returns the schedule in force for offering on date.
// ok is false when the offering is blacked out or has no rule for that weekday.
// The advance-booking window is not consulted here.
func ResolveSchedule(offering domain.Offering, date time.Time, festivals []domain.Festival) (EffectiveSchedule, bool, error) {
	day := DayKey(date)

	if blackedOut(offering.ID, day, festivals) {
		return EffectiveSchedule{}, false, nil
	}

	if f, ok := festivalOverride(offering.ID, day, festivals); ok {
		eff, err := compileSchedule(offering.ID, *f.ScheduleOverride)
		if err != nil {
			return EffectiveSchedule{}, false, err
		}
		eff.FestivalID = f.ID
		eff.RuleIndex = -1
		return eff, true, nil
	}

	return weeklySchedule(offering, date.Weekday())
}

func blackedOut(offeringID, day string, festivals []domain.Festival) bool {
	for _, f := range festivals {
		if f.Blackout && f.Covers(day) && f.AppliesTo(offeringID) {
			return true
		}
	}
	return false
}

// festivalOverride prefers an override naming the offering over a temple-wide one,
// then declaration order.
func festivalOverride(offeringID, day string, festivals []domain.Festival) (domain.Festival, bool) {
	var templeWide *domain.Festival
	for i := range festivals {
		f := &festivals[i]
		if f.ScheduleOverride == nil || !f.Covers(day) || !f.AppliesTo(offeringID) {
			continue
		}
		if !f.TempleWide() {
			return *f, true
		}
		if templeWide == nil {
			templeWide = f
		}
	}
	if templeWide != nil {
		return *templeWide, true
	}
	return domain.Festival{}, false
}

// weeklySchedule picks the narrowest matching rule; ties keep the first declared.
func weeklySchedule(offering domain.Offering, weekday time.Weekday) (EffectiveSchedule, bool, error) {
	var (
		best  EffectiveSchedule
		found bool
	)
	for i, rule := range offering.Rules {
		if !rule.AppliesOn(weekday) {
			continue
		}
		eff, err := compileSchedule(offering.ID, rule.Schedule)
		if err != nil {
			return EffectiveSchedule{}, false, err
		}
		eff.RuleIndex = i
		if !found || eff.width() < best.width() {
			best, found = eff, true
		}
	}
	return best, found, nil
}

func (s EffectiveSchedule) width() int {
	return s.EndMinute - s.StartMinute
}

func compileSchedule(offeringID string, s domain.Schedule) (EffectiveSchedule, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return EffectiveSchedule{}, configErr(offeringID, "start_time", "%v", err)
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return EffectiveSchedule{}, configErr(offeringID, "end_time", "%v", err)
	}
	if end <= start {
		return EffectiveSchedule{}, configErr(offeringID, "end_time", "%s is not after %s", s.EndTime, s.StartTime)
	}
	if s.SlotDurationMinutes <= 0 {
		return EffectiveSchedule{}, configErr(offeringID, "slot_duration_minutes", "must be positive, got %d", s.SlotDurationMinutes)
	}
	if s.CapacityPerSlot < 0 {
		return EffectiveSchedule{}, configErr(offeringID, "capacity_per_slot", "must not be negative, got %d", s.CapacityPerSlot)
	}
	if s.DailyQuota < 0 {
		return EffectiveSchedule{}, configErr(offeringID, "daily_quota", "must not be negative, got %d", s.DailyQuota)
	}

	capacity := s.CapacityPerSlot
	if capacity == 0 {
		capacity = 1
	}
	return EffectiveSchedule{
		StartMinute:  start,
		EndMinute:    end,
		SlotDuration: s.SlotDurationMinutes,
		Capacity:     capacity,
		DailyQuota:   s.DailyQuota,
	}, nil
}
