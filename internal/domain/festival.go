package domain

import "slices"

// DateLayout is the calendar date format used for bookings and festivals.
const DateLayout = "2006-01-02"

// Festival overrides or blocks regular offering schedules on specific dates.
// An empty OfferingIDs list makes the festival temple-wide.
type Festival struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Date             string    `json:"date"`
	EndDate          string    `json:"end_date,omitempty"`
	OfferingIDs      []string  `json:"offering_ids,omitempty"`
	Blackout         bool      `json:"blackout"`
	ScheduleOverride *Schedule `json:"schedule_override,omitempty"`
}

// Covers reports whether day (YYYY-MM-DD) falls inside the festival.
func (f Festival) Covers(day string) bool {
	if f.EndDate == "" {
		return f.Date == day
	}
	return f.Date <= day && day <= f.EndDate
}

func (f Festival) TempleWide() bool {
	return len(f.OfferingIDs) == 0
}

func (f Festival) AppliesTo(offeringID string) bool {
	return f.TempleWide() || slices.Contains(f.OfferingIDs, offeringID)
}
