package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferingStatus string

const (
	OfferingStatusActive   OfferingStatus = "active"
	OfferingStatusInactive OfferingStatus = "inactive"
)

// Sacred is the deity or samadhi an offering is performed for.
type Sacred struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Schedule is a daily service window split into equal slots.
// CapacityPerSlot 0 means a single-service slot, DailyQuota 0 means no day-wide cap.
type Schedule struct {
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	CapacityPerSlot     int    `json:"capacity_per_slot,omitempty"`
	DailyQuota          int    `json:"daily_quota,omitempty"`
}

type WeeklyRule struct {
	DaysOfWeek []time.Weekday `json:"days_of_week"`
	Schedule
}

func (r WeeklyRule) AppliesOn(day time.Weekday) bool {
	for _, d := range r.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// BookingWindow limits how far ahead and how late an offering can be booked.
// MaxAdvanceDays 0 leaves the upper bound open.
type BookingWindow struct {
	MaxAdvanceDays   int `json:"max_advance_days"`
	MinCutoffMinutes int `json:"min_cutoff_minutes"`
}

type Offering struct {
	ID       string          `json:"id"`
	SacredID string          `json:"sacred_id"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Status   OfferingStatus  `json:"status"`
	Rules    []WeeklyRule    `json:"rules"`
	Window   BookingWindow   `json:"window"`
}

func (o Offering) IsActive() bool {
	return o.Status == OfferingStatusActive
}

// TokenCode is the offering segment printed on tokens.
func (o Offering) TokenCode() string {
	if o.Code != "" {
		return o.Code
	}
	return o.ID
}
