package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

// MemoryLedger is a process-local BookingLedger indexed by offering and date.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []domain.SevaBooking
	byDay   map[string][]int
	byID    map[string]int
	byToken map[string]int
	seqs    map[string]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		byDay:   make(map[string][]int),
		byID:    make(map[string]int),
		byToken: make(map[string]int),
		seqs:    make(map[string]bool),
	}
}

func dayKey(offeringID, date string) string {
	return offeringID + "|" + date
}

func seqKey(b *domain.SevaBooking) string {
	return fmt.Sprintf("%s|%s|%s|%d", b.SacredID, b.OfferingID, b.Date, b.Sequence)
}

func (l *MemoryLedger) ListByOffering(_ context.Context, offeringID, from, to string) ([]domain.SevaBooking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var candidates []int
	if from == to {
		candidates = l.byDay[dayKey(offeringID, from)]
	} else {
		candidates = make([]int, len(l.records))
		for i := range l.records {
			candidates[i] = i
		}
	}

	out := make([]domain.SevaBooking, 0)
	for _, i := range candidates {
		b := l.records[i]
		if b.OfferingID == offeringID && from <= b.Date && b.Date <= to {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (l *MemoryLedger) GetByID(_ context.Context, id string) (*domain.SevaBooking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	b := l.records[i]
	return &b, nil
}

func (l *MemoryLedger) GetByToken(_ context.Context, token string) (*domain.SevaBooking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	b := l.records[i]
	return &b, nil
}

func (l *MemoryLedger) Append(_ context.Context, booking *domain.SevaBooking, guard AppendGuard) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.byToken[booking.TokenNumber]; dup || l.seqs[seqKey(booking)] {
		return ErrTokenConflict
	}

	key := dayKey(booking.OfferingID, booking.Date)
	slotHeld, dayHeld := 0, 0
	for _, i := range l.byDay[key] {
		b := l.records[i]
		if !b.Status.HoldsCapacity() {
			continue
		}
		dayHeld++
		if b.SlotStartTime == booking.SlotStartTime {
			slotHeld++
		}
	}
	if guard.Capacity > 0 && slotHeld >= guard.Capacity {
		return ErrCapacityConflict
	}
	if guard.DailyQuota > 0 && dayHeld >= guard.DailyQuota {
		return ErrCapacityConflict
	}

	i := len(l.records)
	l.records = append(l.records, *booking)
	l.byDay[key] = append(l.byDay[key], i)
	l.byID[booking.ID] = i
	l.byToken[booking.TokenNumber] = i
	l.seqs[seqKey(booking)] = true
	return nil
}

func (l *MemoryLedger) Transition(_ context.Context, id string, to domain.BookingStatus) (*domain.SevaBooking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !canTransition(l.records[i].Status, to) {
		return nil, ErrInvalidTransition
	}
	l.records[i].Status = to
	b := l.records[i]
	return &b, nil
}

// MemoryCatalog holds reference data in process.
type MemoryCatalog struct {
	mu        sync.RWMutex
	sacreds   map[string]domain.Sacred
	offerings map[string]domain.Offering
	festivals []domain.Festival
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		sacreds:   make(map[string]domain.Sacred),
		offerings: make(map[string]domain.Offering),
	}
}

func (c *MemoryCatalog) PutSacred(s domain.Sacred) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sacreds[s.ID] = s
}

func (c *MemoryCatalog) PutOffering(o domain.Offering) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offerings[o.ID] = o
}

func (c *MemoryCatalog) AddFestival(f domain.Festival) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.festivals = append(c.festivals, f)
}

func (c *MemoryCatalog) GetSacred(_ context.Context, id string) (*domain.Sacred, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sacreds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (c *MemoryCatalog) GetOffering(_ context.Context, id string) (*domain.Offering, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.offerings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (c *MemoryCatalog) ListFestivals(_ context.Context, from, to string) ([]domain.Festival, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Festival, 0)
	for _, f := range c.festivals {
		end := f.EndDate
		if end == "" {
			end = f.Date
		}
		if f.Date <= to && end >= from {
			out = append(out, f)
		}
	}
	return out, nil
}

var (
	_ BookingLedger = (*MemoryLedger)(nil)
	_ Catalog       = (*MemoryCatalog)(nil)
)
