package offerings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/Domenick1991/sevabooking/internal/repository"
	"github.com/Domenick1991/sevabooking/internal/seva"
	"go.uber.org/zap"
)

var ErrInvalidQuery = errors.New("invalid availability query")

type OfferingUseCase interface {
	GetOffering(ctx context.Context, id string) (*domain.Offering, error)
	ListSlots(ctx context.Context, offeringID, date string) ([]domain.Slot, error)
	Calendar(ctx context.Context, offeringID, from string, days int) ([]seva.CalendarDay, error)
}

type SlotCache interface {
	GetSlots(ctx context.Context, offeringID, date string) ([]domain.Slot, error)
	SetSlots(ctx context.Context, offeringID, date string, slots []domain.Slot) error
}

type OfferingService struct {
	catalog repository.Catalog
	ledger  repository.BookingLedger
	cache   SlotCache
	log     *zap.Logger
	loc     *time.Location
	maxDays int
	now     func() time.Time
}

func NewOfferingService(
	catalog repository.Catalog,
	ledger repository.BookingLedger,
	cache SlotCache,
	log *zap.Logger,
	loc *time.Location,
	maxDays int,
) *OfferingService {
	if loc == nil {
		loc = time.UTC
	}
	return &OfferingService{
		catalog: catalog,
		ledger:  ledger,
		cache:   cache,
		log:     log,
		loc:     loc,
		maxDays: maxDays,
		now:     time.Now,
	}
}

func (s *OfferingService) GetOffering(ctx context.Context, id string) (*domain.Offering, error) {
	return s.catalog.GetOffering(ctx, id)
}

// ListSlots serves the slot picker. Dates before today have no slots.
// Results are advisory; confirmation re-validates against the ledger.
func (s *OfferingService) ListSlots(ctx context.Context, offeringID, date string) ([]domain.Slot, error) {
	day, err := seva.ParseDay(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidQuery, date)
	}
	if day.Before(s.today()) {
		return []domain.Slot{}, nil
	}
	key := seva.DayKey(day)

	if s.cache != nil {
		cached, err := s.cache.GetSlots(ctx, offeringID, key)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.Warn("read slot cache", zap.String("offering_id", offeringID), zap.Error(err))
		}
	}

	offering, err := s.catalog.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	festivals, err := s.catalog.ListFestivals(ctx, key, key)
	if err != nil {
		return nil, err
	}
	bookings, err := s.ledger.ListByOffering(ctx, offeringID, key, key)
	if err != nil {
		return nil, err
	}
	slots, err := seva.CalculateSlots(*offering, day, bookings, festivals)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSlots(ctx, offeringID, key, slots); err != nil {
			s.log.Warn("write slot cache", zap.String("offering_id", offeringID), zap.Error(err))
		}
	}
	return slots, nil
}

// Calendar returns per-day availability for a range of dates. Days before today are
// listed without slots.
func (s *OfferingService) Calendar(ctx context.Context, offeringID, from string, days int) ([]seva.CalendarDay, error) {
	start, err := seva.ParseDay(from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidQuery, from)
	}
	if days < 1 || (s.maxDays > 0 && days > s.maxDays) {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidQuery, s.maxDays)
	}

	offering, err := s.catalog.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	first, last := seva.DayKey(start), seva.DayKey(start.AddDate(0, 0, days-1))
	festivals, err := s.catalog.ListFestivals(ctx, first, last)
	if err != nil {
		return nil, err
	}
	bookings, err := s.ledger.ListByOffering(ctx, offeringID, first, last)
	if err != nil {
		return nil, err
	}

	calendar, err := seva.CalculateCalendar(*offering, start, days, bookings, festivals)
	if err != nil {
		return nil, err
	}
	today := seva.DayKey(s.today())
	for i := range calendar {
		if calendar[i].Date < today {
			calendar[i].Slots = []domain.Slot{}
		}
	}
	return calendar, nil
}

func (s *OfferingService) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

var _ OfferingUseCase = (*OfferingService)(nil)
