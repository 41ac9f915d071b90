package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/Domenick1991/sevabooking/internal/kafka"
	"github.com/Domenick1991/sevabooking/internal/repository"
	"github.com/Domenick1991/sevabooking/internal/seva"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid booking input")

// errDayLocked means another counter holds the offering's day lock.
var errDayLocked = errors.New("offering day is locked by another confirmation")

type BookingUseCase interface {
	CheckAvailability(ctx context.Context, offeringID, date, startTime string) (seva.Decision, error)
	ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*ConfirmResult, error)
	GetBooking(ctx context.Context, token string) (*domain.SevaBooking, error)
	CancelBooking(ctx context.Context, id string) (*domain.SevaBooking, error)
	CompleteBooking(ctx context.Context, id string) (*domain.SevaBooking, error)
	MarkNoShow(ctx context.Context, id string) (*domain.SevaBooking, error)
}

type Cache interface {
	AcquireDayLock(ctx context.Context, offeringID, date string, ttl time.Duration) (bool, error)
	ReleaseDayLock(ctx context.Context, offeringID, date string) error
	InvalidateSlots(ctx context.Context, offeringID, date string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	ledger             repository.BookingLedger
	catalog            repository.Catalog
	cache              Cache
	producer           Producer
	log                *zap.Logger
	eventsTopic        string
	notificationsTopic string
	loc                *time.Location
	retries            int
	backoff            time.Duration
	lockTTL            time.Duration
	now                func() time.Time
}

type ConfirmBookingInput struct {
	OfferingID    string               `json:"offering_id"`
	Date          string               `json:"date"`
	StartTime     string               `json:"start_time"`
	Devotee       domain.Devotee       `json:"devotee"`
	PaymentMode   domain.PaymentMode   `json:"payment_mode"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	OperatorID    string               `json:"operator_id"`
}

func (in ConfirmBookingInput) validate() error {
	if in.OfferingID == "" {
		return fmt.Errorf("%w: offering is required", ErrInvalidInput)
	}
	if in.Devotee.Name == "" {
		return fmt.Errorf("%w: devotee name is required", ErrInvalidInput)
	}
	switch in.PaymentMode {
	case domain.PaymentModeCash, domain.PaymentModeUPI, domain.PaymentModeCard, domain.PaymentModeOnline:
	default:
		return fmt.Errorf("%w: unknown payment mode %q", ErrInvalidInput, in.PaymentMode)
	}
	switch in.PaymentStatus {
	case "", domain.PaymentStatusPending, domain.PaymentStatusPaid:
	default:
		return fmt.Errorf("%w: payment status %q not allowed at confirmation", ErrInvalidInput, in.PaymentStatus)
	}
	return nil
}

// ConfirmResult carries the validation decision and, when it passed, the stored booking.
type ConfirmResult struct {
	Decision seva.Decision
	Booking  *domain.SevaBooking
}

// ConflictError reports that concurrent confirmations kept winning the slot or the
// token. The operator should re-fetch slots and choose again.
type ConflictError struct {
	OfferingID string
	Date       string
	Attempts   int
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict on offering %s for %s after %d attempts: %v", e.OfferingID, e.Date, e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Retryable() bool { return true }

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache, lockTTL time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
		s.lockTTL = lockTTL
	}
}

func WithProducer(producer Producer, eventsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		s.loc = loc
	}
}

func WithRetries(attempts int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.retries = attempts
		s.backoff = backoff
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	ledger repository.BookingLedger,
	catalog repository.Catalog,
	log *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		ledger:  ledger,
		catalog: catalog,
		log:     log,
		loc:     time.UTC,
		retries: 3,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.retries < 1 {
		service.retries = 1
	}
	return service
}

func (s *BookingService) CheckAvailability(ctx context.Context, offeringID, date, startTime string) (seva.Decision, error) {
	day, err := seva.ParseDay(date, s.loc)
	if err != nil {
		return seva.Decision{}, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	snap, err := s.load(ctx, offeringID, day)
	if err != nil {
		return seva.Decision{}, err
	}
	return seva.CanBookSlot(snap.offering, day, startTime, snap.bookings, snap.festivals, s.now().In(s.loc))
}

// ConfirmBooking validates the attempt against a fresh ledger read, issues a token and
// appends the booking. A ledger rejection for capacity or token collision triggers a
// full re-read and another attempt.
func (s *BookingService) ConfirmBooking(ctx context.Context, input ConfirmBookingInput) (*ConfirmResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	day, err := seva.ParseDay(input.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, input.Date)
	}

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		result, err := s.tryConfirm(ctx, input, day)
		if err == nil {
			return result, nil
		}
		if !isConflict(err) {
			return nil, err
		}

		lastErr = err
		s.log.Warn("booking conflict, retrying",
			zap.String("offering_id", input.OfferingID),
			zap.String("date", input.Date),
			zap.String("start_time", input.StartTime),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < s.retries {
			if err := s.sleep(ctx, time.Duration(attempt)*s.backoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, &ConflictError{
		OfferingID: input.OfferingID,
		Date:       input.Date,
		Attempts:   s.retries,
		Err:        lastErr,
	}
}

func (s *BookingService) tryConfirm(ctx context.Context, input ConfirmBookingInput, day time.Time) (*ConfirmResult, error) {
	snap, err := s.load(ctx, input.OfferingID, day)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	decision, err := seva.CanBookSlot(snap.offering, day, input.StartTime, snap.bookings, snap.festivals, now)
	if err != nil {
		return nil, fmt.Errorf("validate slot: %w", err)
	}
	if !decision.CanBook {
		return &ConfirmResult{Decision: decision}, nil
	}

	sacred, err := s.catalog.GetSacred(ctx, snap.offering.SacredID)
	if err != nil {
		return nil, fmt.Errorf("load sacred %s: %w", snap.offering.SacredID, err)
	}
	token, err := seva.GenerateTokenNumber(*sacred, snap.offering, day, snap.bookings)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	eff, _, err := seva.ResolveSchedule(snap.offering, day, snap.festivals)
	if err != nil {
		return nil, fmt.Errorf("resolve schedule: %w", err)
	}

	paymentStatus := input.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusPending
	}
	booking := &domain.SevaBooking{
		ID:            uuid.NewString(),
		TokenNumber:   token.Number,
		Sequence:      token.Sequence,
		SacredID:      sacred.ID,
		OfferingID:    snap.offering.ID,
		Date:          snap.day,
		SlotStartTime: decision.Slot.StartTime,
		SlotEndTime:   decision.Slot.EndTime,
		Devotee:       input.Devotee,
		Amount:        snap.offering.Amount,
		PaymentMode:   input.PaymentMode,
		PaymentStatus: paymentStatus,
		Status:        domain.BookingStatusBooked,
		BookedAt:      now,
		OperatorID:    input.OperatorID,
	}

	if s.cache != nil {
		locked, err := s.cache.AcquireDayLock(ctx, booking.OfferingID, booking.Date, s.lockTTL)
		switch {
		case err != nil:
			// the ledger still rejects collisions on its own
			s.log.Warn("day lock unavailable", zap.String("offering_id", booking.OfferingID), zap.Error(err))
		case !locked:
			return nil, errDayLocked
		default:
			defer func() {
				if err := s.cache.ReleaseDayLock(ctx, booking.OfferingID, booking.Date); err != nil {
					s.log.Warn("release day lock", zap.String("offering_id", booking.OfferingID), zap.Error(err))
				}
			}()
		}
	}

	guard := repository.AppendGuard{Capacity: decision.Slot.Capacity, DailyQuota: eff.DailyQuota}
	if err := s.ledger.Append(ctx, booking, guard); err != nil {
		return nil, err
	}

	s.log.Info("seva booked",
		zap.String("token", booking.TokenNumber),
		zap.String("offering_id", booking.OfferingID),
		zap.String("date", booking.Date),
		zap.String("slot", booking.SlotStartTime),
		zap.String("operator_id", booking.OperatorID),
	)
	s.afterWrite(ctx, booking)
	return &ConfirmResult{Decision: decision, Booking: booking}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, token string) (*domain.SevaBooking, error) {
	return s.ledger.GetByToken(ctx, token)
}

// CancelBooking frees the slot for later availability queries. The token stays
// consumed.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.SevaBooking, error) {
	return s.transition(ctx, id, domain.BookingStatusCancelled)
}

func (s *BookingService) CompleteBooking(ctx context.Context, id string) (*domain.SevaBooking, error) {
	return s.transition(ctx, id, domain.BookingStatusCompleted)
}

func (s *BookingService) MarkNoShow(ctx context.Context, id string) (*domain.SevaBooking, error) {
	return s.transition(ctx, id, domain.BookingStatusNoShow)
}

func (s *BookingService) transition(ctx context.Context, id string, to domain.BookingStatus) (*domain.SevaBooking, error) {
	updated, err := s.ledger.Transition(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.log.Info("seva status changed", zap.String("token", updated.TokenNumber), zap.String("status", string(to)))
	s.afterWrite(ctx, updated)
	return updated, nil
}

func (s *BookingService) afterWrite(ctx context.Context, booking *domain.SevaBooking) {
	if s.cache != nil {
		if err := s.cache.InvalidateSlots(ctx, booking.OfferingID, booking.Date); err != nil {
			s.log.Warn("invalidate slot cache", zap.String("offering_id", booking.OfferingID), zap.Error(err))
		}
	}
	if err := s.publish(ctx, booking); err != nil {
		s.log.Warn("publish booking event", zap.String("token", booking.TokenNumber), zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, booking *domain.SevaBooking) error {
	if s.producer == nil || s.eventsTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		ID:          uuid.NewString(),
		Type:        kafka.EventTypeFor(booking.Status),
		BookingID:   booking.ID,
		TokenNumber: booking.TokenNumber,
		SacredID:    booking.SacredID,
		OfferingID:  booking.OfferingID,
		Date:        booking.Date,
		SlotStart:   booking.SlotStartTime,
		SlotEnd:     booking.SlotEndTime,
		Status:      string(booking.Status),
		Amount:      booking.Amount.StringFixed(2),
		Devotee:     booking.Devotee,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

type daySnapshot struct {
	day       string
	offering  domain.Offering
	festivals []domain.Festival
	bookings  []domain.SevaBooking
}

func (s *BookingService) load(ctx context.Context, offeringID string, date time.Time) (*daySnapshot, error) {
	offering, err := s.catalog.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("load offering %s: %w", offeringID, err)
	}
	day := seva.DayKey(date)
	festivals, err := s.catalog.ListFestivals(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("load festivals: %w", err)
	}
	bookings, err := s.ledger.ListByOffering(ctx, offeringID, day, day)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return &daySnapshot{day: day, offering: *offering, festivals: festivals, bookings: bookings}, nil
}

func (s *BookingService) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isConflict(err error) bool {
	return errors.Is(err, repository.ErrTokenConflict) ||
		errors.Is(err, repository.ErrCapacityConflict) ||
		errors.Is(err, errDayLocked)
}

var _ BookingUseCase = (*BookingService)(nil)
