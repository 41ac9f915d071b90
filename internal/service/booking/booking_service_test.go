package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/Domenick1991/sevabooking/internal/kafka"
	"github.com/Domenick1991/sevabooking/internal/repository"
	"github.com/Domenick1991/sevabooking/internal/seva"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireDayLock(ctx context.Context, offeringID, date string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, offeringID, date, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseDayLock(ctx context.Context, offeringID, date string) error {
	args := m.Called(ctx, offeringID, date)
	return args.Error(0)
}

func (m *MockCache) InvalidateSlots(ctx context.Context, offeringID, date string) error {
	args := m.Called(ctx, offeringID, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// conflictingLedger rejects the first n appends the way a ledger does when another
// counter wins the race.
type conflictingLedger struct {
	*repository.MemoryLedger
	mu       sync.Mutex
	failures int
	err      error
	appends  int
}

func (l *conflictingLedger) Append(ctx context.Context, b *domain.SevaBooking, guard repository.AppendGuard) error {
	l.mu.Lock()
	l.appends++
	if l.failures != 0 {
		l.failures--
		l.mu.Unlock()
		return l.err
	}
	l.mu.Unlock()
	return l.MemoryLedger.Append(ctx, b, guard)
}

var fixedNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func testOffering() domain.Offering {
	return domain.Offering{
		ID:       "OFF1",
		SacredID: "S1",
		Name:     "Abhishekam",
		Amount:   decimal.NewFromInt(501),
		Status:   domain.OfferingStatusActive,
		Rules: []domain.WeeklyRule{{
			DaysOfWeek: []time.Weekday{
				time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
			},
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

func testCatalog(offerings ...domain.Offering) *repository.MemoryCatalog {
	catalog := repository.NewMemoryCatalog()
	catalog.PutSacred(domain.Sacred{ID: "S1", Name: "Sri Guru", Code: "SGS"})
	if len(offerings) == 0 {
		offerings = []domain.Offering{testOffering()}
	}
	for _, o := range offerings {
		catalog.PutOffering(o)
	}
	return catalog
}

func testInput() ConfirmBookingInput {
	return ConfirmBookingInput{
		OfferingID:  "OFF1",
		Date:        "2026-01-10",
		StartTime:   "06:00",
		Devotee:     domain.Devotee{Name: "Ravi", Phone: "+919800000000"},
		PaymentMode: domain.PaymentModeCash,
		OperatorID:  "counter-1",
	}
}

func newTestService(ledger repository.BookingLedger, catalog repository.Catalog, opts ...BookingServiceOption) *BookingService {
	opts = append([]BookingServiceOption{WithClock(func() time.Time { return fixedNow }), WithRetries(3, 0)}, opts...)
	return NewBookingService(ledger, catalog, zap.NewNop(), opts...)
}

func fill(t *testing.T, service *BookingService, n int) []*domain.SevaBooking {
	t.Helper()
	out := make([]*domain.SevaBooking, 0, n)
	for i := 0; i < n; i++ {
		res, err := service.ConfirmBooking(context.Background(), testInput())
		require.NoError(t, err)
		require.True(t, res.Decision.CanBook, res.Decision.Reason)
		out = append(out, res.Booking)
	}
	return out
}

func TestBookingService_ConfirmBooking_Success(t *testing.T) {
	ledger := repository.NewMemoryLedger()
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := newTestService(ledger, testCatalog(),
		WithCache(mockCache, 5*time.Second),
		WithProducer(mockProducer, "seva.bookings"),
	)

	mockCache.On("AcquireDayLock", mock.Anything, "OFF1", "2026-01-10", 5*time.Second).Return(true, nil).Once()
	mockCache.On("ReleaseDayLock", mock.Anything, "OFF1", "2026-01-10").Return(nil).Once()
	mockCache.On("InvalidateSlots", mock.Anything, "OFF1", "2026-01-10").Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "seva.bookings", mock.Anything,
		mock.MatchedBy(func(e kafka.BookingEvent) bool {
			return e.Type == kafka.EventSevaBooked && e.TokenNumber == "SGS-OFF1-20260110-001"
		})).Return(nil).Once()

	res, err := service.ConfirmBooking(context.Background(), testInput())

	require.NoError(t, err)
	assert.True(t, res.Decision.CanBook)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "SGS-OFF1-20260110-001", res.Booking.TokenNumber)
	assert.Equal(t, 1, res.Booking.Sequence)
	assert.Equal(t, "06:00", res.Booking.SlotStartTime)
	assert.Equal(t, "06:30", res.Booking.SlotEndTime)
	assert.Equal(t, domain.BookingStatusBooked, res.Booking.Status)
	assert.Equal(t, domain.PaymentStatusPending, res.Booking.PaymentStatus)
	assert.True(t, decimal.NewFromInt(501).Equal(res.Booking.Amount))
	assert.Equal(t, fixedNow, res.Booking.BookedAt)

	stored, err := ledger.GetByToken(context.Background(), "SGS-OFF1-20260110-001")
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, stored.ID)

	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_ConfirmBooking_PublishesNotification(t *testing.T) {
	mockProducer := &MockProducer{}
	service := newTestService(repository.NewMemoryLedger(), testCatalog(),
		WithProducer(mockProducer, "seva.bookings"),
		WithNotificationsTopic("seva.notifications"),
	)

	mockProducer.On("Publish", mock.Anything, "seva.bookings", mock.Anything, mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", mock.Anything, "seva.notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := service.ConfirmBooking(context.Background(), testInput())
	require.NoError(t, err)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_ConfirmBooking_ValidationErrors(t *testing.T) {
	service := newTestService(repository.NewMemoryLedger(), testCatalog())

	testCases := []struct {
		name        string
		mutate      func(*ConfirmBookingInput)
		expectedErr string
	}{
		{
			name:        "missing offering",
			mutate:      func(in *ConfirmBookingInput) { in.OfferingID = "" },
			expectedErr: "offering is required",
		},
		{
			name:        "missing devotee",
			mutate:      func(in *ConfirmBookingInput) { in.Devotee.Name = "" },
			expectedErr: "devotee name is required",
		},
		{
			name:        "unknown payment mode",
			mutate:      func(in *ConfirmBookingInput) { in.PaymentMode = "cheque" },
			expectedErr: "unknown payment mode",
		},
		{
			name:        "refunded at confirmation",
			mutate:      func(in *ConfirmBookingInput) { in.PaymentStatus = domain.PaymentStatusRefunded },
			expectedErr: "not allowed at confirmation",
		},
		{
			name:        "malformed date",
			mutate:      func(in *ConfirmBookingInput) { in.Date = "10-01-2026" },
			expectedErr: "date",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := testInput()
			tc.mutate(&in)
			res, err := service.ConfirmBooking(context.Background(), in)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestBookingService_ConfirmBooking_Rejected(t *testing.T) {
	ledger := repository.NewMemoryLedger()
	service := newTestService(ledger, testCatalog())
	fill(t, service, 5)

	mockCache := &MockCache{}
	WithCache(mockCache, time.Second)(service)

	res, err := service.ConfirmBooking(context.Background(), testInput())

	require.NoError(t, err)
	assert.False(t, res.Decision.CanBook)
	assert.Equal(t, seva.ReasonSlotFull, res.Decision.Reason)
	assert.Nil(t, res.Booking)
	mockCache.AssertNotCalled(t, "AcquireDayLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	all, err := ledger.ListByOffering(context.Background(), "OFF1", "2026-01-10", "2026-01-10")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBookingService_ConfirmBooking_RetriesAfterConflict(t *testing.T) {
	ledger := &conflictingLedger{
		MemoryLedger: repository.NewMemoryLedger(),
		failures:     2,
		err:          repository.ErrTokenConflict,
	}
	service := newTestService(ledger, testCatalog())

	res, err := service.ConfirmBooking(context.Background(), testInput())

	require.NoError(t, err)
	require.NotNil(t, res.Booking)
	assert.Equal(t, 3, ledger.appends)
	assert.Equal(t, "SGS-OFF1-20260110-001", res.Booking.TokenNumber)
}

func TestBookingService_ConfirmBooking_RetriesExhausted(t *testing.T) {
	ledger := &conflictingLedger{
		MemoryLedger: repository.NewMemoryLedger(),
		failures:     -1,
		err:          repository.ErrCapacityConflict,
	}
	service := newTestService(ledger, testCatalog())

	res, err := service.ConfirmBooking(context.Background(), testInput())

	assert.Nil(t, res)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Retryable())
	assert.Equal(t, 3, conflict.Attempts)
	assert.ErrorIs(t, err, repository.ErrCapacityConflict)
	assert.Equal(t, 3, ledger.appends)
}

func TestBookingService_ConfirmBooking_DayLocked(t *testing.T) {
	mockCache := &MockCache{}
	service := newTestService(repository.NewMemoryLedger(), testCatalog(), WithCache(mockCache, time.Second))

	mockCache.On("AcquireDayLock", mock.Anything, "OFF1", "2026-01-10", time.Second).Return(false, nil).Times(3)

	res, err := service.ConfirmBooking(context.Background(), testInput())

	assert.Nil(t, res)
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
	mockCache.AssertExpectations(t)
}

func TestBookingService_ConfirmBooking_LockErrorFallsBackToLedger(t *testing.T) {
	mockCache := &MockCache{}
	service := newTestService(repository.NewMemoryLedger(), testCatalog(), WithCache(mockCache, time.Second))

	mockCache.On("AcquireDayLock", mock.Anything, "OFF1", "2026-01-10", time.Second).Return(false, errors.New("redis down")).Once()
	mockCache.On("InvalidateSlots", mock.Anything, "OFF1", "2026-01-10").Return(errors.New("redis down")).Once()

	res, err := service.ConfirmBooking(context.Background(), testInput())

	require.NoError(t, err)
	assert.NotNil(t, res.Booking)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "ReleaseDayLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_ConfirmBooking_ConfigurationError(t *testing.T) {
	broken := testOffering()
	broken.Rules[0].SlotDurationMinutes = 0
	service := newTestService(repository.NewMemoryLedger(), testCatalog(broken))

	res, err := service.ConfirmBooking(context.Background(), testInput())

	assert.Nil(t, res)
	var cfgErr *seva.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBookingService_ConfirmBooking_UnknownOffering(t *testing.T) {
	service := newTestService(repository.NewMemoryLedger(), testCatalog())

	in := testInput()
	in.OfferingID = "missing"
	_, err := service.ConfirmBooking(context.Background(), in)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingService_ConfirmBooking_Concurrent(t *testing.T) {
	ledger := repository.NewMemoryLedger()
	service := newTestService(ledger, testCatalog(), WithRetries(10, 0))

	const counters = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		tokens   = make(map[string]bool)
		rejected int
	)
	for i := 0; i < counters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := service.ConfirmBooking(context.Background(), testInput())
			mu.Lock()
			defer mu.Unlock()
			if !assert.NoError(t, err) {
				return
			}
			if res.Booking == nil {
				assert.Equal(t, seva.ReasonSlotFull, res.Decision.Reason)
				rejected++
				return
			}
			assert.False(t, tokens[res.Booking.TokenNumber], "duplicate token %s", res.Booking.TokenNumber)
			tokens[res.Booking.TokenNumber] = true
		}()
	}
	wg.Wait()

	assert.Len(t, tokens, 5)
	assert.Equal(t, counters-5, rejected)

	all, err := ledger.ListByOffering(context.Background(), "OFF1", "2026-01-10", "2026-01-10")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBookingService_CancelBooking_FreesCapacity(t *testing.T) {
	ledger := repository.NewMemoryLedger()
	service := newTestService(ledger, testCatalog())
	bookings := fill(t, service, 5)

	decision, err := service.CheckAvailability(context.Background(), "OFF1", "2026-01-10", "06:00")
	require.NoError(t, err)
	assert.False(t, decision.CanBook)

	mockProducer := &MockProducer{}
	WithProducer(mockProducer, "seva.bookings")(service)
	mockProducer.On("Publish", mock.Anything, "seva.bookings", bookings[0].ID,
		mock.MatchedBy(func(e kafka.BookingEvent) bool { return e.Type == kafka.EventSevaCancelled })).Return(nil).Once()

	cancelled, err := service.CancelBooking(context.Background(), bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)

	decision, err = service.CheckAvailability(context.Background(), "OFF1", "2026-01-10", "06:00")
	require.NoError(t, err)
	assert.True(t, decision.CanBook)
	assert.Equal(t, 1, decision.Slot.Available)

	// the cancelled token keeps its sequence
	WithProducer(nil, "")(service)
	res, err := service.ConfirmBooking(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "SGS-OFF1-20260110-006", res.Booking.TokenNumber)

	mockProducer.AssertExpectations(t)
}

func TestBookingService_Transitions(t *testing.T) {
	service := newTestService(repository.NewMemoryLedger(), testCatalog())
	bookings := fill(t, service, 3)
	ctx := context.Background()

	completed, err := service.CompleteBooking(ctx, bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, completed.Status)

	noShow, err := service.MarkNoShow(ctx, bookings[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusNoShow, noShow.Status)

	_, err = service.CancelBooking(ctx, bookings[0].ID)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	_, err = service.CancelBooking(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// completed still holds its place, no-show does not
	decision, err := service.CheckAvailability(ctx, "OFF1", "2026-01-10", "06:00")
	require.NoError(t, err)
	assert.Equal(t, 3, decision.Slot.Available)
}

func TestBookingService_GetBooking(t *testing.T) {
	service := newTestService(repository.NewMemoryLedger(), testCatalog())
	bookings := fill(t, service, 1)

	got, err := service.GetBooking(context.Background(), bookings[0].TokenNumber)
	require.NoError(t, err)
	assert.Equal(t, bookings[0].ID, got.ID)

	_, err = service.GetBooking(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingService_CheckAvailability_Past(t *testing.T) {
	service := newTestService(repository.NewMemoryLedger(), testCatalog())

	decision, err := service.CheckAvailability(context.Background(), "OFF1", "2026-01-04", "06:00")
	require.NoError(t, err)
	assert.False(t, decision.CanBook)
	assert.Equal(t, seva.ReasonDateInPast, decision.Reason)
}
