package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const bookingColumns = `id::text, token_number, sequence, sacred_id, offering_id, booking_date, slot_start, slot_end,
	devotee, amount::text, payment_mode, payment_status, status, booked_at, operator_id`

type PGBookingLedger struct {
	db *pgxpool.Pool
}

func NewBookingLedger(db *pgxpool.Pool) BookingLedger {
	return &PGBookingLedger{db: db}
}

func (r *PGBookingLedger) ListByOffering(ctx context.Context, offeringID, from, to string) ([]domain.SevaBooking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM seva_bookings
		WHERE offering_id=$1 AND booking_date BETWEEN $2 AND $3
		ORDER BY booking_date, sequence`, offeringID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.SevaBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingLedger) GetByID(ctx context.Context, id string) (*domain.SevaBooking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM seva_bookings WHERE id::text=$1`, id)
}

func (r *PGBookingLedger) GetByToken(ctx context.Context, token string) (*domain.SevaBooking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM seva_bookings WHERE token_number=$1`, token)
}

func (r *PGBookingLedger) getOne(ctx context.Context, query string, arg string) (*domain.SevaBooking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// Append serialises writers per offering and date with a transaction-scoped advisory
// lock, re-counts the slot, then inserts. Duplicate sequences surface as ErrTokenConflict.
func (r *PGBookingLedger) Append(ctx context.Context, booking *domain.SevaBooking, guard AppendGuard) error {
	devotee, err := json.Marshal(booking.Devotee)
	if err != nil {
		return fmt.Errorf("marshal devotee: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`, booking.OfferingID, booking.Date); err != nil {
		return fmt.Errorf("lock offering day: %w", err)
	}

	if guard.Capacity > 0 {
		var held int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM seva_bookings
			WHERE offering_id=$1 AND booking_date=$2 AND slot_start=$3 AND status IN ('booked', 'completed')`,
			booking.OfferingID, booking.Date, booking.SlotStartTime).Scan(&held); err != nil {
			return err
		}
		if held >= guard.Capacity {
			return ErrCapacityConflict
		}
	}
	if guard.DailyQuota > 0 {
		var held int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM seva_bookings
			WHERE offering_id=$1 AND booking_date=$2 AND status IN ('booked', 'completed')`,
			booking.OfferingID, booking.Date).Scan(&held); err != nil {
			return err
		}
		if held >= guard.DailyQuota {
			return ErrCapacityConflict
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO seva_bookings
		(id, token_number, sequence, sacred_id, offering_id, booking_date, slot_start, slot_end,
		 devotee, amount, payment_mode, payment_status, status, booked_at, operator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, $12, $13, $14, $15)`,
		booking.ID, booking.TokenNumber, booking.Sequence, booking.SacredID, booking.OfferingID, booking.Date,
		booking.SlotStartTime, booking.SlotEndTime, devotee, booking.Amount.String(), booking.PaymentMode,
		booking.PaymentStatus, booking.Status, booking.BookedAt, booking.OperatorID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrTokenConflict
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingLedger) Transition(ctx context.Context, id string, to domain.BookingStatus) (*domain.SevaBooking, error) {
	if !canTransition(domain.BookingStatusBooked, to) {
		return nil, ErrInvalidTransition
	}
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE seva_bookings SET status=$2, updated_at=now()
		WHERE id::text=$1 AND status=$3 RETURNING `+bookingColumns, id, to, domain.BookingStatusBooked))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.SevaBooking, error) {
	var (
		b       domain.SevaBooking
		devotee []byte
		amount  string
	)
	if err := row.Scan(&b.ID, &b.TokenNumber, &b.Sequence, &b.SacredID, &b.OfferingID, &b.Date,
		&b.SlotStartTime, &b.SlotEndTime, &devotee, &amount, &b.PaymentMode, &b.PaymentStatus,
		&b.Status, &b.BookedAt, &b.OperatorID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(devotee, &b.Devotee); err != nil {
		return nil, fmt.Errorf("decode devotee: %w", err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	b.Amount = d
	return &b, nil
}

var _ BookingLedger = (*PGBookingLedger)(nil)
