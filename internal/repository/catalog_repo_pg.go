package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PGCatalog struct {
	db *pgxpool.Pool
}

func NewCatalog(db *pgxpool.Pool) Catalog {
	return &PGCatalog{db: db}
}

func (r *PGCatalog) GetSacred(ctx context.Context, id string) (*domain.Sacred, error) {
	var s domain.Sacred
	err := r.db.QueryRow(ctx, `SELECT id, name, code FROM sacreds WHERE id=$1`, id).Scan(&s.ID, &s.Name, &s.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGCatalog) GetOffering(ctx context.Context, id string) (*domain.Offering, error) {
	var (
		o      domain.Offering
		amount string
		rules  []byte
	)
	err := r.db.QueryRow(ctx, `SELECT id, sacred_id, code, name, amount::text, status, rules, max_advance_days, min_cutoff_minutes
		FROM offerings WHERE id=$1`, id).
		Scan(&o.ID, &o.SacredID, &o.Code, &o.Name, &amount, &o.Status, &rules, &o.Window.MaxAdvanceDays, &o.Window.MinCutoffMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("offering %s amount: %w", id, err)
	}
	if err := json.Unmarshal(rules, &o.Rules); err != nil {
		return nil, fmt.Errorf("offering %s rules: %w", id, err)
	}
	return &o, nil
}

func (r *PGCatalog) ListFestivals(ctx context.Context, from, to string) ([]domain.Festival, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, start_date, coalesce(end_date, ''), offering_ids, blackout, schedule_override
		FROM festivals
		WHERE start_date <= $2 AND coalesce(end_date, start_date) >= $1
		ORDER BY position`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	festivals := make([]domain.Festival, 0)
	for rows.Next() {
		var (
			f        domain.Festival
			override []byte
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Date, &f.EndDate, &f.OfferingIDs, &f.Blackout, &override); err != nil {
			return nil, err
		}
		if len(override) > 0 {
			f.ScheduleOverride = &domain.Schedule{}
			if err := json.Unmarshal(override, f.ScheduleOverride); err != nil {
				return nil, fmt.Errorf("festival %s override: %w", f.ID, err)
			}
		}
		festivals = append(festivals, f)
	}
	return festivals, rows.Err()
}

var _ Catalog = (*PGCatalog)(nil)
