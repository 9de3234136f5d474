package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in Postgres.
type PostgresRepository struct {
	db  pgQuerier
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return newPostgresRepository(pool)
}

func newPostgresRepository(db pgQuerier) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const selectColumns = `id, passenger_name, phone_number, email, pickup, dropoff, ride_date, ride_time,
	vehicle_type, baggage, estimated_fare, status, source, notified_at, created_at, updated_at`

// Create inserts rec. Re-inserting an existing id returns the stored row.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) (*Record, error) {
	id, err := normalizeID(rec.ID)
	if err != nil {
		return nil, err
	}
	status := rec.Status
	if status == "" {
		status = StatusReceived
	}

	query := `
		INSERT INTO bookings (id, passenger_name, phone_number, email, pickup, dropoff, ride_date, ride_time,
			vehicle_type, baggage, estimated_fare, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	ct, err := r.db.Exec(ctx, query,
		id,
		rec.PassengerName,
		rec.PhoneNumber,
		rec.Email,
		rec.Pickup,
		rec.Dropoff,
		rec.RideDate,
		rec.RideTime,
		rec.VehicleType,
		rec.Baggage,
		rec.EstimatedFare,
		string(status),
		rec.Source,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings: insert failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return r.GetByID(ctx, id)
	}

	out := *rec
	out.ID = id
	out.Status = status
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	return &out, nil
}

// GetByID fetches one booking.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	id, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM bookings WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return rec, nil
}

// ListRecent returns the newest bookings first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM bookings ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate failed: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a booking to status, stamping notified_at on delivery.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	id, err := lookupID(id)
	if err != nil {
		return err
	}
	query := `
		UPDATE bookings
		SET status = $2,
			notified_at = CASE WHEN $2 = 'notified' THEN NOW() ELSE notified_at END,
			updated_at = NOW()
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("bookings: update status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec        Record
		status     string
		notifiedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&rec.ID,
		&rec.PassengerName,
		&rec.PhoneNumber,
		&rec.Email,
		&rec.Pickup,
		&rec.Dropoff,
		&rec.RideDate,
		&rec.RideTime,
		&rec.VehicleType,
		&rec.Baggage,
		&rec.EstimatedFare,
		&status,
		&rec.Source,
		&notifiedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if notifiedAt.Valid {
		t := notifiedAt.Time
		rec.NotifiedAt = &t
	}
	return &rec, nil
}

var _ Repository = (*PostgresRepository)(nil)
