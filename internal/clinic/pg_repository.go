package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/dental-clinic-scheduling/internal/db"
)

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

const serviceColumns = `id, clinic_id, name, price_cents, duration_minutes, category, active, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Timezone,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}

	return &c, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.ClinicID,
		&s.Name,
		&s.PriceCents,
		&s.DurationMinutes,
		&s.Category,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, timezone, status, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`, id)
	return scanClinic(row)
}

// CreateClinic inserts a clinic. Clinic onboarding lives outside this service;
// cmd/seed is the only caller.
func (r *PgRepository) CreateClinic(ctx context.Context, c Clinic) (*Clinic, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Status == "" {
		c.Status = ClinicPending
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO clinics (id, name, timezone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, name, timezone, status, created_at, updated_at
	`, c.ID, c.Name, c.Timezone, string(c.Status))

	created, err := scanClinic(row)
	if err != nil {
		return nil, fmt.Errorf("insert clinic: %w", err)
	}
	return created, nil
}

func (r *PgRepository) CountClinicsByStatus(ctx context.Context) (map[ClinicStatus]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM clinics
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[ClinicStatus]int64)
	for rows.Next() {
		var status ClinicStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE clinic_id = $1
		  AND (active OR NOT $2)
		ORDER BY category, name
	`, clinicID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateService(ctx context.Context, s Service) (*Service, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO services (id, clinic_id, name, price_cents, duration_minutes, category, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+serviceColumns,
		s.ID, s.ClinicID, s.Name, s.PriceCents, s.DurationMinutes, s.Category, s.Active)

	created, err := scanService(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateService
		}
		return nil, fmt.Errorf("insert service: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateService(ctx context.Context, s Service) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    price_cents = $3,
		    duration_minutes = $4,
		    category = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns,
		s.ID, s.Name, s.PriceCents, s.DurationMinutes, s.Category, s.Active)

	updated, err := scanService(row)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateService
	}
	return updated, err
}
