package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const workingHourColumns = `clinic_id, day_of_week, open_minute, close_minute, slot_minutes, break_start_minute, break_end_minute, updated_at`

func scanWorkingHour(row pgx.Row) (*WorkingHour, error) {
	var (
		w                          WorkingHour
		day                        string
		openMin, closeMin, slotMin int
		breakStart, breakEnd       *int
	)

	err := row.Scan(
		&w.ClinicID,
		&day,
		&openMin,
		&closeMin,
		&slotMin,
		&breakStart,
		&breakEnd,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoWorkingHours
		}
		return nil, err
	}

	w.Day = Weekday(day)
	w.Open = ClockTime(openMin)
	w.Close = ClockTime(closeMin)
	w.SlotMinutes = slotMin
	if breakStart != nil && breakEnd != nil {
		bs, be := ClockTime(*breakStart), ClockTime(*breakEnd)
		w.BreakStart = &bs
		w.BreakEnd = &be
	}
	return &w, nil
}

func (r *PgRepository) ReplaceWeek(ctx context.Context, clinicID uuid.UUID, entries []WorkingHour) ([]WorkingHour, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin working hours tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM working_hours WHERE clinic_id = $1`, clinicID); err != nil {
		return nil, fmt.Errorf("clear working hours: %w", err)
	}

	now := time.Now().UTC()
	saved := make([]WorkingHour, 0, len(entries))
	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO working_hours (clinic_id, day_of_week, open_minute, close_minute, slot_minutes, break_start_minute, break_end_minute, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`, clinicID, string(e.Day), int(e.Open), int(e.Close), e.SlotMinutes, clockPtr(e.BreakStart), clockPtr(e.BreakEnd), now)
		if err != nil {
			return nil, fmt.Errorf("insert working hours for %s: %w", e.Day, err)
		}
		e.ClinicID = clinicID
		e.UpdatedAt = now
		saved = append(saved, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit working hours: %w", err)
	}

	sortWeek(saved)
	return saved, nil
}

func (r *PgRepository) ListWeek(ctx context.Context, clinicID uuid.UUID) ([]WorkingHour, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+workingHourColumns+`
		FROM working_hours
		WHERE clinic_id = $1
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []WorkingHour{}
	for rows.Next() {
		w, err := scanWorkingHour(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortWeek(result)
	return result, nil
}

func (r *PgRepository) GetDay(ctx context.Context, clinicID uuid.UUID, day Weekday) (*WorkingHour, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+workingHourColumns+`
		FROM working_hours
		WHERE clinic_id = $1 AND day_of_week = $2
	`, clinicID, string(day))
	return scanWorkingHour(row)
}

func clockPtr(c *ClockTime) *int {
	if c == nil {
		return nil
	}
	v := int(*c)
	return &v
}
