package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
)

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

const appointmentColumns = `id, clinic_id, patient_id, service_id, start_time, end_time, status, description, notes, total_amount_cents, payment_status, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.PatientID,
		&a.ServiceID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Description,
		&a.Notes,
		&a.TotalAmountCents,
		&a.PaymentStatus,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// lockClinic serialises booking writes of one clinic inside tx.
func lockClinic(ctx context.Context, tx pgx.Tx, clinicID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM clinics WHERE id = $1 FOR UPDATE`, clinicID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return clinic.ErrClinicNotFound
		}
		return fmt.Errorf("lock clinic: %w", err)
	}
	return nil
}

func hasOverlap(ctx context.Context, tx pgx.Tx, clinicID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE clinic_id = $1
			  AND status <> 'CANCELLED'
			  AND start_time < $3
			  AND end_time > $2
			  AND id <> $4
		)
	`, clinicID, start, end, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ClinicID != uuid.Nil {
		add("clinic_id = $%d", f.ClinicID)
	}
	if f.PatientID != uuid.Nil {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("start_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_time < $%d", f.To)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY start_time LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListBusyIntervals(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE clinic_id = $1
		  AND status <> 'CANCELLED'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`, clinicID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var busy []schedule.Interval
	for rows.Next() {
		var iv schedule.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		busy = append(busy, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return busy, nil
}

func (r *PgRepository) CreateBooked(ctx context.Context, a Appointment) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockClinic(ctx, tx, a.ClinicID); err != nil {
		return nil, err
	}

	taken, err := hasOverlap(ctx, tx, a.ClinicID, a.StartTime, a.EndTime, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, patient_id, service_id, start_time, end_time, status, description, notes, total_amount_cents, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'BOOKED', $7, '', $8, $9, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.ClinicID, a.PatientID, a.ServiceID, a.StartTime, a.EndTime, a.Description, a.TotalAmountCents, string(a.PaymentStatus))

	created, err := scanAppointment(row)
	if err != nil {
		if db.IsExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if db.IsExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	return created, nil
}

func (r *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, from AppointmentStatus, start, end time.Time) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var clinicID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT clinic_id FROM appointments WHERE id = $1`, id).Scan(&clinicID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment clinic: %w", err)
	}
	if err := lockClinic(ctx, tx, clinicID); err != nil {
		return nil, err
	}

	taken, err := hasOverlap(ctx, tx, clinicID, start, end, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    end_time = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
		RETURNING `+appointmentColumns,
		id, start, end, string(from))

	moved, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrStatusChanged
		}
		if db.IsExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reschedule: %w", err)
	}

	return moved, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	updated, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrStatusChanged
	}
	return updated, err
}

func (r *PgRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET notes = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, notes)
	return scanAppointment(row)
}

func (r *PgRepository) CountByStatus(ctx context.Context) (map[AppointmentStatus]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM appointments
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[AppointmentStatus]int64)
	for rows.Next() {
		var status AppointmentStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PgRepository) CompletedRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount_cents), 0)
		FROM appointments
		WHERE status = 'COMPLETED'
	`).Scan(&total)
	return total, err
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
