package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("requested time overlaps an existing appointment")
	ErrStatusChanged       = errors.New("appointment status changed concurrently, reload and retry")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error)

	// ListBusyIntervals returns non-cancelled appointments of the clinic
	// intersecting [from, to).
	ListBusyIntervals(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]schedule.Interval, error)

	// CreateBooked checks for overlap and inserts in one transaction.
	// Returns ErrSlotTaken when [start, end) collides with a live appointment.
	CreateBooked(ctx context.Context, a Appointment) (*Appointment, error)
	// Reschedule moves the appointment, provided it is still in status from and
	// the new range is free (ignoring itself). The status is unchanged.
	Reschedule(ctx context.Context, id uuid.UUID, from AppointmentStatus, start, end time.Time) (*Appointment, error)
	// UpdateAppointmentStatus is a compare-and-set on status; ErrStatusChanged
	// when the row is no longer in status from.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error)

	CountByStatus(ctx context.Context) (map[AppointmentStatus]int64, error)
	CompletedRevenue(ctx context.Context) (int64, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
