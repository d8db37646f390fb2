package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists working hours.
type Repository interface {
	// ReplaceWeek swaps the clinic's configured days for entries in one transaction.
	ReplaceWeek(ctx context.Context, clinicID uuid.UUID, entries []WorkingHour) ([]WorkingHour, error)
	ListWeek(ctx context.Context, clinicID uuid.UUID) ([]WorkingHour, error)
	// GetDay returns ErrNoWorkingHours when the clinic is closed that day.
	GetDay(ctx context.Context, clinicID uuid.UUID, day Weekday) (*WorkingHour, error)
}
