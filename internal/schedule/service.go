package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

type Service struct {
	repo   Repository
	logger *logging.Logger
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// UpsertWeek replaces the clinic's whole week. Days missing from entries
// become closed days.
func (s *Service) UpsertWeek(ctx context.Context, actor auth.Actor, clinicID uuid.UUID, entries []WorkingHour) ([]WorkingHour, error) {
	if !actor.IsStaffOf(clinicID) {
		return nil, auth.ErrForbidden
	}
	if err := ValidateWeek(entries); err != nil {
		return nil, err
	}

	saved, err := s.repo.ReplaceWeek(ctx, clinicID, entries)
	if err != nil {
		return nil, fmt.Errorf("replace working hours: %w", err)
	}

	s.logger.Info("working hours updated",
		"clinic_id", clinicID,
		"user_id", actor.UserID,
		"days", len(saved),
	)
	return saved, nil
}

// GetWeek returns the configured days. An empty result means nothing is
// configured; callers may offer DefaultWeek as a starting template.
func (s *Service) GetWeek(ctx context.Context, clinicID uuid.UUID) ([]WorkingHour, error) {
	week, err := s.repo.ListWeek(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	return week, nil
}

// Day returns the hours for one weekday or ErrNoWorkingHours.
func (s *Service) Day(ctx context.Context, clinicID uuid.UUID, day Weekday) (*WorkingHour, error) {
	return s.repo.GetDay(ctx, clinicID, day)
}
