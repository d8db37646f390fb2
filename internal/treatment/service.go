package treatment

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

const defaultDisclaimer = "AI-generated suggestion. It does not replace an examination by a licensed dentist."

type Service struct {
	gen    Generator
	logger *logging.Logger
}

// NewService accepts a nil generator; every call then fails with ErrDisabled.
func NewService(gen Generator, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{gen: gen, logger: logger}
}

func (s *Service) Enabled() bool { return s.gen != nil }

// GeneratePlan drafts a treatment plan for clinic staff.
func (s *Service) GeneratePlan(ctx context.Context, actor auth.Actor, in PatientContext) (*Plan, error) {
	if actor.Role != auth.RoleClinicStaff {
		return nil, auth.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, ErrDisabled
	}

	plan, err := s.gen.GeneratePlan(ctx, in)
	if err != nil {
		s.logger.Error("treatment plan generation failed", "user_id", actor.UserID, "error", err)
		return nil, upstream(err)
	}
	return finish(plan), nil
}

// CheckSymptoms gives a patient a first triage of their symptoms.
func (s *Service) CheckSymptoms(ctx context.Context, actor auth.Actor, in SymptomInput) (*Plan, error) {
	if !actor.IsPatient() {
		return nil, auth.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, ErrDisabled
	}

	plan, err := s.gen.CheckSymptoms(ctx, in)
	if err != nil {
		s.logger.Error("symptom check failed", "user_id", actor.UserID, "error", err)
		return nil, upstream(err)
	}
	return finish(plan), nil
}

func upstream(err error) error {
	if errors.Is(err, ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func finish(p Plan) *Plan {
	if p.Disclaimer == "" {
		p.Disclaimer = defaultDisclaimer
	}
	if p.Steps == nil {
		p.Steps = []PlanStep{}
	}
	return &p
}
