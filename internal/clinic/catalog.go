package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

// Catalog serves clinic lookups and service management.
type Catalog struct {
	repo   Repository
	logger *logging.Logger
}

func NewCatalog(repo Repository, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

func (c *Catalog) Clinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return c.repo.GetClinic(ctx, id)
}

func (c *Catalog) Service(ctx context.Context, id uuid.UUID) (*Service, error) {
	return c.repo.GetService(ctx, id)
}

func (c *Catalog) ListServices(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]Service, error) {
	services, err := c.repo.ListServices(ctx, clinicID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (c *Catalog) ClinicCounts(ctx context.Context) (map[ClinicStatus]int64, error) {
	return c.repo.CountClinicsByStatus(ctx)
}

func (c *Catalog) CreateService(ctx context.Context, actor auth.Actor, clinicID uuid.UUID, s Service) (*Service, error) {
	if !actor.IsStaffOf(clinicID) {
		return nil, auth.ErrForbidden
	}

	s.ID = uuid.Nil
	s.ClinicID = clinicID
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	if err := s.Validate(); err != nil {
		return nil, err
	}

	created, err := c.repo.CreateService(ctx, s)
	if err != nil {
		return nil, err
	}

	c.logger.Info("service created", "clinic_id", clinicID, "service_id", created.ID, "name", created.Name)
	return created, nil
}

func (c *Catalog) UpdateService(ctx context.Context, actor auth.Actor, serviceID uuid.UUID, patch ServicePatch) (*Service, error) {
	current, err := c.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaffOf(current.ClinicID) {
		return nil, auth.ErrForbidden
	}

	next := patch.Apply(*current)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	updated, err := c.repo.UpdateService(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	c.logger.Info("service updated", "clinic_id", updated.ClinicID, "service_id", updated.ID, "active", updated.Active)
	return updated, nil
}
