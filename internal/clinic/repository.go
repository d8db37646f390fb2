package clinic

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the catalog.
type Repository interface {
	GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error)
	CountClinicsByStatus(ctx context.Context) (map[ClinicStatus]int64, error)

	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]Service, error)
	CreateService(ctx context.Context, s Service) (*Service, error)
	UpdateService(ctx context.Context, s Service) (*Service, error)
}
