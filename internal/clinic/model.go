// Package clinic holds clinics and the services they sell.
package clinic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClinicNotFound   = errors.New("clinic not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrInvalidService   = errors.New("invalid service")
	ErrDuplicateService = errors.New("clinic already offers a service with this name")
)

type ClinicStatus string

const (
	ClinicPending  ClinicStatus = "PENDING"
	ClinicApproved ClinicStatus = "APPROVED"
	ClinicRejected ClinicStatus = "REJECTED"
)

type Clinic struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Timezone  string       `json:"timezone"`
	Status    ClinicStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Location resolves the clinic timezone, falling back to UTC.
func (c Clinic) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Service struct {
	ID              uuid.UUID `json:"id"`
	ClinicID        uuid.UUID `json:"clinicId"`
	Name            string    `json:"name"`
	PriceCents      int64     `json:"priceCents"`
	DurationMinutes int       `json:"durationMinutes"`
	Category        string    `json:"category"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidService)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidService)
	}
	return nil
}

// ServicePatch carries optional updates; nil fields are left unchanged.
type ServicePatch struct {
	Name            *string `json:"name"`
	PriceCents      *int64  `json:"priceCents"`
	DurationMinutes *int    `json:"durationMinutes"`
	Category        *string `json:"category"`
	Active          *bool   `json:"active"`
}

func (p ServicePatch) Apply(s Service) Service {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.PriceCents != nil {
		s.PriceCents = *p.PriceCents
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.Category != nil {
		s.Category = strings.TrimSpace(*p.Category)
	}
	if p.Active != nil {
		s.Active = *p.Active
	}
	return s
}
