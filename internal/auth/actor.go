// Package auth carries the acting user's identity and role into core operations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient     Role = "PATIENT"
	RoleClinicStaff Role = "CLINIC_STAFF"
	RoleAdmin       Role = "ADMIN"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed for this user")
	ErrInvalidRole     = errors.New("invalid role")
)

// ParseRole accepts the canonical role names plus CLINIC_OWNER as an alias for staff.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RolePatient):
		return RolePatient, nil
	case string(RoleClinicStaff), "CLINIC_OWNER":
		return RoleClinicStaff, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Actor is the authenticated caller. ClinicID is set only for clinic staff.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	ClinicID uuid.UUID
}

func (a Actor) IsPatient() bool { return a.Role == RolePatient }
func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }

// IsStaffOf reports whether the actor works at the given clinic.
func (a Actor) IsStaffOf(clinicID uuid.UUID) bool {
	return a.Role == RoleClinicStaff && a.ClinicID != uuid.Nil && a.ClinicID == clinicID
}

func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing user id", ErrUnauthenticated)
	}
	switch a.Role {
	case RolePatient, RoleAdmin:
		return nil
	case RoleClinicStaff:
		if a.ClinicID == uuid.Nil {
			return fmt.Errorf("%w: clinic staff without clinic", ErrInvalidRole)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRole, a.Role)
}

type contextKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
