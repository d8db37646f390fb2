package appointment

import (
	"fmt"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
)

// allowedTransitions is the only place the lifecycle is defined. Every status
// mutation goes through CanTransition.
var allowedTransitions = map[AppointmentStatus]map[AppointmentStatus][]auth.Role{
	StatusBooked: {
		StatusConfirmed:  {auth.RoleClinicStaff},
		StatusInProgress: {auth.RoleClinicStaff},
		StatusCancelled:  {auth.RoleClinicStaff, auth.RolePatient},
	},
	StatusConfirmed: {
		StatusInProgress: {auth.RoleClinicStaff},
		StatusCancelled:  {auth.RoleClinicStaff, auth.RolePatient},
	},
	StatusInProgress: {
		StatusCompleted: {auth.RoleClinicStaff},
	},
}

// CanTransition returns nil when role may move an appointment from -> to.
func CanTransition(from, to AppointmentStatus, role auth.Role) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}

	roles, ok := allowedTransitions[from][to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not move %s -> %s", ErrInvalidTransition, role, from, to)
}

// AllowedNext lists the statuses role may move an appointment to from the
// given status, in lifecycle order.
func AllowedNext(from AppointmentStatus, role auth.Role) []AppointmentStatus {
	next := []AppointmentStatus{}
	for _, to := range Statuses {
		if CanTransition(from, to, role) == nil {
			next = append(next, to)
		}
	}
	return next
}
