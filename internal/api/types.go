package api

import (
	"time"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
)

type BookAppointmentRequest struct {
	ClinicID    string    `json:"clinicId"`
	ServiceID   string    `json:"serviceId"`
	StartTime   time.Time `json:"startTime"`
	Description string    `json:"description"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type RescheduleRequest struct {
	StartTime time.Time `json:"startTime"`
}

type WorkingHoursRequest struct {
	WorkingHours []schedule.WorkingHour `json:"workingHours"`
}

type WorkingHoursResponse struct {
	WorkingHours []schedule.WorkingHour `json:"workingHours"`
	IsDefault    bool                   `json:"isDefault"`
}

type SlotsResponse struct {
	Date  string          `json:"date"`
	Slots []schedule.Slot `json:"slots"`
}

// AppointmentResponse adds the statuses the caller may move the appointment to.
type AppointmentResponse struct {
	appointment.Appointment
	AllowedNext []appointment.AppointmentStatus `json:"allowedNext"`
}

type AppointmentListResponse struct {
	Appointments []appointment.Appointment `json:"appointments"`
	Limit        int                       `json:"limit"`
	Offset       int                       `json:"offset"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
