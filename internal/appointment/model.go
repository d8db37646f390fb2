package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
)

type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "BOOKED"
	StatusConfirmed  AppointmentStatus = "CONFIRMED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	// StatusNoShow is displayed but never produced by a transition.
	StatusNoShow AppointmentStatus = "NO_SHOW"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []AppointmentStatus{
	StatusBooked,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

func (s AppointmentStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal statuses have no outgoing transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Appointment struct {
	ID               uuid.UUID         `json:"id"`
	ClinicID         uuid.UUID         `json:"clinicId"`
	PatientID        uuid.UUID         `json:"patientId"`
	ServiceID        uuid.UUID         `json:"serviceId"`
	StartTime        time.Time         `json:"startTime"`
	EndTime          time.Time         `json:"endTime"`
	Status           AppointmentStatus `json:"status"`
	Description      string            `json:"description"`
	Notes            string            `json:"notes"`
	TotalAmountCents int64             `json:"totalAmountCents"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func (a Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartTime, End: a.EndTime}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// BookRequest is a patient's request for one slot.
type BookRequest struct {
	ClinicID    uuid.UUID
	ServiceID   uuid.UUID
	StartTime   time.Time
	Description string
}

// ListFilter narrows appointment listings. Zero values mean "any".
type ListFilter struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
	// FromDate and ToDate are YYYY-MM-DD days resolved to midnight in the
	// clinic timezone. They override From and To when set.
	FromDate string
	ToDate   string
	Limit    int
	Offset   int
}

// Analytics is the platform-wide summary shown to admins.
type Analytics struct {
	AppointmentsByStatus  map[AppointmentStatus]int64 `json:"appointmentsByStatus"`
	TotalAppointments     int64                       `json:"totalAppointments"`
	CompletedRevenueCents int64                       `json:"completedRevenueCents"`
	ClinicsByStatus       map[string]int64            `json:"clinicsByStatus"`
}
