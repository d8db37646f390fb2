package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/metrics"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
	"github.com/hackgods/dental-clinic-scheduling/internal/treatment"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

type AppointmentService interface {
	AvailableSlots(ctx context.Context, clinicID, serviceID uuid.UUID, date string) ([]schedule.Slot, error)
	Book(ctx context.Context, actor auth.Actor, req appointment.BookRequest) (*appointment.Appointment, error)
	SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to appointment.AppointmentStatus) (*appointment.Appointment, error)
	UpdateNotes(ctx context.Context, actor auth.Actor, id uuid.UUID, notes string) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, actor auth.Actor, id uuid.UUID, start time.Time) (*appointment.Appointment, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*appointment.Appointment, error)
	ListForClinic(ctx context.Context, actor auth.Actor, f appointment.ListFilter) ([]appointment.Appointment, error)
	ListForPatient(ctx context.Context, actor auth.Actor, limit, offset int) ([]appointment.Appointment, error)
	Analytics(ctx context.Context, actor auth.Actor) (*appointment.Analytics, error)
}

type ScheduleService interface {
	UpsertWeek(ctx context.Context, actor auth.Actor, clinicID uuid.UUID, entries []schedule.WorkingHour) ([]schedule.WorkingHour, error)
	GetWeek(ctx context.Context, clinicID uuid.UUID) ([]schedule.WorkingHour, error)
}

type CatalogService interface {
	ListServices(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]clinic.Service, error)
	CreateService(ctx context.Context, actor auth.Actor, clinicID uuid.UUID, s clinic.Service) (*clinic.Service, error)
	UpdateService(ctx context.Context, actor auth.Actor, serviceID uuid.UUID, patch clinic.ServicePatch) (*clinic.Service, error)
}

type TreatmentService interface {
	GeneratePlan(ctx context.Context, actor auth.Actor, in treatment.PatientContext) (*treatment.Plan, error)
	CheckSymptoms(ctx context.Context, actor auth.Actor, in treatment.SymptomInput) (*treatment.Plan, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Schedule     ScheduleService
	Catalog      CatalogService
	Treatment    TreatmentService
	Tokens       *auth.Tokens
	Health       *HealthHandler
	Logger       *logging.Logger
	HTTPMetrics  *metrics.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger, cfg.HTTPMetrics))
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	staffOnly := RequireRole(auth.RoleClinicStaff)
	patientOnly := RequireRole(auth.RolePatient)

	r.Route("/api", func(r chi.Router) {
		r.Get("/clinics/{id}/slots", slotsHandler(cfg.Appointments, logger))
		r.Get("/clinics/{id}/services", listServicesHandler(cfg.Catalog, logger))

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Tokens))

			r.With(patientOnly).Post("/appointments/book", bookAppointmentHandler(cfg.Appointments, logger))
			r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments, logger))

			r.Route("/patient", func(r chi.Router) {
				r.Use(patientOnly)
				r.Get("/appointments", listPatientAppointmentsHandler(cfg.Appointments, logger))
				r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Appointments, logger))
				r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Appointments, logger))
			})

			r.Route("/clinic", func(r chi.Router) {
				r.Use(staffOnly)
				r.Get("/appointments", listClinicAppointmentsHandler(cfg.Appointments, logger))
				r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Appointments, logger))
				r.Patch("/appointments/{id}/notes", updateNotesHandler(cfg.Appointments, logger))
				r.Post("/services", createServiceHandler(cfg.Catalog, logger))
				r.Patch("/services/{id}", updateServiceHandler(cfg.Catalog, logger))
			})

			r.With(staffOnly).Post("/clinics/working-hours", upsertWorkingHoursHandler(cfg.Schedule, logger))
			r.With(staffOnly).Get("/clinics/working-hours", getWorkingHoursHandler(cfg.Schedule, logger))

			r.With(RequireRole(auth.RoleAdmin)).Get("/admin/analytics", analyticsHandler(cfg.Appointments, logger))

			r.With(staffOnly).Post("/ai/treatment-plan", treatmentPlanHandler(cfg.Treatment, logger))
			r.With(patientOnly).Post("/ai/symptom-check", symptomCheckHandler(cfg.Treatment, logger))
		})
	})

	return r
}
