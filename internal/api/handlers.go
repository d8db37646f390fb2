package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
	"github.com/hackgods/dental-clinic-scheduling/internal/treatment"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

// Helpers

func actorFrom(r *http.Request) (auth.Actor, error) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Actor{}, auth.ErrUnauthenticated
	}
	return actor, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", errBadRequest, name)
	}
	return id, nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", errBadRequest, field)
	}
	return id, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

// rangeQuery accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date. Dates
// are returned unresolved so the service can apply the clinic timezone.
func rangeQuery(r *http.Request, name string) (time.Time, string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, "", nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, "", nil
	}
	if _, err := schedule.ParseDate(raw, time.UTC); err == nil {
		return time.Time{}, raw, nil
	}
	return time.Time{}, "", fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", errBadRequest, name)
}

func appointmentResponse(a *appointment.Appointment, actor auth.Actor) AppointmentResponse {
	return AppointmentResponse{
		Appointment: *a,
		AllowedNext: appointment.AllowedNext(a.Status, actor.Role),
	}
}

// Slots and catalogue

func slotsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			handleError(w, r, logger, fmt.Errorf("%w: date is required", errBadRequest))
			return
		}
		serviceID, err := parseUUID("serviceId", r.URL.Query().Get("serviceId"))
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), clinicID, serviceID, date)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{Date: date, Slots: slots})
	}
}

func listServicesHandler(svc CatalogService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		services, err := svc.ListServices(r.Context(), clinicID, true)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"services": services})
	}
}

func createServiceHandler(svc CatalogService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req clinic.ServicePatch
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		created, err := svc.CreateService(r.Context(), actor, actor.ClinicID, req.Apply(clinic.Service{Active: true}))
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func updateServiceHandler(svc CatalogService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req clinic.ServicePatch
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		updated, err := svc.UpdateService(r.Context(), actor, id, req)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

// Appointments

func bookAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req BookAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		clinicID, err := parseUUID("clinicId", req.ClinicID)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		serviceID, err := parseUUID("serviceId", req.ServiceID)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		appt, err := svc.Book(r.Context(), actor, appointment.BookRequest{
			ClinicID:    clinicID,
			ServiceID:   serviceID,
			StartTime:   req.StartTime,
			Description: req.Description,
		})
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt, actor))
	}
}

func getAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		appt, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt, actor))
	}
}

func listPatientAppointmentsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		limit, err := intQuery(r, "limit")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		offset, err := intQuery(r, "offset")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		list, err := svc.ListForPatient(r.Context(), actor, limit, offset)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentListResponse{Appointments: list, Limit: limit, Offset: offset})
	}
}

func listClinicAppointmentsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var f appointment.ListFilter
		if f.From, f.FromDate, err = rangeQuery(r, "from"); err != nil {
			handleError(w, r, logger, err)
			return
		}
		if f.To, f.ToDate, err = rangeQuery(r, "to"); err != nil {
			handleError(w, r, logger, err)
			return
		}
		if f.Limit, err = intQuery(r, "limit"); err != nil {
			handleError(w, r, logger, err)
			return
		}
		if f.Offset, err = intQuery(r, "offset"); err != nil {
			handleError(w, r, logger, err)
			return
		}
		f.Status = appointment.AppointmentStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))

		list, err := svc.ListForClinic(r.Context(), actor, f)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentListResponse{Appointments: list, Limit: f.Limit, Offset: f.Offset})
	}
}

func updateStatusHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req UpdateStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}
		to := appointment.AppointmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

		appt, err := svc.SetStatus(r.Context(), actor, id, to)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt, actor))
	}
}

func cancelAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		appt, err := svc.SetStatus(r.Context(), actor, id, appointment.StatusCancelled)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt, actor))
	}
}

func rescheduleAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req RescheduleRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		appt, err := svc.Reschedule(r.Context(), actor, id, req.StartTime)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt, actor))
	}
}

func updateNotesHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req UpdateNotesRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		appt, err := svc.UpdateNotes(r.Context(), actor, id, req.Notes)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt, actor))
	}
}

func analyticsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		out, err := svc.Analytics(r.Context(), actor)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// Working hours

func upsertWorkingHoursHandler(svc ScheduleService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req WorkingHoursRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		saved, err := svc.UpsertWeek(r.Context(), actor, actor.ClinicID, req.WorkingHours)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, WorkingHoursResponse{WorkingHours: saved})
	}
}

func getWorkingHoursHandler(svc ScheduleService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		week, err := svc.GetWeek(r.Context(), actor.ClinicID)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		if len(week) == 0 {
			writeJSON(w, http.StatusOK, WorkingHoursResponse{
				WorkingHours: schedule.DefaultWeek(actor.ClinicID),
				IsDefault:    true,
			})
			return
		}

		writeJSON(w, http.StatusOK, WorkingHoursResponse{WorkingHours: week})
	}
}

// AI assistant

func treatmentPlanHandler(svc TreatmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req treatment.PatientContext
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		plan, err := svc.GeneratePlan(r.Context(), actor, req)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, plan)
	}
}

func symptomCheckHandler(svc TreatmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		var req treatment.SymptomInput
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, r, logger, err)
			return
		}

		plan, err := svc.CheckSymptoms(r.Context(), actor, req)
		if err != nil {
			handleError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, plan)
	}
}
