package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
	"github.com/hackgods/dental-clinic-scheduling/internal/treatment"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

var errBadRequest = errors.New("invalid request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: could not parse JSON body", errBadRequest)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, clinic.ErrClinicNotFound),
		errors.Is(err, clinic.ErrServiceNotFound):
		return http.StatusNotFound

	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, appointment.ErrStatusChanged),
		errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, clinic.ErrDuplicateService),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		return http.StatusConflict

	case errors.Is(err, schedule.ErrOutsideHours),
		errors.Is(err, schedule.ErrClinicClosed),
		errors.Is(err, schedule.ErrDuringBreak),
		errors.Is(err, appointment.ErrSlotInPast),
		errors.Is(err, appointment.ErrClinicNotBookable),
		errors.Is(err, appointment.ErrServiceUnavailable):
		return http.StatusUnprocessableEntity

	case errors.Is(err, errBadRequest),
		errors.Is(err, appointment.ErrInvalidRequest),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidHours),
		errors.Is(err, schedule.ErrInvalidClock),
		errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, clinic.ErrInvalidService),
		errors.Is(err, treatment.ErrInvalidInput):
		return http.StatusBadRequest

	case errors.Is(err, treatment.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, treatment.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// handleError writes err as {"error": message}. Unmapped errors are logged and
// hidden behind a generic message.
func handleError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
