package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
	"github.com/hackgods/dental-clinic-scheduling/pkg/logging"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentStatus      = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentNotes       = "APPOINTMENT_NOTES_UPDATED"
)

const maxDescriptionLen = 2000

var (
	ErrInvalidRequest     = errors.New("invalid appointment request")
	ErrInvalidStatus      = errors.New("unknown appointment status")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrSlotBeingBooked    = errors.New("clinic is processing another booking, please retry")
	ErrSlotInPast         = errors.New("requested time is in the past")
	ErrClinicNotBookable  = errors.New("clinic is not accepting bookings")
	ErrServiceUnavailable = errors.New("service is not offered")
)

var tracer = otel.Tracer("github.com/hackgods/dental-clinic-scheduling/internal/appointment")

// ClinicLookup is the slice of the clinic catalogue booking depends on.
type ClinicLookup interface {
	Clinic(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error)
	Service(ctx context.Context, id uuid.UUID) (*clinic.Service, error)
	ClinicCounts(ctx context.Context) (map[clinic.ClinicStatus]int64, error)
}

// HoursLookup resolves the working hours of one weekday.
type HoursLookup interface {
	Day(ctx context.Context, clinicID uuid.UUID, day schedule.Weekday) (*schedule.WorkingHour, error)
}

type ServiceConfig struct {
	Repo    Repository
	Locker  redisclient.Locker
	Catalog ClinicLookup
	Hours   HoursLookup
	Logger  *logging.Logger
	Metrics *metrics.BookingMetrics
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	catalog ClinicLookup
	hours   HoursLookup
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:    cfg.Repo,
		locker:  cfg.Locker,
		catalog: cfg.Catalog,
		hours:   cfg.Hours,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// AvailableSlots lists the free starts for serviceID at clinicID on date
// (YYYY-MM-DD in the clinic timezone). A missing or unapproved clinic, a missing
// or inactive service, or a closed day yields an empty list.
func (s *Service) AvailableSlots(ctx context.Context, clinicID, serviceID uuid.UUID, date string) ([]schedule.Slot, error) {
	empty := []schedule.Slot{}

	c, err := s.catalog.Clinic(ctx, clinicID)
	if err != nil {
		return s.slotMiss(empty, err, clinic.ErrClinicNotFound)
	}
	if c.Status != clinic.ClinicApproved {
		s.metrics.ObserveSlotQuery("miss", 0)
		return empty, nil
	}
	loc := c.Location()

	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}

	svc, err := s.catalog.Service(ctx, serviceID)
	if err != nil {
		return s.slotMiss(empty, err, clinic.ErrServiceNotFound)
	}
	if svc.ClinicID != clinicID || !svc.Active {
		s.metrics.ObserveSlotQuery("miss", 0)
		return empty, nil
	}

	hours, err := s.hours.Day(ctx, clinicID, schedule.WeekdayOf(day))
	if err != nil {
		return s.slotMiss(empty, err, schedule.ErrNoWorkingHours)
	}

	bounds := schedule.DayBounds(day, loc)
	busy, err := s.repo.ListBusyIntervals(ctx, clinicID, bounds.Start, bounds.End)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}

	slots := schedule.GenerateSlots(schedule.SlotRequest{
		Hours:           *hours,
		Date:            day,
		Location:        loc,
		ServiceDuration: svc.Duration(),
		Busy:            busy,
		NotBefore:       s.now(),
	})
	s.metrics.ObserveSlotQuery("ok", len(slots))
	return slots, nil
}

func (s *Service) slotMiss(empty []schedule.Slot, err, miss error) ([]schedule.Slot, error) {
	if errors.Is(err, miss) {
		s.metrics.ObserveSlotQuery("miss", 0)
		return empty, nil
	}
	return nil, err
}

// Book reserves [StartTime, StartTime+service duration) for the calling patient.
// The clinic lock and the repository transaction together guarantee that two
// live appointments of one clinic never overlap.
func (s *Service) Book(ctx context.Context, actor auth.Actor, req BookRequest) (_ *Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointment.Book", trace.WithAttributes(
		attribute.String("clinic.id", req.ClinicID.String()),
		attribute.String("service.id", req.ServiceID.String()),
	))
	defer func() {
		s.metrics.ObserveBooking(bookingResult(err))
		endSpan(span, err)
	}()

	if !actor.IsPatient() {
		return nil, auth.ErrForbidden
	}
	if req.ClinicID == uuid.Nil || req.ServiceID == uuid.Nil || req.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: clinicId, serviceId and startTime are required", ErrInvalidRequest)
	}
	req.Description = strings.TrimSpace(req.Description)
	if len(req.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description too long", ErrInvalidRequest)
	}

	c, svc, err := s.bookable(ctx, req.ClinicID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	start := req.StartTime
	end := start.Add(svc.Duration())
	if err := s.checkWindow(ctx, c, start, end); err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.locker.WithClinicLock(ctx, req.ClinicID, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateBooked(lockCtx, Appointment{
			ClinicID:         req.ClinicID,
			PatientID:        actor.UserID,
			ServiceID:        req.ServiceID,
			StartTime:        start,
			EndTime:          end,
			Description:      req.Description,
			TotalAmountCents: svc.PriceCents,
			PaymentStatus:    PaymentUnpaid,
		})
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"clinic_id":  created.ClinicID.String(),
		"patient_id": created.PatientID.String(),
		"service_id": created.ServiceID.String(),
		"start_time": created.StartTime,
		"end_time":   created.EndTime,
	})
	s.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"clinic_id", created.ClinicID,
		"patient_id", created.PatientID,
		"start_time", created.StartTime,
	)
	return created, nil
}

// SetStatus moves an appointment along its lifecycle on behalf of actor.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to AppointmentStatus) (_ *Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointment.SetStatus", trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
		attribute.String("appointment.to", string(to)),
	))
	defer func() { endSpan(span, err) }()

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, appt) {
		return nil, auth.ErrForbidden
	}

	from := appt.Status
	if err := CanTransition(from, to, actor.Role); err != nil {
		s.metrics.ObserveTransition(string(from), string(to), false)
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		s.metrics.ObserveTransition(string(from), string(to), false)
		return nil, err
	}
	s.metrics.ObserveTransition(string(from), string(to), true)

	s.logEvent(ctx, id, EventAppointmentStatus, map[string]any{
		"from":  from,
		"to":    to,
		"actor": actor.UserID.String(),
		"role":  actor.Role,
	})
	s.logger.Info("appointment status changed",
		"appointment_id", id,
		"from", from,
		"to", to,
		"role", actor.Role,
	)
	return updated, nil
}

// UpdateNotes replaces the clinic-side notes of an appointment.
func (s *Service) UpdateNotes(ctx context.Context, actor auth.Actor, id uuid.UUID, notes string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaffOf(appt.ClinicID) {
		return nil, auth.ErrForbidden
	}

	updated, err := s.repo.UpdateNotes(ctx, id, strings.TrimSpace(notes))
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, id, EventAppointmentNotes, map[string]any{"actor": actor.UserID.String()})
	return updated, nil
}

// Reschedule moves a BOOKED or CONFIRMED appointment to a new start. The new
// time passes the same checks as a fresh booking; the status is left as is.
func (s *Service) Reschedule(ctx context.Context, actor auth.Actor, id uuid.UUID, start time.Time) (_ *Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointment.Reschedule", trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
	))
	defer func() { endSpan(span, err) }()

	if start.IsZero() {
		return nil, fmt.Errorf("%w: startTime is required", ErrInvalidRequest)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, appt) {
		return nil, auth.ErrForbidden
	}
	if appt.Status != StatusBooked && appt.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
	}

	c, svc, err := s.bookable(ctx, appt.ClinicID, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	end := start.Add(svc.Duration())
	if err := s.checkWindow(ctx, c, start, end); err != nil {
		return nil, err
	}

	var moved *Appointment
	err = s.locker.WithClinicLock(ctx, appt.ClinicID, func(lockCtx context.Context) error {
		out, err := s.repo.Reschedule(lockCtx, id, appt.Status, start, end)
		if err != nil {
			return err
		}
		moved = out
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, id, EventAppointmentRescheduled, map[string]any{
		"previous_start": appt.StartTime,
		"start_time":     moved.StartTime,
		"actor":          actor.UserID.String(),
	})
	s.logger.Info("appointment rescheduled",
		"appointment_id", id,
		"from", appt.StartTime,
		"to", moved.StartTime,
	)
	return moved, nil
}

// Get returns an appointment visible to actor.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !canModify(actor, appt) {
		return nil, auth.ErrForbidden
	}
	return appt, nil
}

// ListForClinic lists the staff member's own clinic appointments.
func (s *Service) ListForClinic(ctx context.Context, actor auth.Actor, f ListFilter) ([]Appointment, error) {
	if actor.Role != auth.RoleClinicStaff || actor.ClinicID == uuid.Nil {
		return nil, auth.ErrForbidden
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	if f.FromDate != "" || f.ToDate != "" {
		c, err := s.catalog.Clinic(ctx, actor.ClinicID)
		if err != nil {
			return nil, err
		}
		if f.From, err = clinicMidnight(f.From, f.FromDate, c.Location()); err != nil {
			return nil, err
		}
		if f.To, err = clinicMidnight(f.To, f.ToDate, c.Location()); err != nil {
			return nil, err
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}

	f.ClinicID = actor.ClinicID
	f.PatientID = uuid.Nil
	f.Limit, f.Offset = page(f.Limit, f.Offset)

	list, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list clinic appointments: %w", err)
	}
	return list, nil
}

// ListForPatient lists the calling patient's appointments.
func (s *Service) ListForPatient(ctx context.Context, actor auth.Actor, limit, offset int) ([]Appointment, error) {
	if !actor.IsPatient() {
		return nil, auth.ErrForbidden
	}

	limit, offset = page(limit, offset)
	list, err := s.repo.ListAppointments(ctx, ListFilter{
		PatientID: actor.UserID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return list, nil
}

// Analytics summarises the platform for admins.
func (s *Service) Analytics(ctx context.Context, actor auth.Actor) (*Analytics, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrForbidden
	}

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	revenue, err := s.repo.CompletedRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("completed revenue: %w", err)
	}
	clinics, err := s.catalog.ClinicCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count clinics: %w", err)
	}

	out := &Analytics{
		AppointmentsByStatus:  make(map[AppointmentStatus]int64, len(Statuses)),
		CompletedRevenueCents: revenue,
		ClinicsByStatus:       make(map[string]int64, len(clinics)),
	}
	for _, st := range Statuses {
		out.AppointmentsByStatus[st] = byStatus[st]
		out.TotalAppointments += byStatus[st]
	}
	for st, n := range clinics {
		out.ClinicsByStatus[string(st)] = n
	}
	return out, nil
}

// Helpers

// bookable resolves an approved clinic and one of its active services.
func (s *Service) bookable(ctx context.Context, clinicID, serviceID uuid.UUID) (*clinic.Clinic, *clinic.Service, error) {
	c, err := s.catalog.Clinic(ctx, clinicID)
	if err != nil {
		return nil, nil, err
	}
	if c.Status != clinic.ClinicApproved {
		return nil, nil, ErrClinicNotBookable
	}

	svc, err := s.catalog.Service(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if svc.ClinicID != clinicID {
		return nil, nil, clinic.ErrServiceNotFound
	}
	if !svc.Active {
		return nil, nil, ErrServiceUnavailable
	}
	return c, svc, nil
}

// checkWindow rejects past starts and ranges the clinic's hours do not admit.
func (s *Service) checkWindow(ctx context.Context, c *clinic.Clinic, start, end time.Time) error {
	if start.Before(s.now()) {
		return ErrSlotInPast
	}

	loc := c.Location()
	hours, err := s.hours.Day(ctx, c.ID, schedule.WeekdayOf(start.In(loc)))
	if err != nil {
		if errors.Is(err, schedule.ErrNoWorkingHours) {
			return schedule.ErrClinicClosed
		}
		return fmt.Errorf("load working hours: %w", err)
	}
	return hours.Admits(start, end, loc)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log",
			"event_type", eventType,
			"appointment_id", appointmentID,
			"error", err,
		)
	}
}

// canModify reports whether actor is the owning patient or staff of the clinic.
func clinicMidnight(fallback time.Time, date string, loc *time.Location) (time.Time, error) {
	if date == "" {
		return fallback, nil
	}
	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return day, nil
}

func canModify(actor auth.Actor, appt *Appointment) bool {
	switch actor.Role {
	case auth.RolePatient:
		return actor.UserID == appt.PatientID
	case auth.RoleClinicStaff:
		return actor.IsStaffOf(appt.ClinicID)
	}
	return false
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrSlotBeingBooked):
		return "lock_busy"
	case errors.Is(err, auth.ErrForbidden):
		return "forbidden"
	default:
		return "rejected"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
