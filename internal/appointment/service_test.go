package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
	"github.com/hackgods/dental-clinic-scheduling/internal/clinic"
	"github.com/hackgods/dental-clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
	"github.com/hackgods/dental-clinic-scheduling/internal/schedule"
)

// memRepo keeps appointments in memory with the same overlap rule as the
// database constraint.
type memRepo struct {
	mu     sync.Mutex
	appts  map[uuid.UUID]*Appointment
	events []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *memRepo) overlaps(clinicID uuid.UUID, start, end time.Time, exclude uuid.UUID) bool {
	iv := schedule.Interval{Start: start, End: end}
	for _, a := range m.appts {
		if a.ID == exclude || a.ClinicID != clinicID || a.Status == StatusCancelled {
			continue
		}
		if a.Interval().Overlaps(iv) {
			return true
		}
	}
	return false
}

func (m *memRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Appointment{}
	for _, a := range m.appts {
		if f.ClinicID != uuid.Nil && a.ClinicID != f.ClinicID {
			continue
		}
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *memRepo) ListBusyIntervals(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var busy []schedule.Interval
	window := schedule.Interval{Start: from, End: to}
	for _, a := range m.appts {
		if a.ClinicID == clinicID && a.Status != StatusCancelled && a.Interval().Overlaps(window) {
			busy = append(busy, a.Interval())
		}
	}
	return busy, nil
}

func (m *memRepo) CreateBooked(ctx context.Context, a Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlaps(a.ClinicID, a.StartTime, a.EndTime, uuid.Nil) {
		return nil, ErrSlotTaken
	}
	a.ID = uuid.New()
	a.Status = StatusBooked
	m.appts[a.ID] = &a
	cp := a
	return &cp, nil
}

func (m *memRepo) Reschedule(ctx context.Context, id uuid.UUID, from AppointmentStatus, start, end time.Time) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrStatusChanged
	}
	if m.overlaps(a.ClinicID, start, end, id) {
		return nil, ErrSlotTaken
	}
	a.StartTime, a.EndTime = start, end
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrStatusChanged
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Notes = notes
	cp := *a
	return &cp, nil
}

func (m *memRepo) CountByStatus(ctx context.Context) (map[AppointmentStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[AppointmentStatus]int64{}
	for _, a := range m.appts {
		counts[a.Status]++
	}
	return counts, nil
}

func (m *memRepo) CompletedRevenue(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, a := range m.appts {
		if a.Status == StatusCompleted {
			total += a.TotalAmountCents
		}
	}
	return total, nil
}

func (m *memRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type fakeCatalog struct {
	clinics  map[uuid.UUID]*clinic.Clinic
	services map[uuid.UUID]*clinic.Service
}

func (f *fakeCatalog) Clinic(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error) {
	c, ok := f.clinics[id]
	if !ok {
		return nil, clinic.ErrClinicNotFound
	}
	return c, nil
}

func (f *fakeCatalog) Service(ctx context.Context, id uuid.UUID) (*clinic.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, clinic.ErrServiceNotFound
	}
	return s, nil
}

func (f *fakeCatalog) ClinicCounts(ctx context.Context) (map[clinic.ClinicStatus]int64, error) {
	counts := map[clinic.ClinicStatus]int64{}
	for _, c := range f.clinics {
		counts[c.Status]++
	}
	return counts, nil
}

type fakeHours map[schedule.Weekday]*schedule.WorkingHour

func (f fakeHours) Day(ctx context.Context, clinicID uuid.UUID, day schedule.Weekday) (*schedule.WorkingHour, error) {
	h, ok := f[day]
	if !ok {
		return nil, schedule.ErrNoWorkingHours
	}
	return h, nil
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	clinicID  uuid.UUID
	serviceID uuid.UUID
	patient   auth.Actor
	staff     auth.Actor
}

var (
	// Sunday noon; the Monday below is entirely in the future.
	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	monday  = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func clockRef(h, m int) *schedule.ClockTime {
	c := schedule.NewClock(h, m)
	return &c
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clinicID := uuid.New()
	serviceID := uuid.New()
	catalog := &fakeCatalog{
		clinics: map[uuid.UUID]*clinic.Clinic{
			clinicID: {ID: clinicID, Name: "Smile Studio", Timezone: "UTC", Status: clinic.ClinicApproved},
		},
		services: map[uuid.UUID]*clinic.Service{
			serviceID: {ID: serviceID, ClinicID: clinicID, Name: "Check-up", PriceCents: 5000, DurationMinutes: 30, Active: true},
		},
	}
	hours := fakeHours{
		schedule.Monday: {
			ClinicID:    clinicID,
			Day:         schedule.Monday,
			Open:        schedule.NewClock(9, 0),
			Close:       schedule.NewClock(17, 0),
			SlotMinutes: 30,
			BreakStart:  clockRef(12, 0),
			BreakEnd:    clockRef(13, 0),
		},
	}

	repo := newMemRepo()
	svc := NewService(ServiceConfig{
		Repo:    repo,
		Locker:  redisclient.NewRedisClinicLocker(client, 5*time.Second, 2*time.Second),
		Catalog: catalog,
		Hours:   hours,
		Metrics: metrics.NewBookingMetrics(prometheus.NewRegistry()),
		Now:     func() time.Time { return testNow },
	})

	return &fixture{
		svc:       svc,
		repo:      repo,
		clinicID:  clinicID,
		serviceID: serviceID,
		patient:   auth.Actor{UserID: uuid.New(), Role: auth.RolePatient},
		staff:     auth.Actor{UserID: uuid.New(), Role: auth.RoleClinicStaff, ClinicID: clinicID},
	}
}

func (f *fixture) book(t *testing.T, actor auth.Actor, start time.Time) (*Appointment, error) {
	t.Helper()
	return f.svc.Book(context.Background(), actor, BookRequest{
		ClinicID:  f.clinicID,
		ServiceID: f.serviceID,
		StartTime: start,
	})
}

func TestBookPersistsBookedAppointment(t *testing.T) {
	f := newFixture(t)

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	assert.Equal(t, StatusBooked, appt.Status)
	assert.Equal(t, at(10, 30), appt.EndTime, "end is start plus service duration")
	assert.Equal(t, int64(5000), appt.TotalAmountCents)
	assert.Equal(t, PaymentUnpaid, appt.PaymentStatus)
	assert.Equal(t, f.patient.UserID, appt.PatientID)

	require.Len(t, f.repo.events, 1)
	assert.Equal(t, EventAppointmentBooked, f.repo.events[0].EventType)
}

func TestBookRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		actor auth.Actor
		start time.Time
		want  error
	}{
		{"before opening", f.patient, at(8, 0), schedule.ErrOutsideHours},
		{"runs past closing", f.patient, at(16, 45), schedule.ErrOutsideHours},
		{"inside break", f.patient, at(12, 0), schedule.ErrDuringBreak},
		{"overlaps break start", f.patient, at(11, 45), schedule.ErrDuringBreak},
		{"closed day", f.patient, at(24+10, 0), schedule.ErrClinicClosed},
		{"in the past", f.patient, testNow.Add(-time.Hour), ErrSlotInPast},
		{"staff cannot book", f.staff, at(10, 0), auth.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.book(t, tc.actor, tc.start)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.repo.appts)
}

func TestBookRejectsUnbookableClinicAndService(t *testing.T) {
	f := newFixture(t)
	catalog := f.svc.catalog.(*fakeCatalog)

	catalog.services[f.serviceID].Active = false
	_, err := f.book(t, f.patient, at(10, 0))
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	catalog.services[f.serviceID].Active = true
	catalog.clinics[f.clinicID].Status = clinic.ClinicPending
	_, err = f.book(t, f.patient, at(10, 0))
	assert.ErrorIs(t, err, ErrClinicNotBookable)

	_, err = f.svc.Book(context.Background(), f.patient, BookRequest{ClinicID: f.clinicID, ServiceID: uuid.New(), StartTime: at(10, 0)})
	assert.ErrorIs(t, err, clinic.ErrServiceNotFound)
}

func TestBookRejectsOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	other := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}
	_, err = f.book(t, other, at(10, 15))
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = f.book(t, other, at(10, 30))
	assert.NoError(t, err, "adjacent interval is free")
}

func TestBookAfterCancellationFreesSlot(t *testing.T) {
	f := newFixture(t)

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), f.patient, appt.ID, StatusCancelled)
	require.NoError(t, err)

	other := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}
	_, err = f.book(t, other, at(10, 0))
	assert.NoError(t, err)
}

func TestConcurrentBookingsHaveOneWinner(t *testing.T) {
	f := newFixture(t)

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		taken   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			patient := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}
			_, err := f.book(t, patient, at(14, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrSlotTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, taken)
	assert.Len(t, f.repo.appts, 1)
}

func TestAvailableSlotsExcludesBookedBreakAndPast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, slots, 14, "09:00-17:00 in 30 minute steps without the lunch hour")

	_, err = f.book(t, f.patient, at(9, 0))
	require.NoError(t, err)

	slots, err = f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 13)
	assert.Equal(t, at(9, 30), slots[0].StartTime)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].StartTime.Before(slots[i].StartTime))
	}

	f.svc.now = func() time.Time { return at(15, 10) }
	slots, err = f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, at(15, 30), slots[0].StartTime)
}

func TestAvailableSlotsLookupMissIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func() ([]schedule.Slot, error){
		"unknown clinic": func() ([]schedule.Slot, error) {
			return f.svc.AvailableSlots(ctx, uuid.New(), f.serviceID, "2026-03-02")
		},
		"unknown service": func() ([]schedule.Slot, error) {
			return f.svc.AvailableSlots(ctx, f.clinicID, uuid.New(), "2026-03-02")
		},
		"closed day": func() ([]schedule.Slot, error) {
			return f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "2026-03-03")
		},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			slots, err := call()
			require.NoError(t, err)
			assert.NotNil(t, slots)
			assert.Empty(t, slots)
		})
	}

	_, err := f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "02/03/2026")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	t.Run("clinic not approved", func(t *testing.T) {
		f.svc.catalog.(*fakeCatalog).clinics[f.clinicID].Status = clinic.ClinicPending

		slots, err := f.svc.AvailableSlots(ctx, f.clinicID, f.serviceID, "2026-03-02")
		require.NoError(t, err)
		assert.NotNil(t, slots)
		assert.Empty(t, slots)

		_, err = f.book(t, f.patient, at(10, 0))
		assert.ErrorIs(t, err, ErrClinicNotBookable)
	})
}

func TestSetStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, f.patient, appt.ID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition, "patients cannot confirm")

	for _, next := range []AppointmentStatus{StatusConfirmed, StatusInProgress, StatusCompleted} {
		appt, err = f.svc.SetStatus(ctx, f.staff, appt.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, appt.Status)
	}

	for _, next := range Statuses {
		_, err = f.svc.SetStatus(ctx, f.staff, appt.ID, next)
		assert.ErrorIs(t, err, ErrInvalidTransition, "completed is final")
	}
}

func TestSetStatusChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	stranger := auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}
	_, err = f.svc.SetStatus(ctx, stranger, appt.ID, StatusCancelled)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	otherStaff := auth.Actor{UserID: uuid.New(), Role: auth.RoleClinicStaff, ClinicID: uuid.New()}
	_, err = f.svc.SetStatus(ctx, otherStaff, appt.ID, StatusConfirmed)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	admin := auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}
	_, err = f.svc.SetStatus(ctx, admin, appt.ID, StatusCancelled)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = f.svc.SetStatus(ctx, f.staff, uuid.New(), StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRescheduleMovesAndKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, f.staff, appt.ID, StatusConfirmed)
	require.NoError(t, err)

	other, err := f.book(t, auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}, at(14, 0))
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, f.patient, appt.ID, at(14, 0))
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = f.svc.Reschedule(ctx, f.patient, appt.ID, at(8, 0))
	assert.ErrorIs(t, err, schedule.ErrOutsideHours)

	moved, err := f.svc.Reschedule(ctx, f.patient, appt.ID, at(10, 15))
	require.NoError(t, err, "overlapping its own old interval is fine")
	assert.Equal(t, at(10, 15), moved.StartTime)
	assert.Equal(t, at(10, 45), moved.EndTime)
	assert.Equal(t, StatusConfirmed, moved.Status)
	assert.ErrorIs(t, CanTransition(StatusConfirmed, StatusBooked, auth.RolePatient), ErrInvalidTransition,
		"reschedule must not produce a status change the table forbids")

	_, err = f.svc.Reschedule(ctx, f.patient, other.ID, at(15, 0))
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRescheduleRejectsFinishedAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, f.patient, appt.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, f.patient, appt.ID, at(11, 0))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRescheduleRejectsUnbookableClinicAndService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	catalog := f.svc.catalog.(*fakeCatalog)

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	catalog.services[f.serviceID].Active = false
	_, err = f.svc.Reschedule(ctx, f.patient, appt.ID, at(11, 0))
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	catalog.services[f.serviceID].Active = true
	catalog.clinics[f.clinicID].Status = clinic.ClinicRejected
	_, err = f.svc.Reschedule(ctx, f.patient, appt.ID, at(11, 0))
	assert.ErrorIs(t, err, ErrClinicNotBookable)

	got, err := f.svc.Get(ctx, f.patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), got.StartTime)
}

func TestGetAndListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.patient, appt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.staff, appt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, appt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}, appt.ID)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	mine, err := f.svc.ListForPatient(ctx, f.patient, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	clinicList, err := f.svc.ListForClinic(ctx, f.staff, ListFilter{Status: StatusBooked})
	require.NoError(t, err)
	assert.Len(t, clinicList, 1)

	_, err = f.svc.ListForClinic(ctx, f.patient, ListFilter{})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	_, err = f.svc.ListForClinic(ctx, f.staff, ListFilter{Status: "WAITING"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListForClinicResolvesDatesInClinicTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	f.svc.catalog.(*fakeCatalog).clinics[f.clinicID].Timezone = "Asia/Tokyo"

	repo := &filterRecorder{memRepo: f.repo}
	f.svc.repo = repo

	_, err = f.svc.ListForClinic(ctx, f.staff, ListFilter{FromDate: "2026-03-02", ToDate: "2026-03-03"})
	require.NoError(t, err)
	assert.True(t, repo.last.From.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, tokyo)))
	assert.True(t, repo.last.To.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, tokyo)))
	assert.Equal(t, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), repo.last.From.UTC())

	_, err = f.svc.ListForClinic(ctx, f.staff, ListFilter{FromDate: "03/02/2026"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.ListForClinic(ctx, f.staff, ListFilter{FromDate: "2026-03-03", ToDate: "2026-03-02"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

type filterRecorder struct {
	*memRepo
	last ListFilter
}

func (r *filterRecorder) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, error) {
	r.last = f
	return r.memRepo.ListAppointments(ctx, f)
}

func TestUpdateNotesStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)

	_, err = f.svc.UpdateNotes(ctx, f.patient, appt.ID, "sensitive tooth")
	assert.ErrorIs(t, err, auth.ErrForbidden)

	updated, err := f.svc.UpdateNotes(ctx, f.staff, appt.ID, "  upper left molar  ")
	require.NoError(t, err)
	assert.Equal(t, "upper left molar", updated.Notes)
}

func TestAnalyticsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.book(t, f.patient, at(10, 0))
	require.NoError(t, err)
	for _, next := range []AppointmentStatus{StatusInProgress, StatusCompleted} {
		_, err = f.svc.SetStatus(ctx, f.staff, appt.ID, next)
		require.NoError(t, err)
	}
	_, err = f.book(t, f.patient, at(11, 0))
	require.NoError(t, err)

	_, err = f.svc.Analytics(ctx, f.staff)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	out, err := f.svc.Analytics(ctx, auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.TotalAppointments)
	assert.Equal(t, int64(1), out.AppointmentsByStatus[StatusCompleted])
	assert.Equal(t, int64(1), out.AppointmentsByStatus[StatusBooked])
	assert.Equal(t, int64(0), out.AppointmentsByStatus[StatusNoShow])
	assert.Equal(t, int64(5000), out.CompletedRevenueCents)
	assert.Equal(t, int64(1), out.ClinicsByStatus["APPROVED"])
}
