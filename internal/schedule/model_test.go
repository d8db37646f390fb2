package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) ClockTime {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func clockRef(t *testing.T, s string) *ClockTime {
	c := clock(t, s)
	return &c
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(570), c)
	assert.Equal(t, "09:30", c.String())

	midnight, err := ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(1440), midnight)
	assert.Equal(t, "24:00", midnight.String())

	for _, bad := range []string{"9.30", "25:00", "24:30", "", "12:60"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestClockJSON(t *testing.T) {
	var w WorkingHour
	err := json.Unmarshal([]byte(`{"dayOfWeek":"MONDAY","openTime":"08:00","closeTime":"12:15","slotDuration":15,"breakStart":"10:00","breakEnd":"10:30"}`), &w)
	require.NoError(t, err)
	assert.Equal(t, NewClock(8, 0), w.Open)
	assert.Equal(t, NewClock(12, 15), w.Close)
	require.NotNil(t, w.BreakStart)
	assert.Equal(t, NewClock(10, 0), *w.BreakStart)

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"openTime":"08:00"`)

	err = json.Unmarshal([]byte(`{"openTime":"8am"}`), &w)
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestWorkingHourValidate(t *testing.T) {
	base := func() WorkingHour {
		return WorkingHour{Day: Monday, Open: clock(t, "09:00"), Close: clock(t, "17:00"), SlotMinutes: 30}
	}

	tests := []struct {
		name    string
		mutate  func(w *WorkingHour)
		wantErr error
	}{
		{"valid", func(w *WorkingHour) {}, nil},
		{"valid with break", func(w *WorkingHour) {
			w.BreakStart, w.BreakEnd = clockRef(t, "12:00"), clockRef(t, "13:00")
		}, nil},
		{"close equals open", func(w *WorkingHour) { w.Close = w.Open }, ErrInvalidHours},
		{"close before open", func(w *WorkingHour) { w.Close = clock(t, "08:00") }, ErrInvalidHours},
		{"zero slot", func(w *WorkingHour) { w.SlotMinutes = 0 }, ErrInvalidHours},
		{"bad day", func(w *WorkingHour) { w.Day = "FUNDAY" }, ErrInvalidWeekday},
		{"half break", func(w *WorkingHour) { w.BreakStart = clockRef(t, "12:00") }, ErrInvalidHours},
		{"inverted break", func(w *WorkingHour) {
			w.BreakStart, w.BreakEnd = clockRef(t, "13:00"), clockRef(t, "12:00")
		}, ErrInvalidHours},
		{"break outside hours", func(w *WorkingHour) {
			w.BreakStart, w.BreakEnd = clockRef(t, "16:30"), clockRef(t, "17:30")
		}, ErrInvalidHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := base()
			tt.mutate(&w)
			err := w.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateWeekRejectsDuplicateDays(t *testing.T) {
	day := WorkingHour{Day: Tuesday, Open: clock(t, "09:00"), Close: clock(t, "12:00"), SlotMinutes: 20}
	assert.NoError(t, ValidateWeek([]WorkingHour{day}))
	assert.ErrorIs(t, ValidateWeek([]WorkingHour{day, day}), ErrInvalidHours)
}

func TestAdmits(t *testing.T) {
	loc := time.UTC
	w := WorkingHour{
		Day:         Monday,
		Open:        clock(t, "09:00"),
		Close:       clock(t, "17:00"),
		SlotMinutes: 30,
		BreakStart:  clockRef(t, "12:00"),
		BreakEnd:    clockRef(t, "13:00"),
	}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	at := func(h, m int) time.Time { return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	assert.NoError(t, w.Admits(at(9, 0), at(9, 30), loc))
	assert.NoError(t, w.Admits(at(16, 30), at(17, 0), loc))
	assert.ErrorIs(t, w.Admits(at(8, 0), at(8, 30), loc), ErrOutsideHours)
	assert.ErrorIs(t, w.Admits(at(16, 45), at(17, 15), loc), ErrOutsideHours)
	assert.ErrorIs(t, w.Admits(at(11, 45), at(12, 15), loc), ErrDuringBreak)
	assert.ErrorIs(t, w.Admits(at(9, 0).AddDate(0, 0, 1), at(9, 30).AddDate(0, 0, 1), loc), ErrClinicClosed)
}

func TestClinicClosingAtMidnight(t *testing.T) {
	loc := time.UTC
	w := WorkingHour{Day: Monday, Open: clock(t, "18:00"), Close: clock(t, "24:00"), SlotMinutes: 30}
	require.NoError(t, w.Validate())

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	lastStart := monday.Add(23*time.Hour + 30*time.Minute)
	assert.NoError(t, w.Admits(lastStart, monday.AddDate(0, 0, 1), loc))
	assert.ErrorIs(t, w.Admits(monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 1).Add(30*time.Minute), loc), ErrClinicClosed)

	slots := GenerateSlots(SlotRequest{Hours: w, Date: monday, Location: loc, ServiceDuration: 30 * time.Minute})
	require.Len(t, slots, 12)
	assert.Equal(t, lastStart, slots[11].StartTime)

	opensAtMidnight := WorkingHour{Day: Monday, Open: clock(t, "24:00"), Close: clock(t, "24:00"), SlotMinutes: 30}
	assert.ErrorIs(t, opensAtMidnight.Validate(), ErrInvalidHours)
}

func TestWeekdayOfUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// Sunday 20:00 UTC is already Monday in Tokyo.
	instant := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, Sunday, WeekdayOf(instant))
	assert.Equal(t, Monday, WeekdayOf(instant.In(tokyo)))
}

func TestDefaultWeek(t *testing.T) {
	clinicID := uuid.New()
	week := DefaultWeek(clinicID)
	require.Len(t, week, 5)
	assert.Equal(t, Monday, week[0].Day)
	assert.Equal(t, Friday, week[4].Day)
	for _, d := range week {
		assert.Equal(t, clinicID, d.ClinicID)
		assert.Equal(t, "09:00", d.Open.String())
		assert.Equal(t, "17:00", d.Close.String())
		assert.Equal(t, 30, d.SlotMinutes)
		assert.NoError(t, d.Validate())
	}
}

func TestSortWeek(t *testing.T) {
	week := []WorkingHour{{Day: Sunday}, {Day: Wednesday}, {Day: Monday}}
	sortWeek(week)
	assert.Equal(t, []Weekday{Monday, Wednesday, Sunday}, []Weekday{week[0].Day, week[1].Day, week[2].Day})
}
