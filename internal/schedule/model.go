// Package schedule holds clinic working hours and derives bookable slots from them.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidClock   = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidWeekday = errors.New("invalid day of week")
	ErrInvalidHours   = errors.New("invalid working hours")
	ErrNoWorkingHours = errors.New("no working hours for day")
	ErrClinicClosed   = errors.New("clinic is closed on that day")
	ErrOutsideHours   = errors.New("requested time is outside working hours")
	ErrDuringBreak    = errors.New("requested time overlaps the clinic break")
)

type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Week lists the days in display order.
var Week = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromTimeWeekday = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return fromTimeWeekday[t.Weekday()]
}

func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return d, nil
}

func (d Weekday) Valid() bool {
	return d.index() >= 0
}

func (d Weekday) index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

// ClockTime is a local time of day in minutes after midnight.
type ClockTime int

const minutesPerDay = 24 * 60

func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM" in 24-hour format. "24:00" is accepted as the
// end of the day.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return ClockTime(minutesPerDay), nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

// Valid reports whether c lies within [00:00, 24:00].
func (c ClockTime) Valid() bool {
	return c >= 0 && c <= minutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at this clock time on date's calendar day in loc.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClock, string(b))
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// WorkingHour is one clinic's schedule for one weekday. SlotMinutes is the
// step between candidate start times; the booked service decides slot length.
type WorkingHour struct {
	ClinicID    uuid.UUID  `json:"clinicId"`
	Day         Weekday    `json:"dayOfWeek"`
	Open        ClockTime  `json:"openTime"`
	Close       ClockTime  `json:"closeTime"`
	SlotMinutes int        `json:"slotDuration"`
	BreakStart  *ClockTime `json:"breakStart,omitempty"`
	BreakEnd    *ClockTime `json:"breakEnd,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (w WorkingHour) Validate() error {
	if !w.Day.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWeekday, w.Day)
	}
	if !w.Open.Valid() || !w.Close.Valid() || w.Open == minutesPerDay {
		return fmt.Errorf("%w: %s times out of range", ErrInvalidHours, w.Day)
	}
	if w.Close <= w.Open {
		return fmt.Errorf("%w: %s close time must be after open time", ErrInvalidHours, w.Day)
	}
	if w.SlotMinutes <= 0 {
		return fmt.Errorf("%w: %s slot duration must be positive", ErrInvalidHours, w.Day)
	}
	if (w.BreakStart == nil) != (w.BreakEnd == nil) {
		return fmt.Errorf("%w: %s break needs both start and end", ErrInvalidHours, w.Day)
	}
	if w.BreakStart != nil {
		bs, be := *w.BreakStart, *w.BreakEnd
		if bs >= be {
			return fmt.Errorf("%w: %s break start must be before break end", ErrInvalidHours, w.Day)
		}
		if bs < w.Open || be > w.Close {
			return fmt.Errorf("%w: %s break must fall within opening hours", ErrInvalidHours, w.Day)
		}
	}
	return nil
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Window returns the opening interval and, if configured, the break on date.
func (w WorkingHour) Window(date time.Time, loc *time.Location) (Interval, *Interval) {
	open := Interval{Start: w.Open.On(date, loc), End: w.Close.On(date, loc)}
	if w.BreakStart == nil || w.BreakEnd == nil {
		return open, nil
	}
	return open, &Interval{Start: w.BreakStart.On(date, loc), End: w.BreakEnd.On(date, loc)}
}

// Admits checks that [start, end) is bookable under these hours.
func (w WorkingHour) Admits(start, end time.Time, loc *time.Location) error {
	local := start.In(loc)
	if WeekdayOf(local) != w.Day {
		return ErrClinicClosed
	}
	open, brk := w.Window(local, loc)
	if start.Before(open.Start) || end.After(open.End) || !end.After(start) {
		return fmt.Errorf("%w: %s-%s", ErrOutsideHours, w.Open, w.Close)
	}
	if brk != nil && brk.Overlaps(Interval{Start: start, End: end}) {
		return fmt.Errorf("%w: %s-%s", ErrDuringBreak, w.BreakStart, w.BreakEnd)
	}
	return nil
}

// ValidateWeek validates each entry and rejects duplicate days.
func ValidateWeek(entries []WorkingHour) error {
	seen := make(map[Weekday]struct{}, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.Day]; dup {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidHours, e.Day)
		}
		seen[e.Day] = struct{}{}
	}
	return nil
}

// DefaultWeek is the Mon-Fri 09:00-17:00 template offered when a clinic has
// not configured hours yet. It is never persisted.
func DefaultWeek(clinicID uuid.UUID) []WorkingHour {
	days := []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}
	out := make([]WorkingHour, 0, len(days))
	for _, d := range days {
		out = append(out, WorkingHour{
			ClinicID:    clinicID,
			Day:         d,
			Open:        NewClock(9, 0),
			Close:       NewClock(17, 0),
			SlotMinutes: 30,
		})
	}
	return out
}

func sortWeek(entries []WorkingHour) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Day.index() < entries[j].Day.index()
	})
}
