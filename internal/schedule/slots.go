package schedule

import (
	"time"
)

// Slot is a bookable [StartTime, EndTime) interval.
type Slot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// SlotRequest is everything GenerateSlots needs for one clinic day.
type SlotRequest struct {
	Hours           WorkingHour
	Date            time.Time
	Location        *time.Location
	ServiceDuration time.Duration
	// Busy holds the non-cancelled appointments of the clinic on Date.
	Busy []Interval
	// NotBefore drops candidates starting earlier; zero keeps all.
	NotBefore time.Time
}

// GenerateSlots walks the opening window in SlotMinutes steps and emits every
// candidate of ServiceDuration that fits inside the window, misses the break and
// misses every busy interval. Output is ascending by start time.
func GenerateSlots(req SlotRequest) []Slot {
	slots := []Slot{}

	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	if req.ServiceDuration <= 0 || req.Hours.SlotMinutes <= 0 {
		return slots
	}
	if WeekdayOf(req.Date.In(loc)) != req.Hours.Day {
		return slots
	}

	window, brk := req.Hours.Window(req.Date, loc)
	step := time.Duration(req.Hours.SlotMinutes) * time.Minute

	for start := window.Start; !start.Add(req.ServiceDuration).After(window.End); start = start.Add(step) {
		candidate := Interval{Start: start, End: start.Add(req.ServiceDuration)}

		if !req.NotBefore.IsZero() && candidate.Start.Before(req.NotBefore) {
			continue
		}
		if brk != nil && brk.Overlaps(candidate) {
			continue
		}
		if overlapsAny(candidate, req.Busy) {
			continue
		}

		slots = append(slots, Slot{
			StartTime: candidate.Start,
			EndTime:   candidate.End,
			Available: true,
		})
	}

	return slots
}

func overlapsAny(c Interval, busy []Interval) bool {
	for _, b := range busy {
		if b.Overlaps(c) {
			return true
		}
	}
	return false
}

// DayBounds returns [midnight, next midnight) of date's calendar day in loc.
func DayBounds(date time.Time, loc *time.Location) Interval {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// ParseDate parses a YYYY-MM-DD calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
