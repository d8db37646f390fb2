package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func mondayHours(t *testing.T) WorkingHour {
	return WorkingHour{Day: Monday, Open: clock(t, "09:00"), Close: clock(t, "17:00"), SlotMinutes: 30}
}

func TestGenerateSlotsFullDay(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 30 * time.Minute,
	})

	require.Len(t, slots, 16)
	assert.Equal(t, at(9, 0), slots[0].StartTime)
	assert.Equal(t, at(9, 30), slots[0].EndTime)
	assert.Equal(t, at(16, 30), slots[15].StartTime)
	assert.Equal(t, at(17, 0), slots[15].EndTime)
	for i, s := range slots {
		assert.True(t, s.Available)
		if i > 0 {
			assert.True(t, slots[i-1].StartTime.Before(s.StartTime), "slots must ascend")
		}
	}
}

func TestGenerateSlotsSkipsBookedInterval(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 30 * time.Minute,
		Busy:            []Interval{{Start: at(10, 0), End: at(10, 30)}},
	})

	require.Len(t, slots, 15)
	for _, s := range slots {
		assert.NotEqual(t, at(10, 0), s.StartTime)
	}
}

func TestGenerateSlotsRespectsBreak(t *testing.T) {
	hours := mondayHours(t)
	hours.BreakStart, hours.BreakEnd = clockRef(t, "12:00"), clockRef(t, "13:00")

	slots := GenerateSlots(SlotRequest{
		Hours:           hours,
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 45 * time.Minute,
	})

	brk := Interval{Start: at(12, 0), End: at(13, 0)}
	open := Interval{Start: at(9, 0), End: at(17, 0)}
	require.NotEmpty(t, slots)
	for _, s := range slots {
		iv := Interval{Start: s.StartTime, End: s.EndTime}
		assert.False(t, brk.Overlaps(iv), "slot %s overlaps break", s.StartTime)
		assert.False(t, s.StartTime.Before(open.Start))
		assert.False(t, s.EndTime.After(open.End))
		assert.Equal(t, 45*time.Minute, s.EndTime.Sub(s.StartTime))
	}
	// 09:00..11:00 start before the break, 13:00..16:00 after it
	assert.Equal(t, at(11, 0), slots[4].StartTime)
	assert.Equal(t, at(13, 0), slots[5].StartTime)
	assert.Equal(t, at(16, 0), slots[len(slots)-1].StartTime)
}

func TestGenerateSlotsServiceLongerThanStep(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 60 * time.Minute,
		Busy:            []Interval{{Start: at(10, 0), End: at(10, 30)}},
	})

	// starts 09:00..16:00 every 30 min = 15, minus 09:30 and 10:00 which hit the booking
	require.Len(t, slots, 13)
	assert.Equal(t, at(9, 0), slots[0].StartTime)
	assert.Equal(t, at(10, 30), slots[1].StartTime)
	assert.Equal(t, at(17, 0), slots[len(slots)-1].EndTime)
}

func TestGenerateSlotsDropsPast(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 30 * time.Minute,
		NotBefore:       at(15, 10),
	})

	require.Len(t, slots, 3)
	assert.Equal(t, at(15, 30), slots[0].StartTime)
}

func TestGenerateSlotsWrongWeekdayIsEmpty(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday.AddDate(0, 0, 1),
		Location:        time.UTC,
		ServiceDuration: 30 * time.Minute,
	})
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestGenerateSlotsServiceLongerThanDay(t *testing.T) {
	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 9 * time.Hour,
	})
	assert.Empty(t, slots)
}

func TestGenerateSlotsIsIdempotent(t *testing.T) {
	req := SlotRequest{
		Hours:           mondayHours(t),
		Date:            monday,
		Location:        time.UTC,
		ServiceDuration: 30 * time.Minute,
		Busy:            []Interval{{Start: at(14, 0), End: at(15, 0)}},
	}
	assert.Equal(t, GenerateSlots(req), GenerateSlots(req))
}

func TestGenerateSlotsInClinicTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	date, err := ParseDate("2026-03-02", ny)
	require.NoError(t, err)

	slots := GenerateSlots(SlotRequest{
		Hours:           mondayHours(t),
		Date:            date,
		Location:        ny,
		ServiceDuration: 30 * time.Minute,
	})

	require.Len(t, slots, 16)
	first := slots[0].StartTime.In(ny)
	assert.Equal(t, 9, first.Hour())
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), slots[0].StartTime.UTC())
}

func TestDayBounds(t *testing.T) {
	b := DayBounds(at(13, 45), time.UTC)
	assert.Equal(t, monday, b.Start)
	assert.Equal(t, monday.AddDate(0, 0, 1), b.End)
}
