package booking

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

const (
	WindowDays = 14
	FirstHour  = 9
	LastHour   = 16
	// PageSize is the number of dates shown per window in the date picker.
	PageSize = 5

	dateLayout = "2006-01-02"

	// heldRatio is the share of slots generated as already taken.
	heldRatio = 0.3
)

// RandomSource drives availability assignment. *gofakeit.Faker and
// *rand.Rand both satisfy it.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a randomly seeded source for production use.
func NewRandomSource() RandomSource {
	return gofakeit.New(0)
}

// Calendar is the set of bookable slots for one booking session. It is built
// once and never changes afterwards.
type Calendar struct {
	reference string
	dates     []string
	slots     map[string][]TimeSlot
}

// GenerateCalendar builds slots for the WindowDays calendar days after the
// local day of reference, skipping Saturdays and Sundays.
func GenerateCalendar(reference time.Time, rng RandomSource) *Calendar {
	if rng == nil {
		rng = NewRandomSource()
	}

	y, m, d := reference.Date()
	c := &Calendar{
		reference: reference.Format(dateLayout),
		slots:     make(map[string][]TimeSlot),
	}

	for offset := 1; offset <= WindowDays; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, reference.Location())
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		date := day.Format(dateLayout)
		daySlots := make([]TimeSlot, 0, LastHour-FirstHour+1)
		for hour := FirstHour; hour <= LastHour; hour++ {
			daySlots = append(daySlots, TimeSlot{
				Date:      date,
				Time:      HourLabel(hour),
				Available: rng.Float64() > heldRatio,
			})
		}

		c.dates = append(c.dates, date)
		c.slots[date] = daySlots
	}

	return c
}

// HourLabel renders a whole hour on the 12-hour clock, e.g. "9:00 AM", "12:00 PM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12:00 AM"
	case hour < 12:
		return fmt.Sprintf("%d:00 AM", hour)
	case hour == 12:
		return "12:00 PM"
	default:
		return fmt.Sprintf("%d:00 PM", hour-12)
	}
}

func (c *Calendar) Reference() string {
	return c.reference
}

// Dates returns the bookable dates in ascending order.
func (c *Calendar) Dates() []string {
	out := make([]string, len(c.dates))
	copy(out, c.dates)
	return out
}

// QueryDay returns the slots of day in hour order, or false when day is
// outside the window or falls on a weekend.
func (c *Calendar) QueryDay(day string) ([]TimeSlot, bool) {
	slots, ok := c.slots[day]
	if !ok {
		return nil, false
	}
	out := make([]TimeSlot, len(slots))
	copy(out, slots)
	return out, true
}

// Lookup finds the calendar's version of the slot at date and time label.
func (c *Calendar) Lookup(date, label string) (TimeSlot, bool) {
	for _, s := range c.slots[date] {
		if s.Time == label {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// IsHeld reports whether slot is unavailable for selection.
func IsHeld(slot TimeSlot) bool {
	return !slot.Available
}

// DateWindow is one page of the date picker.
type DateWindow struct {
	Dates     []string `json:"dates"`
	Start     int      `json:"start"`
	PrevStart int      `json:"prev_start"`
	NextStart int      `json:"next_start"`
	HasPrev   bool     `json:"has_prev"`
	HasNext   bool     `json:"has_next"`
}

// Window returns up to PageSize dates beginning at start. Out-of-range starts
// are clamped. Next/previous offsets step by PageSize but never past either end.
func (c *Calendar) Window(start int) DateWindow {
	n := len(c.dates)
	if start > n-PageSize {
		start = n - PageSize
	}
	if start < 0 {
		start = 0
	}
	end := start + PageSize
	if end > n {
		end = n
	}

	w := DateWindow{
		Dates:   append([]string(nil), c.dates[start:end]...),
		Start:   start,
		HasPrev: start > 0,
		HasNext: start+PageSize < n,
	}
	w.PrevStart = max(0, start-PageSize)
	w.NextStart = start
	if w.HasNext {
		w.NextStart = min(n-PageSize, start+PageSize)
	}
	return w
}
