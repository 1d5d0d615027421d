package clock

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used for business days and daily stock scopes.
const DayLayout = "2006-01-02"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

// Fixed is a clock frozen at the wrapped instant. Tests advance it with Advance.
type Fixed struct {
	At time.Time
}

func (f *Fixed) Now() time.Time { return f.At.UTC() }

func (f *Fixed) Advance(d time.Duration) { f.At = f.At.Add(d) }

// BusinessDay formats t as a calendar day in loc.
func BusinessDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay validates a YYYY-MM-DD value.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: expected %s", value, DayLayout)
	}
	return t, nil
}
