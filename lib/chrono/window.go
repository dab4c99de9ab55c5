package chrono

import (
	"fmt"
	"time"
)

const DayFormat = "2006-01-02"

// Window is an inclusive [Start, End] range of calendar days in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

func ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

func ParseWindow(start, end string) (Window, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return Window{}, err
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Contains(day time.Time) bool {
	day = day.Truncate(24 * time.Hour)
	return !day.Before(w.Start) && !day.After(w.End)
}

// ContainsDay reports whether a YYYY-MM-DD string falls inside the
// window. Unparsable strings are outside by definition.
func (w Window) ContainsDay(s string) bool {
	d, err := ParseDay(s)
	if err != nil {
		return false
	}
	return w.Contains(d)
}

func (w Window) String() string {
	return w.Start.Format(DayFormat) + "_" + w.End.Format(DayFormat)
}

// Compact renders the window the way stocknewsapi.com expects its
// `date` parameter: MMDDYYYY-MMDDYYYY.
func (w Window) Compact() string {
	return w.Start.Format("01022006") + "-" + w.End.Format("01022006")
}
