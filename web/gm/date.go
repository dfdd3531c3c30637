package gm

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the accepted ?date= format
const DateLayout = time.DateOnly

var ErrDateFormat = errors.New("date must be YYYY-MM-DD")

// Date is a calendar day in a location. The zero value means no filter.
type Date struct {
	start time.Time
}

// ParseDate reads a YYYY-MM-DD day in loc. An empty string is the zero Date.
func ParseDate(s string, loc *time.Location) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateFormat, s)
	}
	return Date{start: t}, nil
}

// IsZero reports whether no day is set
func (d Date) IsZero() bool {
	return d.start.IsZero()
}

// Start is midnight at the beginning of the day
func (d Date) Start() time.Time {
	return d.start
}

// End is midnight at the beginning of the next day
func (d Date) End() time.Time {
	return d.start.AddDate(0, 0, 1)
}

// Contains reports whether t falls on the day. The zero Date contains everything.
func (d Date) Contains(t time.Time) bool {
	if d.IsZero() {
		return true
	}
	return !t.Before(d.Start()) && t.Before(d.End())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.start.Format(DateLayout)
}
