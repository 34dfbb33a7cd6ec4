package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date text form used by date inputs and the backend.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. Flask serializes datetimes as RFC 1123 with GMT.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// Date is a calendar date with no time of day. The zero Date means absent.
type Date struct {
	t time.Time
}

// NewDate returns the calendar date y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads any of the supported layouts and keeps the date as written,
// without converting between time zones.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Year() int { return d.t.Year() }

func (d Date) Month() time.Month { return d.t.Month() }

func (d Date) Day() int { return d.t.Day() }

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// InMonth reports whether the date falls in the given month of the given year.
func (d Date) InMonth(year int, month time.Month) bool {
	return !d.IsZero() && d.t.Year() == year && d.t.Month() == month
}

// String formats the date as YYYY-MM-DD, or "" when absent.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// UnmarshalJSON accepts a date string, null, or a Mongo extended-JSON
// {"$date": ...} wrapper holding a string or epoch milliseconds.
// Unparseable values decode to the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if parsed, err := ParseDate(s); err == nil {
			*d = parsed
		}
	case '{':
		var wrapped struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Date == nil {
			return nil
		}
		var millis int64
		if err := json.Unmarshal(wrapped.Date, &millis); err == nil {
			t := time.UnixMilli(millis).UTC()
			*d = NewDate(t.Year(), t.Month(), t.Day())
			return nil
		}
		return d.UnmarshalJSON(wrapped.Date)
	}
	return nil
}

// MarshalJSON writes YYYY-MM-DD, or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
