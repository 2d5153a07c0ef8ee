package ntime

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// layouts tried, in order, when SQLite hands back a timestamp as text rather than a parsed time.Time
var layouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// NTime represents a nullable time.Time.
// It can be used a scan destination and can be marshalled to JSON.
type NTime struct {
	time    time.Time
	isValid bool // false when Time is null
}

// From wraps a time value, always valid.
func From(t time.Time) NTime {
	return NTime{time: t.UTC(), isValid: true}
}

func Now() NTime {
	return From(time.Now())
}

// Time returns the wrapped time, or the zero value for null timestamps.
func (nt NTime) Time() time.Time {
	return nt.time
}

func (nt NTime) Valid() bool {
	return nt.isValid
}

// UnmarshalJSON parses a quoted RFC3339 time string; JSON null yields an invalid NTime.
func (nt *NTime) UnmarshalJSON(b []byte) error {
	var raw = string(b)
	if raw == "null" {
		*nt = NTime{}
		return nil
	}
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return fmt.Errorf("ntime: expected a quoted timestamp, got %s", raw)
	}
	parsedTime, err := time.Parse(time.RFC3339, raw[1:len(raw)-1])
	if err != nil {
		return err
	}
	*nt = From(parsedTime)
	return nil
}

// MarshalJSON implements the Marshaller interface and operates on values rather than pointers, given NTime's heft.
func (nt NTime) MarshalJSON() ([]byte, error) {
	if nt.isValid {
		return []byte(fmt.Sprintf("%q", nt.time.UTC().Format(time.RFC3339))), nil
	}
	return []byte("null"), nil
}

// Scan implements the Scanner interface.
// The SQLite driver parses columns declared as DATETIME into time.Time, but values written by
// CURRENT_TIMESTAMP defaults or foreign tools may still arrive as text.
func (nt *NTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*nt = NTime{}
	case time.Time:
		*nt = From(v)
	case string:
		return nt.parse(v)
	case []byte:
		return nt.parse(string(v))
	default:
		return fmt.Errorf("ntime: cannot scan %T", value)
	}
	return nil
}

func (nt *NTime) parse(s string) error {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			*nt = From(t)
			return nil
		}
	}
	return fmt.Errorf("ntime: unrecognised timestamp %q", s)
}

// Value implements the driver Valuer interface; the driver formats time.Time values consistently, which keeps
// lexicographic comparisons in SQL meaningful.
func (nt NTime) Value() (driver.Value, error) {
	if nt.isValid {
		return nt.time.UTC(), nil
	}
	return nil, nil
}
