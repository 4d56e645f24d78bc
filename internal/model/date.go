// internal/model/date.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the only accepted textual form of a campaign date.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component. The zero value is not a valid campaign date.
type Date struct {
	t     time.Time
	valid bool
}

// NewDate builds a Date from its calendar parts. Out-of-range parts normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// ParseDate parses text strictly as YYYY-MM-DD. Invalid calendar days such as 2024-02-30 fail.
func ParseDate(text string) (Date, error) {
	if len(text) != len(DateLayout) {
		return Date{}, fmt.Errorf("date %q does not match %s", text, DateLayout)
	}
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return Date{}, fmt.Errorf("date %q does not match %s: %w", text, DateLayout, err)
	}
	return Date{t: t, valid: true}, nil
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Time() time.Time { return d.t }

// IsZero reports whether d is unset. 0001-01-01 is a real day and is not zero.
func (d Date) IsZero() bool { return !d.valid }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n), valid: d.valid}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Value stores the date as YYYY-MM-DD text, which both DATE columns and SQLite TEXT accept and which
// orders lexicographically the same way it orders chronologically.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanText(text string) error {
	// drivers may hand back a full timestamp for DATE columns
	if len(text) > len(DateLayout) {
		text = text[:len(DateLayout)]
	}
	parsed, err := ParseDate(text)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	if text == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(text)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
