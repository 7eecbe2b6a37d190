package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the layout of every date key stored by the application.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// DateKey renders t as a YYYY-MM-DD key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts a YYYY-MM-DD key or an RFC 3339 timestamp and returns
// local midnight of that calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.ParseInLocation(DateLayout, value, time.Local); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
}

// NormalizeDateKey parses value and renders it back as a YYYY-MM-DD key.
func NormalizeDateKey(value string) (string, error) {
	t, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return DateKey(t), nil
}

// DaysInclusive counts calendar days from..to, both ends included.
func DaysInclusive(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours()/24) + 1
}
