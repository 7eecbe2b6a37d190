// Package holidays parses production calendar documents of the form
//
//	{"year": 2025, "months": [{"month": 1, "days": "1,2,3,4,5,6,7,8,11,12"}]}
//
// Day tokens may carry a "+" (moved holiday) or "*" (shortened day) suffix.
package holidays

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Calendar struct {
	Year   int     `json:"year"`
	Months []Month `json:"months"`
}

type Month struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// Day is one non-working calendar day.
type Day struct {
	Date  time.Time
	Year  int
	Month int
	Day   int
}

// Key renders the day as YYYY-MM-DD.
func (d Day) Key() string {
	return d.Date.Format("2006-01-02")
}

// ParseFile reads and parses a calendar document from disk.
func ParseFile(path string) ([]Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar file: %w", err)
	}
	return Parse(data)
}

// Parse returns the days listed in a calendar document, in document order.
// Shortened days ("*") are working days and are skipped.
func Parse(data []byte) ([]Day, error) {
	var calendar Calendar
	if err := json.Unmarshal(data, &calendar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar: %w", err)
	}
	if calendar.Year < 1 {
		return nil, fmt.Errorf("calendar year is missing")
	}

	days := []Day{}
	seen := make(map[string]bool)

	for _, month := range calendar.Months {
		if month.Month < 1 || month.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", month.Month)
		}

		for _, token := range strings.Split(month.Days, ",") {
			token = strings.TrimSpace(token)
			if token == "" || strings.HasSuffix(token, "*") {
				continue
			}
			token = strings.TrimSuffix(token, "+")

			day, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", token, month.Month, err)
			}

			date := time.Date(calendar.Year, time.Month(month.Month), day, 0, 0, 0, 0, time.Local)
			if date.Month() != time.Month(month.Month) || day < 1 {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, month.Month)
			}

			d := Day{Date: date, Year: calendar.Year, Month: month.Month, Day: day}
			if seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			days = append(days, d)
		}
	}

	return days, nil
}
