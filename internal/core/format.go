// Package core provides the receipt domain model and value-formatting helpers.
//
// This file contains display formatting for amounts and calendar labels.
// Amounts are whole won; there is no minor unit.
package core

import (
	"fmt"
	"strconv"
	"time"
)

// FormatWon formats an amount with thousands separators and the won suffix,
// e.g. FormatWon(10300) -> "10,300원".
func FormatWon(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out) + "원"
	}
	return string(out) + "원"
}

// MonthLabel renders a month series label, e.g. "01월".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%02d월", int(t.Month()))
}

// DayLabel renders a daily series label, e.g. "01/15".
func DayLabel(t time.Time) string {
	return t.Format("01/02")
}

// DateKey renders a calendar-day key in YYYY-MM-DD form.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a date in YYYY-MM-DD or RFC 3339 form. Serialized
// receipts carry full timestamps while CSV and form inputs carry bare dates.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
