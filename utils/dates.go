package utils

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	dateLayout   = "2006-01-02"
	yyyymmLayout = "200601"
)

// DateParser converts YYYY-MM-DD to time.Time.
func DateParser(strDate string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", strDate)
	}
	return t, nil
}

// MonthInt returns the numeric month.
func MonthInt(t time.Time) int {
	return int(t.Month())
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// MonthsBetween returns the number of whole calendar months from start's
// month to end's month, ignoring the day of month.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + MonthInt(end) - MonthInt(start)
}

// YYYYMM formats t's month as a six-digit key, e.g. "202412".
func YYYYMM(t time.Time) string {
	return t.Format(yyyymmLayout)
}

// ParseYYYYMM parses a six-digit month key into the month-end date.
func ParseYYYYMM(s string) (time.Time, error) {
	if !IsYYYYMM(s) {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYYMM", s)
	}
	t, err := time.Parse(yyyymmLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %v", s, err)
	}
	return MonthEnd(t), nil
}

// IsYYYYMM reports whether s looks like a six-digit month key with a valid month.
func IsYYYYMM(s string) bool {
	if len(s) != 6 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return false
	}
	m := n % 100
	return m >= 1 && m <= 12
}

// ShiftMonth returns the month key t months after the month containing from.
func ShiftMonth(from time.Time, months int) string {
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	return YYYYMM(first.AddDate(0, months, 0))
}

// RoundTo rounds a float to the specified decimal places.
func RoundTo(val float64, decimals uint32) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
