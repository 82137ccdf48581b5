// Copyright (c) 2025 Gastón Gadea.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the layout of every date stored locally
const ISOLayout = "2006-01-02"

var (
	ErrInvalidDate = errors.New("invalid date")

	isoPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	sheetPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
)

var weekdayNames = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

// IsISO reports whether s is a real calendar date written as YYYY-MM-DD
func IsISO(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse parses a YYYY-MM-DD date at UTC midnight
func Parse(s string) (time.Time, error) {
	if !isoPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Format writes t as YYYY-MM-DD
func Format(t time.Time) string {
	return t.Format(ISOLayout)
}

// Today returns the current date in loc as YYYY-MM-DD
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return Format(time.Now().In(loc))
}

// AddDays shifts an ISO date by n days
func AddDays(iso string, n int) (string, error) {
	t, err := Parse(iso)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, n)), nil
}

// Range returns days consecutive ISO dates starting at from
func Range(from string, days int) ([]string, error) {
	start, err := Parse(from)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, fmt.Errorf("negative range length %d", days)
	}
	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, Format(start.AddDate(0, 0, i)))
	}
	return out, nil
}

// RangeBetween returns every ISO date from from to to, both inclusive.
// An inverted range is empty.
func RangeBetween(from, to string) ([]string, error) {
	start, err := Parse(from)
	if err != nil {
		return nil, err
	}
	end, err := Parse(to)
	if err != nil {
		return nil, err
	}
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, Format(d))
	}
	return out, nil
}

// ToSheet formats an ISO date the way the sheet writes it: D/M/YY
func ToSheet(iso string) (string, error) {
	t, err := Parse(iso)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d/%02d", t.Day(), int(t.Month()), t.Year()%100), nil
}

// ParseSheet parses a sheet date cell (D/M/YY, DD/MM/YYYY or ISO) into
// an ISO date. Two-digit years are in the 2000s.
func ParseSheet(cell string) (string, error) {
	cell = strings.TrimSpace(cell)
	if isoPattern.MatchString(cell) {
		if _, err := Parse(cell); err != nil {
			return "", err
		}
		return cell, nil
	}

	m := sheetPattern.FindStringSubmatch(cell)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, cell)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/2 into March; reject that
	if t.Day() != day || int(t.Month()) != month {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, cell)
	}
	return Format(t), nil
}

// WeekdayName returns the Spanish weekday name of an ISO date
func WeekdayName(iso string) (string, error) {
	t, err := Parse(iso)
	if err != nil {
		return "", err
	}
	return weekdayNames[t.Weekday()], nil
}

// IsWeekend reports whether an ISO date falls on Saturday or Sunday
func IsWeekend(iso string) bool {
	t, err := Parse(iso)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
