package model

import (
	"strconv"
	"strings"
	"time"

	"telegram-itmo-schedule/internal/domain"
)

// MoscowTZ is the fixed UTC+3 offset all timetable arithmetic uses.
var MoscowTZ = time.FixedZone("MSK", 3*60*60)

// Now returns the current wall-clock time in Moscow.
func Now() time.Time { return time.Now().In(MoscowTZ) }

// Week parity values. The university alternates timetables between odd and
// even weeks.
const (
	OddWeek  = 1
	EvenWeek = 2
)

// DefaultParityAnchor is a Monday known to start an even week.
var DefaultParityAnchor = time.Date(2025, time.October, 6, 0, 0, 0, 0, MoscowTZ)

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (monday, sunday time.Time) {
	t = t.In(MoscowTZ)
	back := (int(t.Weekday()) + 6) % 7
	monday = time.Date(t.Year(), t.Month(), t.Day()-back, 0, 0, 0, 0, MoscowTZ)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// WeekParity reports whether t falls on an odd or even week relative to the
// anchor Monday, which is defined to start an even week. Dates before the
// anchor alternate correctly as well.
func WeekParity(t, anchor time.Time) int {
	days := daysBetween(anchor, t)
	weeks := floorDiv(days, 7)
	if mod(weeks, 2) == 0 {
		return EvenWeek
	}
	return OddWeek
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.In(MoscowTZ).Date()
	ty, tm, td := to.In(MoscowTZ).Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	u := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// ParseDayMonth parses user input of the form DD.MM or DD/MM into a date in
// the current Moscow year. Whitespace and single-digit components are fine;
// anything that is not a real calendar date yields ErrInvalidDate.
func ParseDayMonth(input string, now time.Time) (time.Time, error) {
	s := strings.ReplaceAll(strings.TrimSpace(input), "/", ".")
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return time.Time{}, domain.ErrInvalidDate
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, domain.ErrInvalidDate
	}
	t := time.Date(now.In(MoscowTZ).Year(), time.Month(month), day, 0, 0, 0, 0, MoscowTZ)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t, nil
}
