package timeutil

import "time"

// IsWeekend reports whether t falls on a Saturday or Sunday in the service zone.
func IsWeekend(t time.Time) bool {
	switch t.In(Zone).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// civilDate strips the clock and zone so day arithmetic is immune to DST shifts.
func civilDate(t time.Time) time.Time {
	local := t.In(Zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// BusinessDaysBetween counts the Monday-Friday dates d with
// date(start) < d <= date(end), i.e. end is counted and start is not.
// Same day gives 0 and Friday to the following Monday gives 1. When start is
// after end the result is the negated count of the reverse interval.
// No holiday calendar is applied.
func BusinessDaysBetween(start, end time.Time) int {
	from, to := civilDate(start), civilDate(end)
	if from.After(to) {
		return -BusinessDaysBetween(end, start)
	}

	days := int(to.Sub(from).Hours() / 24)

	// Every full week contributes exactly five business days
	weeks := days / 7
	count := weeks * 5

	d := from.AddDate(0, 0, weeks*7)
	for d.Before(to) {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// AddBusinessDays moves date forward by n business days (backward when n is
// negative), skipping Saturdays and Sundays. The wall-clock time is kept.
func AddBusinessDays(date time.Time, n int) time.Time {
	d := date.In(Zone)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if !IsWeekend(d) {
			n--
		}
	}
	return d
}
