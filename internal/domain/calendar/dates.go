package calendar

import "time"

// StartOfDay truncates t to midnight UTC of its calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last calendar day of the month.
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Weekdays lists every Monday–Friday date in [start, end], both inclusive.
func Weekdays(start, end time.Time) []time.Time {
	start, end = StartOfDay(start), StartOfDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			days = append(days, d)
		}
	}
	return days
}

// CountWorkingDays counts the weekdays of the month that are not holidays.
func CountWorkingDays(year, month int, holidays []Holiday) int {
	start, end := MonthRange(year, month)
	count := 0
	for _, day := range Weekdays(start, end) {
		if !isHoliday(day, holidays) {
			count++
		}
	}
	return count
}

func isHoliday(day time.Time, holidays []Holiday) bool {
	for _, h := range holidays {
		if h.OccursOn(day) {
			return true
		}
	}
	return false
}
