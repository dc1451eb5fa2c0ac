package calendar

import "time"

type Holiday struct {
	ID             string
	OrganizationID string
	Date           time.Time
	Name           string
	Type           string
	IsRecurring    bool
}

// OccursOn reports whether the holiday falls on day, matching by calendar date.
// Recurring holidays match the same month and day in every year.
func (h Holiday) OccursOn(day time.Time) bool {
	if h.IsRecurring {
		return h.Date.Month() == day.Month() && h.Date.Day() == day.Day()
	}
	y1, m1, d1 := h.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
