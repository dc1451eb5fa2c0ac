package calendar

import "context"

type CalendarService interface {
	WorkingDays(ctx context.Context, organizationID string, month, year int) (int, error)
}

type WorkingDaysResponse struct {
	Month       int `json:"month"`
	Year        int `json:"year"`
	WorkingDays int `json:"working_days"`
}
