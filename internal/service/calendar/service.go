package calendar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type CalendarServiceImpl struct {
	holidayRepo calendar.HolidayRepository
	cache       cache.WorkingDaysCache
	metrics     *metrics.Metrics
}

func NewCalendarService(holidayRepo calendar.HolidayRepository, wdCache cache.WorkingDaysCache, m *metrics.Metrics) calendar.CalendarService {
	if wdCache == nil {
		wdCache = cache.NoopWorkingDaysCache{}
	}
	return &CalendarServiceImpl{
		holidayRepo: holidayRepo,
		cache:       wdCache,
		metrics:     m,
	}
}

// WorkingDays counts the weekdays of the month that are not organization holidays.
// Cache failures degrade to a database read.
func (s *CalendarServiceImpl) WorkingDays(ctx context.Context, organizationID string, month, year int) (int, error) {
	if !validator.IsValidMonth(month) {
		return 0, calendar.ErrInvalidMonth
	}
	if !validator.IsValidYear(year) {
		return 0, calendar.ErrInvalidYear
	}

	days, ok, err := s.cache.Get(ctx, organizationID, year, month)
	if err != nil {
		slog.WarnContext(ctx, "working days cache read failed", "organization_id", organizationID, "error", err)
	}
	s.metrics.WorkingDaysCacheLookup(ok)
	if ok {
		return days, nil
	}

	from, to := calendar.MonthRange(year, month)
	holidays, err := s.holidayRepo.ListInRange(ctx, organizationID, from, to)
	if err != nil {
		return 0, fmt.Errorf("list holidays: %w", err)
	}

	days = calendar.CountWorkingDays(year, month, holidays)

	if err := s.cache.Set(ctx, organizationID, year, month, days); err != nil {
		slog.WarnContext(ctx, "working days cache write failed", "organization_id", organizationID, "error", err)
	}

	return days, nil
}
