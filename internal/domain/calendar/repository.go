package calendar

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// ListInRange returns holidays dated within [from, to] plus every recurring holiday.
	ListInRange(ctx context.Context, organizationID string, from, to time.Time) ([]Holiday, error)
}
