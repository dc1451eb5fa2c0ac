package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
)

type CalendarHandler interface {
	WorkingDays(w http.ResponseWriter, r *http.Request)
}

type CalendarHandlerImpl struct {
	calendarService calendar.CalendarService
}

func NewCalendarHandler(calendarService calendar.CalendarService) CalendarHandler {
	return &CalendarHandlerImpl{calendarService: calendarService}
}

// WorkingDays implements CalendarHandler.
func (h *CalendarHandlerImpl) WorkingDays(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "month", "year")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	month, year := intOr(ints["month"], 0), intOr(ints["year"], 0)

	days, err := h.calendarService.WorkingDays(r.Context(), actor.OrganizationID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, calendar.WorkingDaysResponse{Month: month, Year: year, WorkingDays: days})
}
