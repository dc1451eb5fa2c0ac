package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Request(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	MyLeaves(w http.ResponseWriter, r *http.Request)
	MyBalance(w http.ResponseWriter, r *http.Request)
	Pending(w http.ResponseWriter, r *http.Request)
	All(w http.ResponseWriter, r *http.Request)
	Calendar(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// Request implements LeaveHandler.
func (h *LeaveHandlerImpl) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.RequestLeaveRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	created, err := h.leaveService.RequestLeave(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", created)
}

// Approve implements LeaveHandler.
func (h *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.ApproveLeaveRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	approved, err := h.leaveService.ApproveLeave(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved successfully", approved)
}

// Reject implements LeaveHandler.
func (h *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req leave.RejectLeaveRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	rejected, err := h.leaveService.RejectLeave(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected successfully", rejected)
}

// Cancel implements LeaveHandler.
func (h *LeaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	cancelled, err := h.leaveService.CancelLeave(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled successfully", cancelled)
}

// MyLeaves implements LeaveHandler.
func (h *LeaveHandlerImpl) MyLeaves(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.leaveService.MyLeaves)
}

// Pending implements LeaveHandler.
func (h *LeaveHandlerImpl) Pending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.leaveService.PendingLeaves)
}

// All implements LeaveHandler.
func (h *LeaveHandlerImpl) All(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.leaveService.AllLeaves)
}

type leaveLister func(ctx context.Context, actor user.Actor, filter leave.ListFilter) (leave.ListLeaveResponse, error)

func (h *LeaveHandlerImpl) list(w http.ResponseWriter, r *http.Request, fetch leaveLister) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	filter, err := parseLeaveFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := fetch(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithPagination(w, result.Leaves, response.NewPagination(result.Total, result.Page, result.Limit))
}

func parseLeaveFilter(r *http.Request) (leave.ListFilter, error) {
	ints, err := queryInts(r, "page", "limit")
	if err != nil {
		return leave.ListFilter{}, err
	}

	filter := leave.ListFilter{
		UserID: queryString(r, "user_id"),
		Page:   intOr(ints["page"], 1),
		Limit:  intOr(ints["limit"], 20),
	}
	if status := queryString(r, "status"); status != nil {
		s := leave.Status(*status)
		filter.Status = &s
	}
	if leaveType := queryString(r, "leave_type"); leaveType != nil {
		t := leave.LeaveType(*leaveType)
		filter.LeaveType = &t
	}

	var errs validator.ValidationErrors
	if raw := queryString(r, "start_date"); raw != nil {
		if d, ok := validator.IsValidDate(*raw); ok {
			filter.From = &d
		} else {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if raw := queryString(r, "end_date"); raw != nil {
		if d, ok := validator.IsValidDate(*raw); ok {
			filter.To = &d
		} else {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	return filter, errs.Err()
}

// Calendar implements LeaveHandler.
func (h *LeaveHandlerImpl) Calendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "month", "year")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := leave.CalendarFilter{
		Month:  intOr(ints["month"], 0),
		Year:   intOr(ints["year"], 0),
		UserID: queryString(r, "user_id"),
	}

	leaves, err := h.leaveService.CalendarLeaves(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, leaves)
}

// MyBalance implements LeaveHandler.
func (h *LeaveHandlerImpl) MyBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "year")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	balance, err := h.leaveService.MyBalance(r.Context(), actor, intOr(ints["year"], 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, balance)
}
