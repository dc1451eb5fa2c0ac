package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	CreateRun(w http.ResponseWriter, r *http.Request)
	ProcessRun(w http.ResponseWriter, r *http.Request)
	CancelRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)

	GetRecord(w http.ResponseWriter, r *http.Request)
	MyPayslips(w http.ResponseWriter, r *http.Request)
	UpdateRecordStatus(w http.ResponseWriter, r *http.Request)
}

type PayrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &PayrollHandlerImpl{payrollService: payrollService}
}

// CreateRun implements PayrollHandler.
func (h *PayrollHandlerImpl) CreateRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req payroll.CreateRunRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	run, err := h.payrollService.CreateRun(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run created successfully", run)
}

// ProcessRun implements PayrollHandler.
func (h *PayrollHandlerImpl) ProcessRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	run, err := h.payrollService.ProcessRun(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run processed successfully", run)
}

// CancelRun implements PayrollHandler.
func (h *PayrollHandlerImpl) CancelRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	run, err := h.payrollService.CancelRun(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run cancelled successfully", run)
}

// GetRun implements PayrollHandler.
func (h *PayrollHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	run, err := h.payrollService.GetRun(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, run)
}

// ListRuns implements PayrollHandler.
func (h *PayrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "year", "page", "limit")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := payroll.RunFilter{
		Year:  ints["year"],
		Page:  intOr(ints["page"], 1),
		Limit: intOr(ints["limit"], 20),
	}
	if status := queryString(r, "status"); status != nil {
		s := payroll.RunStatus(*status)
		filter.Status = &s
	}

	result, err := h.payrollService.ListRuns(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithPagination(w, result.Runs, response.NewPagination(result.Total, result.Page, result.Limit))
}

// GetRecord implements PayrollHandler.
func (h *PayrollHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	record, err := h.payrollService.GetRecord(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, record)
}

// MyPayslips implements PayrollHandler.
func (h *PayrollHandlerImpl) MyPayslips(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "year")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.payrollService.MyPayslips(r.Context(), actor, ints["year"])
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}

// UpdateRecordStatus implements PayrollHandler.
func (h *PayrollHandlerImpl) UpdateRecordStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req payroll.UpdateRecordStatusRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	record, err := h.payrollService.UpdateRecordStatus(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record status updated successfully", record)
}
