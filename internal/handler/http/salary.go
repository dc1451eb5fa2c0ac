package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	GetActive(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
}

type SalaryHandlerImpl struct {
	salaryService salary.SalaryService
}

func NewSalaryHandler(salaryService salary.SalaryService) SalaryHandler {
	return &SalaryHandlerImpl{salaryService: salaryService}
}

// Create implements SalaryHandler.
func (h *SalaryHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req salary.CreateStructureRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	structure, err := h.salaryService.CreateStructure(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure created successfully", structure)
}

// Update implements SalaryHandler.
func (h *SalaryHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req salary.UpdateStructureRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	structure, err := h.salaryService.UpdateStructure(r.Context(), actor, chi.URLParam(r, "userID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary structure updated successfully", structure)
}

// GetActive implements SalaryHandler.
func (h *SalaryHandlerImpl) GetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	structure, err := h.salaryService.GetActiveStructure(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, structure)
}

// List implements SalaryHandler.
func (h *SalaryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "page", "limit")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := salary.ListFilter{
		DepartmentID: queryString(r, "department"),
		Search:       queryString(r, "search"),
		Page:         intOr(ints["page"], 1),
		Limit:        intOr(ints["limit"], 20),
	}

	result, err := h.salaryService.ListActiveStructures(r.Context(), actor, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithPagination(w, result.Structures, response.NewPagination(result.Total, result.Page, result.Limit))
}

// History implements SalaryHandler.
func (h *SalaryHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	history, err := h.salaryService.StructureHistory(r.Context(), actor, chi.URLParam(r, "userID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, history)
}
