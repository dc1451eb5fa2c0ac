package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
)

const maxPhotoUploadBytes = 10 << 20

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	MyAttendance(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{attendanceService: attendanceService}
}

// CheckIn implements AttendanceHandler. A multipart body may carry a "photo" file, and the
// "latitude" and "longitude" fields may come as form or query values.
func (h *AttendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req attendance.CheckInRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes+(1<<20))
		if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}

		file, header, err := r.FormFile("photo")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			response.BadRequest(w, "Invalid photo upload", nil)
			return
		default:
			defer file.Close()
			req.Photo = &attendance.Photo{Filename: header.Filename, Content: file}
		}
	}

	coords, err := formFloats(r, "latitude", "longitude")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	req.Latitude, req.Longitude = coords["latitude"], coords["longitude"]

	record, err := h.attendanceService.CheckIn(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in successfully", record)
}

// CheckOut implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckOut(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out successfully", record)
}

// MyAttendance implements AttendanceHandler. Month and year default to the current month.
func (h *AttendanceHandlerImpl) MyAttendance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	ints, err := queryInts(r, "month", "year")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	records, err := h.attendanceService.MyAttendance(r.Context(), actor,
		intOr(ints["month"], int(now.Month())), intOr(ints["year"], now.Year()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}
