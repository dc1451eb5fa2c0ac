package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type AttendanceResponse struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Date         string           `json:"date"`
	CheckIn      *time.Time       `json:"check_in,omitempty"`
	CheckOut     *time.Time       `json:"check_out,omitempty"`
	Status       Status           `json:"status"`
	WorkingHours *decimal.Decimal `json:"working_hours,omitempty"`
	IsApproved   bool             `json:"is_approved"`
	LeaveID      *string          `json:"leave_id,omitempty"`
	PhotoURL     *string          `json:"photo_url,omitempty"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
}

func ToResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		Date:         a.Date.Format(validator.DateLayout),
		CheckIn:      a.CheckIn,
		CheckOut:     a.CheckOut,
		Status:       a.Status,
		WorkingHours: a.WorkingHours,
		IsApproved:   a.IsApproved,
		LeaveID:      a.LeaveID,
		PhotoURL:     a.PhotoURL,
		Latitude:     a.CheckInLatitude,
		Longitude:    a.CheckInLongitude,
	}
}

// CheckInRequest carries the optional photo and position sent with a check-in.
type CheckInRequest struct {
	Photo     *Photo
	Latitude  *float64
	Longitude *float64
}

// Location returns the reported position, or nil when none was sent.
func (r CheckInRequest) Location() *geo.Point {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

func (r CheckInRequest) Validate() error {
	var errs validator.ValidationErrors
	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("location", "latitude and longitude must be sent together")
	}
	if loc := r.Location(); loc != nil && !loc.Valid() {
		errs.Add("location", "latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	return errs.Err()
}

func ToResponses(items []Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToResponse(a))
	}
	return out
}
