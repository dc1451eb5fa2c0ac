package attendance

import (
	"context"
	"io"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

// Photo is an optional check-in picture.
type Photo struct {
	Filename string
	Content  io.Reader
}

type AttendanceService interface {
	CheckIn(ctx context.Context, actor user.Actor, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, actor user.Actor) (AttendanceResponse, error)
	MyAttendance(ctx context.Context, actor user.Actor, month, year int) ([]AttendanceResponse, error)
}
