package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
)

const EventLeaveDecided = "leave.decided"

// LeaveDecisionPayload is the JSON body of a leave.decided event.
type LeaveDecisionPayload struct {
	LeaveID    string    `json:"leave_id"`
	Status     string    `json:"status"`
	ReviewedBy string    `json:"reviewed_by"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Notes      *string   `json:"notes,omitempty"`
}

type Service interface {
	leave.DecisionNotifier
	// Subscribe opens a stream for one user of one organization.
	Subscribe(organizationID, userID string) (<-chan sse.Event, func())
}

type service struct {
	hub *sse.Hub
}

func NewNotificationService(hub *sse.Hub) Service {
	return &service{hub: hub}
}

// NotifyLeaveDecision pushes the decision to the requester's open streams. Nobody listening is not an error.
func (s *service) NotifyLeaveDecision(ctx context.Context, event leave.LeaveDecided) {
	delivered := s.hub.Publish(streamKey(event.OrganizationID, event.UserID), sse.Event{
		Type: EventLeaveDecided,
		Data: LeaveDecisionPayload{
			LeaveID:    event.LeaveID,
			Status:     string(event.Status),
			ReviewedBy: event.ReviewedBy,
			ReviewedAt: event.ReviewedAt,
			Notes:      event.Notes,
		},
	})
	slog.DebugContext(ctx, "leave decision published",
		"leave_id", event.LeaveID,
		"status", event.Status,
		"delivered", delivered,
	)
}

func (s *service) Subscribe(organizationID, userID string) (<-chan sse.Event, func()) {
	return s.hub.Subscribe(streamKey(organizationID, userID))
}

// streamKey keeps streams of the same user ID in different organizations apart.
func streamKey(organizationID, userID string) string {
	return organizationID + ":" + userID
}
