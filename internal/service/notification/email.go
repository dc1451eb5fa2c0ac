package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

const mailTimeout = 30 * time.Second

// Mailer emails leave decisions to the requester. Sending happens off the request path;
// Wait blocks until every started send has finished.
type Mailer struct {
	emails   email.EmailService
	userRepo user.UserRepository
	wg       sync.WaitGroup
}

func NewMailer(emails email.EmailService, userRepo user.UserRepository) *Mailer {
	return &Mailer{emails: emails, userRepo: userRepo}
}

var _ leave.DecisionNotifier = (*Mailer)(nil)

func (m *Mailer) NotifyLeaveDecision(ctx context.Context, event leave.LeaveDecided) {
	users, err := m.userRepo.GetByIDs(ctx, event.OrganizationID, []string{event.UserID, event.ReviewedBy})
	if err != nil {
		slog.WarnContext(ctx, "leave decision email skipped", "leave_id", event.LeaveID, "error", err)
		return
	}
	requester, ok := users[event.UserID]
	if !ok || requester.Email == "" {
		slog.WarnContext(ctx, "leave decision email skipped, requester has no address", "leave_id", event.LeaveID)
		return
	}

	data := email.LeaveDecisionData{
		EmployeeName: requester.FullName,
		LeaveType:    string(event.LeaveType),
		StartDate:    event.StartDate.Format(validator.DateLayout),
		EndDate:      event.EndDate.Format(validator.DateLayout),
		Approved:     event.Status == leave.StatusApproved,
		ReviewerName: users[event.ReviewedBy].FullName,
	}
	if event.Notes != nil {
		data.Notes = *event.Notes
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		if err := m.emails.SendLeaveDecision(sendCtx, requester.Email, data); err != nil {
			slog.ErrorContext(sendCtx, "leave decision email failed", "leave_id", event.LeaveID, "error", err)
		}
	}()
}

// Wait blocks until pending emails are sent or ctx ends.
func (m *Mailer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fanout forwards each decision to every notifier in order.
type Fanout []leave.DecisionNotifier

func (f Fanout) NotifyLeaveDecision(ctx context.Context, event leave.LeaveDecided) {
	for _, n := range f {
		if n != nil {
			n.NotifyLeaveDecision(ctx, event)
		}
	}
}
