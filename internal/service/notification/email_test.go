package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	user.UserRepository
	users map[string]user.User
	err   error
}

func (s stubUsers) GetByIDs(_ context.Context, _ string, ids []string) (map[string]user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]user.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type sentMail struct {
	to   string
	data email.LeaveDecisionData
}

type stubEmails struct {
	mu   sync.Mutex
	sent []sentMail
}

func (s *stubEmails) SendLeaveDecision(_ context.Context, to string, data email.LeaveDecisionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, data: data})
	return nil
}

var decided = leave.LeaveDecided{
	OrganizationID: "org-1",
	LeaveID:        "leave-1",
	UserID:         "emp-1",
	LeaveType:      leave.LeaveTypeVacation,
	StartDate:      time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	EndDate:        time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
	Status:         leave.StatusRejected,
	ReviewedBy:     "mgr-1",
}

func TestMailer_SendsToRequester(t *testing.T) {
	emails := &stubEmails{}
	mailer := NewMailer(emails, stubUsers{users: map[string]user.User{
		"emp-1": {ID: "emp-1", FullName: "Budi", Email: "budi@acme.test"},
		"mgr-1": {ID: "mgr-1", FullName: "Sari"},
	}})

	notes := "peak season"
	event := decided
	event.Notes = &notes
	mailer.NotifyLeaveDecision(context.Background(), event)
	require.NoError(t, mailer.Wait(context.Background()))

	require.Len(t, emails.sent, 1)
	assert.Equal(t, "budi@acme.test", emails.sent[0].to)
	assert.Equal(t, email.LeaveDecisionData{
		EmployeeName: "Budi",
		LeaveType:    "vacation",
		StartDate:    "2024-06-10",
		EndDate:      "2024-06-12",
		Approved:     false,
		ReviewerName: "Sari",
		Notes:        "peak season",
	}, emails.sent[0].data)
}

func TestMailer_SkipsWhenRequesterUnknown(t *testing.T) {
	emails := &stubEmails{}

	NewMailer(emails, stubUsers{users: map[string]user.User{}}).NotifyLeaveDecision(context.Background(), decided)
	NewMailer(emails, stubUsers{err: errors.New("db down")}).NotifyLeaveDecision(context.Background(), decided)

	assert.Empty(t, emails.sent)
}

type countingNotifier struct{ n int }

func (c *countingNotifier) NotifyLeaveDecision(context.Context, leave.LeaveDecided) { c.n++ }

func TestFanout(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	Fanout{a, nil, b}.NotifyLeaveDecision(context.Background(), decided)
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}
