package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket tracks one allocated leave type. Remaining is always derived.
type Bucket struct {
	Total decimal.Decimal
	Used  decimal.Decimal
}

func (b Bucket) Remaining() decimal.Decimal {
	return b.Total.Sub(b.Used)
}

type Balance struct {
	ID             string
	OrganizationID string
	UserID         string
	Year           int
	Sick           Bucket
	Casual         Bucket
	Vacation       Bucket
	UnpaidUsed     decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Allocations are the yearly totals given to a newly created balance.
type Allocations struct {
	Sick     decimal.Decimal
	Casual   decimal.Decimal
	Vacation decimal.Decimal
}

// DefaultAllocations is the policy used when an organization configures nothing else.
func DefaultAllocations() Allocations {
	return Allocations{
		Sick:     decimal.NewFromInt(10),
		Casual:   decimal.NewFromInt(12),
		Vacation: decimal.NewFromInt(15),
	}
}

func NewBalance(organizationID, userID string, year int, alloc Allocations) Balance {
	return Balance{
		OrganizationID: organizationID,
		UserID:         userID,
		Year:           year,
		Sick:           Bucket{Total: alloc.Sick, Used: decimal.Zero},
		Casual:         Bucket{Total: alloc.Casual, Used: decimal.Zero},
		Vacation:       Bucket{Total: alloc.Vacation, Used: decimal.Zero},
		UnpaidUsed:     decimal.Zero,
	}
}

func (b *Balance) bucket(t LeaveType) *Bucket {
	switch t {
	case LeaveTypeSick:
		return &b.Sick
	case LeaveTypeCasual:
		return &b.Casual
	case LeaveTypeVacation:
		return &b.Vacation
	}
	return nil
}

// HasSufficient reports whether days can be taken from the bucket of t.
// Unpaid leave is never limited.
func (b Balance) HasSufficient(t LeaveType, days decimal.Decimal) bool {
	if t == LeaveTypeUnpaid {
		return true
	}
	bucket := b.bucket(t)
	if bucket == nil {
		return false
	}
	return bucket.Remaining().GreaterThanOrEqual(days)
}
