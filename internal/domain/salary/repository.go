package salary

import "context"

type StructureRepository interface {
	GetActive(ctx context.Context, organizationID, userID string) (Structure, error)
	// DeactivateActive flips the user's active row, if any, to inactive.
	DeactivateActive(ctx context.Context, organizationID, userID string) error
	Create(ctx context.Context, s Structure) (Structure, error)
	ListActive(ctx context.Context, organizationID string, filter ListFilter) ([]StructureWithUser, int64, error)
	ListAllActive(ctx context.Context, organizationID string) ([]Structure, error)
	History(ctx context.Context, organizationID, userID string) ([]Structure, error)
}
