package user

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, organizationID, id string) (User, error)
	// GetByIDs returns the users found, keyed by ID. Missing IDs are absent from the map.
	GetByIDs(ctx context.Context, organizationID string, ids []string) (map[string]User, error)
	ListDirectReportIDs(ctx context.Context, organizationID, supervisorID string) ([]string, error)
}
