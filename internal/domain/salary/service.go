package salary

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

type SalaryService interface {
	CreateStructure(ctx context.Context, actor user.Actor, req CreateStructureRequest) (StructureResponse, error)
	UpdateStructure(ctx context.Context, actor user.Actor, userID string, req UpdateStructureRequest) (StructureResponse, error)
	GetActiveStructure(ctx context.Context, actor user.Actor, userID string) (StructureResponse, error)
	ListActiveStructures(ctx context.Context, actor user.Actor, filter ListFilter) (ListStructureResponse, error)
	StructureHistory(ctx context.Context, actor user.Actor, userID string) ([]StructureResponse, error)
}
