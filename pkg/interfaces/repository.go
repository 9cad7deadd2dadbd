package interfaces

import (
	"context"

	"github.com/healthfirst/portal/pkg/types"
)

// AccountRepository persists portal accounts
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *types.Account) error
	GetAccountByID(ctx context.Context, id string) (*types.Account, error)
	GetAccountByEmail(ctx context.Context, role types.UserRole, email string) (*types.Account, error)
	GetAccountByPhone(ctx context.Context, role types.UserRole, phone string) (*types.Account, error)
}

// AvailabilityRepository persists provider weekly templates and block days
type AvailabilityRepository interface {
	GetWeeklyAvailability(ctx context.Context, providerID string) (map[string]types.DayWindow, error)
	ReplaceWeeklyAvailability(ctx context.Context, providerID string, days map[string]types.DayWindow) error
	ListBlockDays(ctx context.Context, providerID string, r types.DateRange) ([]types.BlockDayPayload, error)
	ReplaceBlockDays(ctx context.Context, providerID string, days []types.BlockDayPayload) error
}
