package portalapi

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/healthfirst/portal/pkg/types"
)

// Repository errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
)

// MemoryRepository keeps accounts and schedules in process memory
type MemoryRepository struct {
	mu        sync.RWMutex
	accounts  map[string]*types.Account
	weekly    map[string]map[string]types.DayWindow
	blockDays map[string][]types.BlockDayPayload
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:  make(map[string]*types.Account),
		weekly:    make(map[string]map[string]types.DayWindow),
		blockDays: make(map[string][]types.BlockDayPayload),
	}
}

func (r *MemoryRepository) CreateAccount(ctx context.Context, account *types.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return ErrDuplicateEmail
		}
	}
	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetAccountByID(ctx context.Context, id string) (*types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := *a
	return &out, nil
}

func (r *MemoryRepository) GetAccountByEmail(ctx context.Context, role types.UserRole, email string) (*types.Account, error) {
	return r.find(func(a *types.Account) bool {
		return a.Role == role && strings.EqualFold(a.Email, email)
	})
}

func (r *MemoryRepository) GetAccountByPhone(ctx context.Context, role types.UserRole, phone string) (*types.Account, error) {
	return r.find(func(a *types.Account) bool {
		return a.Role == role && a.PhoneNumber == phone
	})
}

func (r *MemoryRepository) find(match func(*types.Account) bool) (*types.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if match(a) {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (r *MemoryRepository) GetWeeklyAvailability(ctx context.Context, providerID string) (map[string]types.DayWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]types.DayWindow, len(r.weekly[providerID]))
	for day, w := range r.weekly[providerID] {
		out[day] = w
	}
	return out, nil
}

func (r *MemoryRepository) ReplaceWeeklyAvailability(ctx context.Context, providerID string, days map[string]types.DayWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make(map[string]types.DayWindow, len(days))
	for day, w := range days {
		copied[day] = w
	}
	r.weekly[providerID] = copied
	return nil
}

// ListBlockDays returns the provider's block days inside r, ordered by
// date. A zero bound leaves that side open.
func (r *MemoryRepository) ListBlockDays(ctx context.Context, providerID string, rng types.DateRange) ([]types.BlockDayPayload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []types.BlockDayPayload{}
	for _, b := range r.blockDays[providerID] {
		if inRange(b.Date, rng) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *MemoryRepository) ReplaceBlockDays(ctx context.Context, providerID string, days []types.BlockDayPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blockDays[providerID] = append([]types.BlockDayPayload(nil), days...)
	return nil
}

func inRange(date string, rng types.DateRange) bool {
	if !rng.StartDate.IsZero() && date < rng.StartDate.Format(types.DateLayout) {
		return false
	}
	if !rng.EndDate.IsZero() && date > rng.EndDate.Format(types.DateLayout) {
		return false
	}
	return true
}
