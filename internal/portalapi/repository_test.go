package portalapi

import (
	"context"
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryAccounts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.CreateAccount(ctx, &types.Account{
		ID: "p-1", Role: types.RoleProvider, Email: "doc@clinic.com", PhoneNumber: "+15551112222",
	}))
	assert.ErrorIs(t, repo.CreateAccount(ctx, &types.Account{ID: "p-2", Email: "DOC@clinic.com"}), ErrDuplicateEmail)

	a, err := repo.GetAccountByEmail(ctx, types.RoleProvider, "Doc@Clinic.com")
	require.NoError(t, err)
	assert.Equal(t, "p-1", a.ID)

	_, err = repo.GetAccountByEmail(ctx, types.RolePatient, "doc@clinic.com")
	assert.ErrorIs(t, err, ErrAccountNotFound, "lookups are scoped to the role")

	a, err = repo.GetAccountByPhone(ctx, types.RoleProvider, "+15551112222")
	require.NoError(t, err)
	a.FirstName = "changed"

	stored, err := repo.GetAccountByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, stored.FirstName, "callers get copies")

	_, err = repo.GetAccountByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryRepositoryAvailability(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	weekly, err := repo.GetWeeklyAvailability(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, weekly)

	require.NoError(t, repo.ReplaceWeeklyAvailability(ctx, "p-1", map[string]types.DayWindow{
		"monday": {FromTime: "09:00", TillTime: "17:00", IsAvailable: true},
	}))
	require.NoError(t, repo.ReplaceBlockDays(ctx, "p-1", []types.BlockDayPayload{
		{Date: "2025-09-01", FromTime: "09:00", TillTime: "17:00"},
		{Date: "2025-08-15", FromTime: "09:00", TillTime: "18:00", Reason: "Holiday"},
	}))

	weekly, err = repo.GetWeeklyAvailability(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, weekly, 1)

	all, err := repo.ListBlockDays(ctx, "p-1", types.DateRange{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-08-15", all[0].Date)

	august, err := repo.ListBlockDays(ctx, "p-1", types.DateRange{
		StartDate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, august, 1)
	assert.Equal(t, "Holiday", august[0].Reason)

	none, err := repo.ListBlockDays(ctx, "other", types.DateRange{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
