package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthfirst/portal/internal/availability"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGateway is a mock implementation of interfaces.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ProviderLogin(ctx context.Context, req types.ProviderLoginRequest) (types.Result[*types.ProviderLoginResponse], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.Result[*types.ProviderLoginResponse]), args.Error(1)
}

func (m *MockGateway) PatientLogin(ctx context.Context, req types.PatientLoginRequest) (types.Result[*types.PatientLoginResponse], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.Result[*types.PatientLoginResponse]), args.Error(1)
}

func (m *MockGateway) ProviderRegister(ctx context.Context, req types.ProviderRegistrationRequest) (types.Result[*types.ProviderRegistrationResponse], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.Result[*types.ProviderRegistrationResponse]), args.Error(1)
}

func (m *MockGateway) PatientRegister(ctx context.Context, req types.PatientRegistrationRequest) (types.Result[*types.PatientRegistrationResponse], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(types.Result[*types.PatientRegistrationResponse]), args.Error(1)
}

func (m *MockGateway) FetchAvailability(ctx context.Context, providerID string, r types.DateRange) (types.Result[*types.AvailabilityPayload], error) {
	args := m.Called(ctx, providerID, r)
	return args.Get(0).(types.Result[*types.AvailabilityPayload]), args.Error(1)
}

func TestSaveAndLoadAuth(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(storage, &MockGateway{}, logger.Discard())

	user := types.PatientUser{ID: "dummy-patient-123", FirstName: "Emma", LastName: "Jones"}
	require.NoError(t, s.SaveAuth(ctx, types.RolePatient, "tok-1", user))

	raw, ok, err := storage.Get(ctx, "patient_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", raw)

	_, ok, _ = storage.Get(ctx, "patient_user")
	assert.True(t, ok)

	var loaded types.PatientUser
	found, err := s.LoadUser(ctx, types.RolePatient, &loaded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, user, loaded)

	assert.True(t, s.IsAuthenticated(ctx, types.RolePatient))
	assert.False(t, s.IsAuthenticated(ctx, types.RoleProvider))

	require.NoError(t, s.Logout(ctx, types.RolePatient))
	assert.False(t, s.IsAuthenticated(ctx, types.RolePatient))
	found, err = s.LoadUser(ctx, types.RolePatient, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRolesUseSeparateKeys(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(storage, &MockGateway{}, logger.Discard())

	require.NoError(t, s.SaveAuth(ctx, types.RoleProvider, "p-tok", types.ProviderUser{ID: "p"}))
	require.NoError(t, s.SaveAuth(ctx, types.RolePatient, "pt-tok", types.PatientUser{ID: "pt"}))
	require.NoError(t, s.Logout(ctx, types.RolePatient))

	token, ok, err := s.Token(ctx, types.RoleProvider)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "p-tok", token)
}

func TestLoadUserCorruptProfile(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, "provider_user", "not-json"))
	s := New(storage, &MockGateway{}, logger.Discard())

	var u types.ProviderUser
	_, err := s.LoadUser(ctx, types.RoleProvider, &u)
	assert.Error(t, err)
}

func TestModelPerProvider(t *testing.T) {
	s := New(NewMemoryStorage(), &MockGateway{}, logger.Discard())

	a := s.Model("p-1")
	assert.Same(t, a, s.Model("p-1"))
	assert.NotSame(t, a, s.Model("p-2"))
}

func TestRefreshAvailabilityFallsBackOffline(t *testing.T) {
	gw := &MockGateway{}
	r := types.DateRange{
		StartDate: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC),
	}
	offline := types.NewNetworkUnavailableError(errors.New("connection refused"))
	gw.On("FetchAvailability", mock.Anything, "p-1", r).
		Return(types.Result[*types.AvailabilityPayload]{}, offline)

	s := New(NewMemoryStorage(), gw, logger.Discard())
	res, err := s.RefreshAvailability(context.Background(), "p-1", r)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, offline, res.Warning)

	blocks := s.Model("p-1").BlockDays()
	require.Len(t, blocks, 1)
	assert.Equal(t, "2025-08-15", blocks[0].Date)
	gw.AssertExpectations(t)
}

func TestModelOptionsApplied(t *testing.T) {
	s := New(NewMemoryStorage(), &MockGateway{}, logger.Discard(),
		availability.WithConflictPolicy(availability.RejectOverlaps))
	m := s.Model("p-1")

	def := types.SlotDefinition{Date: "2025-08-11", StartTime: "09:00", EndTime: "10:00"}
	_, err := m.AddSlot(def)
	require.NoError(t, err)
	_, err = m.AddSlot(def)
	assert.True(t, types.IsType(err, types.ErrorTypeConflict))
}
