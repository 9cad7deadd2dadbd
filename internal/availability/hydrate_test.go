package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock implementation of AvailabilityFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchAvailability(ctx context.Context, providerID string, r types.DateRange) (types.Result[*types.AvailabilityPayload], error) {
	args := m.Called(ctx, providerID, r)
	return args.Get(0).(types.Result[*types.AvailabilityPayload]), args.Error(1)
}

var testRange = types.DateRange{
	StartDate: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
	EndDate:   time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
}

func weeklyByDay(m *Model) map[string]types.DayAvailability {
	out := map[string]types.DayAvailability{}
	for _, d := range m.WeeklyTemplate() {
		out[d.Day] = d
	}
	return out
}

func TestHydrateMergesByDay(t *testing.T) {
	m := newTestModel()
	before := weeklyByDay(m)

	ignored := m.HydrateFromRemote(&types.AvailabilityPayload{
		Availability: map[string]types.DayWindow{
			"monday":   {FromTime: "08:00", TillTime: "16:00", IsAvailable: true},
			"tuesday":  {FromTime: "", TillTime: "17:00", IsAvailable: true},
			"funday":   {FromTime: "10:00", TillTime: "11:00", IsAvailable: true},
			"holiday":  {FromTime: "10:00", TillTime: "11:00"},
			"sunday":   {FromTime: "10:00", TillTime: "14:00", IsAvailable: false},
			"Saturday": {FromTime: "10:00", TillTime: "13:00", IsAvailable: true},
		},
	})

	assert.Equal(t, []string{"funday", "holiday"}, ignored)

	after := weeklyByDay(m)
	assert.Equal(t, "08:00", after["Monday"].FromTime)
	assert.Equal(t, "16:00", after["Monday"].TillTime)
	assert.Equal(t, "09:00", after["Tuesday"].FromTime, "empty from_time keeps prior value")
	assert.Equal(t, "17:00", after["Tuesday"].TillTime)
	assert.Equal(t, "10:00", after["Saturday"].FromTime)
	assert.Equal(t, before["Wednesday"], after["Wednesday"], "missing keys untouched")
	assert.NotContains(t, after, "Sunday", "unavailable new day is not added")
	assert.Equal(t, before["Monday"].ID, after["Monday"].ID)

	// block days untouched when the payload has none
	assert.Len(t, m.BlockDays(), 1)
}

func TestHydrateAddsAvailableDay(t *testing.T) {
	m := newTestModel()
	m.HydrateFromRemote(&types.AvailabilityPayload{
		Availability: map[string]types.DayWindow{
			"sunday": {FromTime: "10:00", TillTime: "14:00", IsAvailable: true},
		},
	})

	weekly := m.WeeklyTemplate()
	require.Len(t, weekly, 7)
	assert.Equal(t, "Sunday", weekly[6].Day)
}

func TestHydrateRejectsInvertedMergedWindow(t *testing.T) {
	m := newTestModel()
	before := weeklyByDay(m)
	require.Equal(t, "09:00", before["Monday"].FromTime)
	require.Equal(t, "18:00", before["Monday"].TillTime)

	ignored := m.HydrateFromRemote(&types.AvailabilityPayload{
		Availability: map[string]types.DayWindow{
			"monday":  {FromTime: "19:00", IsAvailable: true},
			"tuesday": {FromTime: "12:00", TillTime: "12:00", IsAvailable: true},
			"sunday":  {TillTime: "08:00", IsAvailable: true},
		},
	})

	assert.Equal(t, []string{"monday", "sunday", "tuesday"}, ignored)

	after := weeklyByDay(m)
	assert.Equal(t, before["Monday"], after["Monday"])
	assert.Equal(t, before["Tuesday"], after["Tuesday"])
	assert.NotContains(t, after, "Sunday")
}

func TestHydrateReplacesBlockDays(t *testing.T) {
	m := newTestModel()
	_, err := m.AddBlockDay(types.BlockDay{Date: "2025-12-25", Reason: "Christmas"})
	require.NoError(t, err)

	m.HydrateFromRemote(&types.AvailabilityPayload{
		BlockDays: []types.BlockDayPayload{
			{Date: "2025-08-15", FromTime: "09:00", TillTime: "18:00", Reason: "Holiday"},
			{Date: "2025-08-20"},
		},
	})

	blocks := m.BlockDays()
	require.Len(t, blocks, 2)
	assert.Equal(t, "Holiday", blocks[0].Reason)
	assert.Equal(t, "09:00", blocks[1].FromTime)
	assert.Equal(t, "18:00", blocks[1].TillTime)
	assert.NotEqual(t, blocks[0].ID, blocks[1].ID)
	assert.NotEmpty(t, blocks[1].ID)
}

func TestRefreshSuccess(t *testing.T) {
	m := newTestModel()
	gw := new(MockFetcher)
	payload := &types.AvailabilityPayload{
		ProviderID:   "prov-1",
		Availability: map[string]types.DayWindow{"friday": {FromTime: "07:00", TillTime: "12:00", IsAvailable: true}},
	}
	gw.On("FetchAvailability", mock.Anything, "prov-1", testRange).
		Return(types.Result[*types.AvailabilityPayload]{Value: payload}, nil)

	res, err := m.Refresh(context.Background(), gw, "prov-1", testRange)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.NoError(t, res.Warning)
	assert.Equal(t, "07:00", weeklyByDay(m)["Friday"].FromTime)
	gw.AssertExpectations(t)
}

func TestRefreshFallsBackOnNetworkFailure(t *testing.T) {
	m := newTestModel()
	gw := new(MockFetcher)
	netErr := types.NewNetworkUnavailableError(errors.New("connection refused"))
	gw.On("FetchAvailability", mock.Anything, "prov-1", testRange).
		Return(types.Result[*types.AvailabilityPayload]{}, netErr)

	res, err := m.Refresh(context.Background(), gw, "prov-1", testRange)
	require.NoError(t, err, "network failure is not fatal")
	assert.True(t, res.Fallback)
	require.Error(t, res.Warning)
	assert.True(t, types.IsType(res.Warning, types.ErrorTypeNetworkUnavailable))

	weekly := weeklyByDay(m)
	assert.Equal(t, "17:00", weekly["Monday"].TillTime)
	assert.Equal(t, "15:00", weekly["Saturday"].TillTime)
	blocks := m.BlockDays()
	require.Len(t, blocks, 1)
	assert.Equal(t, "2025-08-15", blocks[0].Date)
	assert.Equal(t, "Holiday", blocks[0].Reason)
}

func TestRefreshPassesGatewayFallbackThrough(t *testing.T) {
	m := newTestModel()
	gw := new(MockFetcher)
	warning := types.NewNetworkUnavailableError(errors.New("dial tcp: timeout"))
	payload := &types.AvailabilityPayload{
		BlockDays: []types.BlockDayPayload{{Date: "2025-08-15", Reason: "Holiday"}},
	}
	gw.On("FetchAvailability", mock.Anything, "prov-1", testRange).
		Return(types.Result[*types.AvailabilityPayload]{Value: payload, Fallback: true, Warning: warning}, nil)

	res, err := m.Refresh(context.Background(), gw, "prov-1", testRange)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, warning, res.Warning)
}

func TestRefreshLeavesModelOnClassifiedError(t *testing.T) {
	m := newTestModel()
	before := m.WeeklyTemplate()
	beforeBlocks := m.BlockDays()

	gw := new(MockFetcher)
	gw.On("FetchAvailability", mock.Anything, "missing", testRange).
		Return(types.Result[*types.AvailabilityPayload]{}, types.NewNotFoundError(types.ErrCodeNotFound, "Provider availability not found."))

	_, err := m.Refresh(context.Background(), gw, "missing", testRange)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
	assert.Equal(t, before, m.WeeklyTemplate())
	assert.Equal(t, beforeBlocks, m.BlockDays())
}

func TestRefreshEmptyPayload(t *testing.T) {
	m := newTestModel()
	gw := new(MockFetcher)
	gw.On("FetchAvailability", mock.Anything, "prov-1", testRange).
		Return(types.Result[*types.AvailabilityPayload]{}, nil)

	_, err := m.Refresh(context.Background(), gw, "prov-1", testRange)
	assert.True(t, types.IsType(err, types.ErrorTypeServer))
}
