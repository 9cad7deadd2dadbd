package fixtures

import (
	"testing"
	"time"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)

func TestPatientLogin(t *testing.T) {
	for _, id := range []string{"patient@healthcare.com", "+15559876543"} {
		resp, err := PatientLogin(types.PatientLoginRequest{Identifier: id, Password: "patient123"}, now)
		require.NoError(t, err)
		assert.Equal(t, "Emma", resp.User.FirstName)
		assert.Equal(t, "Jones", resp.User.LastName)
		assert.Equal(t, "1990-05-15", resp.User.DateOfBirth)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.EqualValues(t, 3600, resp.ExpiresIn)
		assert.Equal(t, "dummy-patient-jwt-token-1754827200000", resp.AccessToken)
	}
}

func TestPatientLoginWrongPassword(t *testing.T) {
	_, err := PatientLogin(types.PatientLoginRequest{Identifier: "patient@healthcare.com", Password: "nope"}, now)
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeAuthentication))
	assert.Equal(t, 401, types.StatusOf(err))
	assert.Equal(t, InvalidCredentialsMessage, types.UserMessage(err))
}

func TestProviderLogin(t *testing.T) {
	resp, err := ProviderLogin(types.ProviderLoginRequest{Identifier: "+15551234567", Password: "password123"}, now)
	require.NoError(t, err)
	assert.Equal(t, "dummy-provider-123", resp.User.ID)
	assert.Equal(t, "Cardiology", resp.User.Specialization)

	// patient credentials are not valid for the provider portal
	_, err = ProviderLogin(types.ProviderLoginRequest{Identifier: "patient@healthcare.com", Password: "patient123"}, now)
	assert.True(t, types.IsType(err, types.ErrorTypeAuthentication))
}

func TestProviderRegistrationEcho(t *testing.T) {
	req := types.ProviderRegistrationRequest{
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@clinic.com",
		Specialization: "Dermatology",
		LicenseNumber:  "LIC12345",
	}
	resp := ProviderRegistration(req, now)
	assert.Equal(t, "dummy-provider-1754827200000", resp.ID)
	assert.Equal(t, "jane@clinic.com", resp.Email)
	assert.Equal(t, now, resp.CreatedAt)
}

func TestAvailability(t *testing.T) {
	r := types.DateRange{
		StartDate: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
	}
	p := Availability("prov-1", r)

	assert.Equal(t, "prov-1", p.ProviderID)
	assert.Equal(t, "2025-08-10", p.StartDate)
	assert.Len(t, p.Availability, 7)
	assert.Equal(t, "17:00", p.Availability["friday"].TillTime)
	assert.Equal(t, "15:00", p.Availability["saturday"].TillTime)
	assert.False(t, p.Availability["sunday"].IsAvailable)
	require.Len(t, p.BlockDays, 1)
	assert.Equal(t, "Holiday", p.BlockDays[0].Reason)
}
