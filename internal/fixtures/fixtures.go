// Package fixtures holds the built-in responses served when the portal
// backend cannot be reached.
package fixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthfirst/portal/pkg/types"
)

// Credentials accepted while offline
type Credentials struct {
	Email    string
	Phone    string
	Password string
}

var (
	ProviderCredentials = Credentials{
		Email:    "provider@medical.com",
		Phone:    "+15551234567",
		Password: "password123",
	}
	PatientCredentials = Credentials{
		Email:    "patient@healthcare.com",
		Phone:    "+15559876543",
		Password: "patient123",
	}
)

// InvalidCredentialsMessage is returned when offline credentials do not match
const InvalidCredentialsMessage = "Invalid credentials. Please check your email/phone and password."

const (
	tokenType    = "Bearer"
	tokenTTL     = 3600
	providerID   = "dummy-provider-123"
	patientID    = "dummy-patient-123"
	blockReason  = "Holiday"
	blockDayDate = "2025-08-15"
)

// Matches reports whether identifier and password are the offline pair.
// The identifier may be the email or the phone number.
func (c Credentials) Matches(identifier, password string) bool {
	id := strings.TrimSpace(identifier)
	return (id == c.Email || id == c.Phone) && password == c.Password
}

// ProviderLogin returns the offline provider session or an AuthError
func ProviderLogin(req types.ProviderLoginRequest, now time.Time) (*types.ProviderLoginResponse, error) {
	if !ProviderCredentials.Matches(req.Identifier, req.Password) {
		return nil, types.NewAuthError(InvalidCredentialsMessage)
	}
	return &types.ProviderLoginResponse{
		AccessToken: fmt.Sprintf("dummy-jwt-token-%d", now.UnixMilli()),
		TokenType:   tokenType,
		ExpiresIn:   tokenTTL,
		User: types.ProviderUser{
			ID:             providerID,
			Email:          ProviderCredentials.Email,
			FirstName:      "Dr. John",
			LastName:       "Smith",
			Specialization: "Cardiology",
			LicenseNumber:  "MD123456",
		},
	}, nil
}

// PatientLogin returns the offline patient session or an AuthError
func PatientLogin(req types.PatientLoginRequest, now time.Time) (*types.PatientLoginResponse, error) {
	if !PatientCredentials.Matches(req.Identifier, req.Password) {
		return nil, types.NewAuthError(InvalidCredentialsMessage)
	}
	return &types.PatientLoginResponse{
		AccessToken: fmt.Sprintf("dummy-patient-jwt-token-%d", now.UnixMilli()),
		TokenType:   tokenType,
		ExpiresIn:   tokenTTL,
		User: types.PatientUser{
			ID:          patientID,
			Email:       PatientCredentials.Email,
			FirstName:   "Emma",
			LastName:    "Jones",
			DateOfBirth: "1990-05-15",
			PhoneNumber: PatientCredentials.Phone,
		},
	}, nil
}

// ProviderRegistration echoes the submitted profile as if it had been created
func ProviderRegistration(req types.ProviderRegistrationRequest, now time.Time) *types.ProviderRegistrationResponse {
	return &types.ProviderRegistrationResponse{
		ID:                fmt.Sprintf("dummy-provider-%d", now.UnixMilli()),
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PhoneNumber:       req.PhoneNumber,
		Specialization:    req.Specialization,
		LicenseNumber:     req.LicenseNumber,
		YearsOfExperience: req.YearsOfExperience,
		ClinicAddress:     req.ClinicAddress,
		CreatedAt:         now.UTC(),
	}
}

// Availability is the documented default schedule: weekdays 09:00-17:00,
// Saturday 09:00-15:00, Sunday off, and one holiday block day.
func Availability(id string, r types.DateRange) *types.AvailabilityPayload {
	weekday := types.DayWindow{FromTime: "09:00", TillTime: "17:00", IsAvailable: true}
	return &types.AvailabilityPayload{
		ProviderID: id,
		StartDate:  formatDate(r.StartDate),
		EndDate:    formatDate(r.EndDate),
		Availability: map[string]types.DayWindow{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  {FromTime: "09:00", TillTime: "15:00", IsAvailable: true},
			"sunday":    {FromTime: "10:00", TillTime: "14:00", IsAvailable: false},
		},
		BlockDays: []types.BlockDayPayload{
			{Date: blockDayDate, FromTime: "09:00", TillTime: "18:00", Reason: blockReason},
		},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}
