package interfaces

import (
	"context"

	"github.com/healthfirst/portal/pkg/types"
)

// Gateway defines the backend calls made by the portal client
type Gateway interface {
	// Authentication
	ProviderLogin(ctx context.Context, req types.ProviderLoginRequest) (types.Result[*types.ProviderLoginResponse], error)
	PatientLogin(ctx context.Context, req types.PatientLoginRequest) (types.Result[*types.PatientLoginResponse], error)

	// Registration
	ProviderRegister(ctx context.Context, req types.ProviderRegistrationRequest) (types.Result[*types.ProviderRegistrationResponse], error)
	PatientRegister(ctx context.Context, req types.PatientRegistrationRequest) (types.Result[*types.PatientRegistrationResponse], error)

	// Availability
	FetchAvailability(ctx context.Context, providerID string, r types.DateRange) (types.Result[*types.AvailabilityPayload], error)
}

// TokenValidator defines the interface for token validation
type TokenValidator interface {
	GenerateToken(claims types.UserClaims, rememberMe bool) (*types.AuthToken, error)
	ValidateJWT(token string) (*types.UserClaims, error)
}

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	Allow(clientID string) bool
	Reset(clientID string)
}
