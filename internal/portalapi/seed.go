package portalapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthfirst/portal/internal/fixtures"
	"github.com/healthfirst/portal/pkg/types"
)

// SeedDemoAccounts creates the demo provider and patient, with the same
// credentials and profiles the client accepts offline, and gives the
// provider the default weekly schedule. Existing accounts are left alone.
func (s *Service) SeedDemoAccounts(ctx context.Context) error {
	now := s.now()

	provider, err := fixtures.ProviderLogin(types.ProviderLoginRequest{
		Identifier: fixtures.ProviderCredentials.Email,
		Password:   fixtures.ProviderCredentials.Password,
	}, now)
	if err != nil {
		return fmt.Errorf("demo provider: %w", err)
	}
	patient, err := fixtures.PatientLogin(types.PatientLoginRequest{
		Identifier: fixtures.PatientCredentials.Email,
		Password:   fixtures.PatientCredentials.Password,
	}, now)
	if err != nil {
		return fmt.Errorf("demo patient: %w", err)
	}

	accounts := []struct {
		account  types.Account
		password string
	}{
		{types.Account{
			ID:             provider.User.ID,
			Role:           types.RoleProvider,
			Email:          provider.User.Email,
			PhoneNumber:    fixtures.ProviderCredentials.Phone,
			FirstName:      provider.User.FirstName,
			LastName:       provider.User.LastName,
			Specialization: provider.User.Specialization,
			LicenseNumber:  provider.User.LicenseNumber,
		}, fixtures.ProviderCredentials.Password},
		{types.Account{
			ID:          patient.User.ID,
			Role:        types.RolePatient,
			Email:       patient.User.Email,
			PhoneNumber: patient.User.PhoneNumber,
			FirstName:   patient.User.FirstName,
			LastName:    patient.User.LastName,
			DateOfBirth: patient.User.DateOfBirth,
		}, fixtures.PatientCredentials.Password},
	}

	for _, a := range accounts {
		hash, err := s.passwords.HashPassword(a.password)
		if err != nil {
			return err
		}
		account := a.account
		account.PasswordHash = hash
		account.CreatedAt = now.UTC()
		if err := s.accounts.CreateAccount(ctx, &account); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				continue
			}
			return fmt.Errorf("seed %s: %w", account.Email, err)
		}
	}

	schedule := fixtures.Availability(provider.User.ID, types.DateRange{})
	if err := s.availability.ReplaceWeeklyAvailability(ctx, provider.User.ID, schedule.Availability); err != nil {
		return fmt.Errorf("seed availability: %w", err)
	}
	if err := s.availability.ReplaceBlockDays(ctx, provider.User.ID, schedule.BlockDays); err != nil {
		return fmt.Errorf("seed block days: %w", err)
	}

	s.logger.WithField("provider_id", provider.User.ID).Info("Demo accounts seeded")
	return nil
}
