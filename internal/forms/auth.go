package forms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/healthfirst/portal/internal/session"
	"github.com/healthfirst/portal/pkg/interfaces"
	"github.com/healthfirst/portal/pkg/types"
)

// AuthFlow submits the login and registration forms through the session's
// gateway. Successful logins are persisted to the session storage.
type AuthFlow struct {
	session *session.Session
}

// NewAuthFlow creates the submit handlers for a session
func NewAuthFlow(s *session.Session) *AuthFlow {
	return &AuthFlow{session: s}
}

// ProviderLogin signs a provider in and stores provider_token and
// provider_user
func (a *AuthFlow) ProviderLogin(ctx context.Context, f ProviderLoginForm) (Notice, error) {
	res, err := a.session.Gateway().ProviderLogin(ctx, f.Request())
	if err != nil {
		return Notice{}, err
	}
	if err := a.session.SaveAuth(ctx, types.RoleProvider, res.Value.AccessToken, res.Value.User); err != nil {
		return Notice{}, err
	}
	a.audit(res.Value.User.ID, "provider_login", res.Fallback)
	return Notice{Fallback: res.Fallback, Warning: res.Warning}, nil
}

// PatientLogin signs a patient in and stores patient_token and patient_user
func (a *AuthFlow) PatientLogin(ctx context.Context, f PatientLoginForm) (Notice, error) {
	res, err := a.session.Gateway().PatientLogin(ctx, f.Request())
	if err != nil {
		return Notice{}, err
	}
	if err := a.session.SaveAuth(ctx, types.RolePatient, res.Value.AccessToken, res.Value.User); err != nil {
		return Notice{}, err
	}
	a.audit(res.Value.User.ID, "patient_login", res.Fallback)
	return Notice{Fallback: res.Fallback, Warning: res.Warning}, nil
}

// ProviderRegister creates the provider account. The provider signs in
// separately afterwards.
func (a *AuthFlow) ProviderRegister(ctx context.Context, f ProviderRegistrationForm) (Notice, error) {
	res, err := a.session.Gateway().ProviderRegister(ctx, f.Request())
	if err != nil {
		return Notice{}, err
	}
	a.audit(res.Value.ID, "provider_register", res.Fallback)
	return Notice{Fallback: res.Fallback, Warning: res.Warning}, nil
}

// PatientRegister creates the patient account and clears the saved draft
func (a *AuthFlow) PatientRegister(ctx context.Context, f PatientRegistrationForm) (Notice, error) {
	res, err := a.session.Gateway().PatientRegister(ctx, f.Request())
	if err != nil {
		return Notice{}, err
	}
	if err := ClearDraft(ctx, a.session.Storage()); err != nil {
		a.session.Logger().WithError(err).Warn("Failed to clear registration draft")
	}
	a.audit(res.Value.ID, "patient_register", false)
	return Notice{}, nil
}

func (a *AuthFlow) audit(userID, action string, fallback bool) {
	a.session.Logger().Audit(userID, action, "session", true, map[string]interface{}{
		"fallback": fallback,
	})
}

// SaveDraft stores the in-progress patient registration so it survives a
// restart. Passwords are never stored.
func SaveDraft(ctx context.Context, storage interfaces.Storage, f PatientRegistrationForm) error {
	f.Password = ""
	f.ConfirmPassword = ""
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode registration draft: %w", err)
	}
	return storage.Set(ctx, types.KeyPatientRegistrationDraft, string(data))
}

// LoadDraft returns the saved patient registration, if any
func LoadDraft(ctx context.Context, storage interfaces.Storage) (PatientRegistrationForm, bool, error) {
	var f PatientRegistrationForm
	raw, ok, err := storage.Get(ctx, types.KeyPatientRegistrationDraft)
	if err != nil || !ok {
		return f, false, err
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return PatientRegistrationForm{}, false, fmt.Errorf("decode registration draft: %w", err)
	}
	return f, true, nil
}

// ClearDraft removes the saved patient registration
func ClearDraft(ctx context.Context, storage interfaces.Storage) error {
	return storage.Delete(ctx, types.KeyPatientRegistrationDraft)
}
