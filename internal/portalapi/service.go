// Package portalapi is the reference backend for the portal: account
// registration and login for providers and patients, and the provider
// availability endpoints the client hydrates from.
package portalapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/healthfirst/portal/internal/availability"
	"github.com/healthfirst/portal/internal/credential"
	"github.com/healthfirst/portal/internal/forms"
	"github.com/healthfirst/portal/pkg/interfaces"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/healthfirst/portal/pkg/types"
)

const (
	invalidCredentialsMessage = "Invalid credentials. Please check your email/phone and password."
	providerNotFoundMessage   = "Provider availability not found."
	invalidDateMessage        = "Invalid date format. Use YYYY-MM-DD"
)

// Service implements the portal API operations
type Service struct {
	accounts     interfaces.AccountRepository
	availability interfaces.AvailabilityRepository
	tokens       interfaces.TokenValidator
	passwords    *PasswordManager
	validator    *forms.Validator
	lockouts     *lockoutTracker
	metrics      *monitoring.MetricsCollector
	logger       *logger.Logger
	now          func() time.Time
	newID        func() string
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// WithIDGenerator overrides account id generation
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithPasswordManager overrides the bcrypt settings
func WithPasswordManager(pm *PasswordManager) Option {
	return func(s *Service) { s.passwords = pm }
}

// WithMetrics records auth attempts and availability writes
func WithMetrics(m *monitoring.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the portal API service
func NewService(accounts interfaces.AccountRepository, avail interfaces.AvailabilityRepository, tokens interfaces.TokenValidator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		accounts:     accounts,
		availability: avail,
		tokens:       tokens,
		passwords:    NewPasswordManager(),
		lockouts:     newLockoutTracker(),
		logger:       log,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = forms.NewValidator(s.now)
	return s
}

// RegisterProvider creates a provider account
func (s *Service) RegisterProvider(ctx context.Context, req types.ProviderRegistrationRequest) (*types.ProviderRegistrationResponse, error) {
	if errs := s.validator.Check(forms.ProviderRegistrationFromRequest(req)); len(errs) > 0 {
		return nil, fieldValidationError(errs)
	}

	account, err := s.newAccount(types.RoleProvider, req.Email, req.PhoneNumber, req.Password)
	if err != nil {
		return nil, err
	}
	account.FirstName = strings.TrimSpace(req.FirstName)
	account.LastName = strings.TrimSpace(req.LastName)
	account.Specialization = req.Specialization
	account.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	account.YearsOfExperience = req.YearsOfExperience
	account.Profile.Address = req.ClinicAddress

	if err := s.create(ctx, account); err != nil {
		return nil, err
	}

	return &types.ProviderRegistrationResponse{
		ID:                account.ID,
		Email:             account.Email,
		FirstName:         account.FirstName,
		LastName:          account.LastName,
		PhoneNumber:       account.PhoneNumber,
		Specialization:    account.Specialization,
		LicenseNumber:     account.LicenseNumber,
		YearsOfExperience: account.YearsOfExperience,
		ClinicAddress:     account.Profile.Address,
		CreatedAt:         account.CreatedAt,
	}, nil
}

// RegisterPatient creates a patient account
func (s *Service) RegisterPatient(ctx context.Context, req types.PatientRegistrationRequest) (*types.PatientRegistrationResponse, error) {
	if errs := s.validator.Check(forms.PatientRegistrationFromRequest(req)); len(errs) > 0 {
		return nil, fieldValidationError(errs)
	}

	account, err := s.newAccount(types.RolePatient, req.Email, req.PhoneNumber, req.Password)
	if err != nil {
		return nil, err
	}
	contact := req.EmergencyContact
	account.FirstName = strings.TrimSpace(req.FirstName)
	account.LastName = strings.TrimSpace(req.LastName)
	account.DateOfBirth = req.DateOfBirth
	account.Profile = types.AccountProfile{
		Address:          req.Address,
		Gender:           req.Gender,
		EmergencyContact: &contact,
	}

	if err := s.create(ctx, account); err != nil {
		return nil, err
	}

	return &types.PatientRegistrationResponse{
		ID:          account.ID,
		Email:       account.Email,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		PhoneNumber: account.PhoneNumber,
		DateOfBirth: account.DateOfBirth,
		CreatedAt:   account.CreatedAt,
	}, nil
}

func (s *Service) newAccount(role types.UserRole, email, phone, password string) (*types.Account, error) {
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return nil, types.NewServerError(http.StatusInternalServerError, "Registration failed. Please try again later.", err)
	}
	return &types.Account{
		ID:           s.newID(),
		Role:         role,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PhoneNumber:  credential.NormalizePhone(strings.TrimSpace(phone)),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}, nil
}

func (s *Service) create(ctx context.Context, account *types.Account) error {
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return types.NewConflictError(types.ErrCodeConflict,
				"An account with this email already exists. Please use a different email or try logging in.",
				map[string]interface{}{"field": "email"})
		}
		return types.NewServerError(http.StatusInternalServerError, "Registration failed. Please try again later.", err)
	}
	s.logger.Audit(account.ID, string(account.Role)+"_register", "account", true, nil)
	return nil
}

// ProviderLogin authenticates a provider by email or phone
func (s *Service) ProviderLogin(ctx context.Context, req types.ProviderLoginRequest) (*types.ProviderLoginResponse, error) {
	account, token, err := s.login(ctx, types.RoleProvider, req.Identifier, req.Password, req.RememberMe)
	if err != nil {
		return nil, err
	}
	return &types.ProviderLoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
		User: types.ProviderUser{
			ID:             account.ID,
			Email:          account.Email,
			FirstName:      account.FirstName,
			LastName:       account.LastName,
			Specialization: account.Specialization,
			LicenseNumber:  account.LicenseNumber,
		},
	}, nil
}

// PatientLogin authenticates a patient by email or phone
func (s *Service) PatientLogin(ctx context.Context, req types.PatientLoginRequest) (*types.PatientLoginResponse, error) {
	account, token, err := s.login(ctx, types.RolePatient, req.Identifier, req.Password, req.RememberMe)
	if err != nil {
		return nil, err
	}
	if req.DeviceInfo != nil {
		s.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"user_id":     account.ID,
			"device_name": req.DeviceInfo.DeviceName,
			"device_type": req.DeviceInfo.DeviceType,
			"app_version": req.DeviceInfo.AppVersion,
		}).Info("Patient signed in")
	}
	return &types.PatientLoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
		User: types.PatientUser{
			ID:          account.ID,
			Email:       account.Email,
			FirstName:   account.FirstName,
			LastName:    account.LastName,
			DateOfBirth: account.DateOfBirth,
			PhoneNumber: account.PhoneNumber,
		},
	}, nil
}

func (s *Service) login(ctx context.Context, role types.UserRole, identifier, password string, rememberMe bool) (*types.Account, *types.AuthToken, error) {
	id := credential.Classify(identifier)
	errs := map[string]string{}
	if id.Kind == credential.KindInvalid {
		errs["identifier"] = "Please enter a valid email or phone number"
	}
	if password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		return nil, nil, fieldValidationError(errs)
	}

	var (
		account *types.Account
		err     error
	)
	if id.Kind == credential.KindEmail {
		account, err = s.accounts.GetAccountByEmail(ctx, role, strings.ToLower(id.Normalized))
	} else {
		account, err = s.accounts.GetAccountByPhone(ctx, role, id.Normalized)
	}
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.recordAuth(role, "failure")
			return nil, nil, invalidCredentials()
		}
		return nil, nil, types.NewServerError(http.StatusInternalServerError, "Login failed. Please try again later.", err)
	}

	now := s.now()
	if until, locked := s.lockouts.lockedUntil(account.ID, now); locked {
		s.recordAuth(role, "locked")
		return nil, nil, accountLocked(until)
	}

	ok, err := s.passwords.VerifyPassword(account.PasswordHash, password)
	if err != nil {
		return nil, nil, types.NewServerError(http.StatusInternalServerError, "Login failed. Please try again later.", err)
	}
	if !ok {
		if s.lockouts.fail(account.ID, now) {
			s.logger.WithFields(map[string]interface{}{
				"user_id": account.ID,
				"role":    string(role),
			}).Warn("Account locked after repeated failed logins")
		}
		s.recordAuth(role, "failure")
		s.logger.Audit(account.ID, string(role)+"_login", "session", false, nil)
		return nil, nil, invalidCredentials()
	}
	s.lockouts.reset(account.ID)

	token, err := s.tokens.GenerateToken(types.UserClaims{
		UserID: account.ID,
		Email:  account.Email,
		Role:   role,
	}, rememberMe)
	if err != nil {
		return nil, nil, types.NewServerError(http.StatusInternalServerError, "Login failed. Please try again later.", err)
	}

	s.recordAuth(role, "success")
	s.logger.Audit(account.ID, string(role)+"_login", "session", true, map[string]interface{}{
		"remember_me": rememberMe,
	})
	return account, token, nil
}

func (s *Service) recordAuth(role types.UserRole, status string) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(string(role), status)
	}
}

// ParseDateRange parses the start_date and end_date query values. Either
// may be empty.
func ParseDateRange(start, end string) (types.DateRange, error) {
	var r types.DateRange
	for _, p := range []struct {
		raw string
		dst *time.Time
	}{{start, &r.StartDate}, {end, &r.EndDate}} {
		if p.raw == "" {
			continue
		}
		t, err := time.Parse(types.DateLayout, p.raw)
		if err != nil {
			return r, badRequest(invalidDateMessage, nil)
		}
		*p.dst = t
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return r, badRequest("end_date must not be before start_date", nil)
	}
	return r, nil
}

// GetAvailability returns the provider's weekly template and the block
// days inside r
func (s *Service) GetAvailability(ctx context.Context, providerID string, r types.DateRange) (*types.AvailabilityPayload, error) {
	if err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	weekly, err := s.availability.GetWeeklyAvailability(ctx, providerID)
	if err != nil {
		return nil, types.NewServerError(http.StatusInternalServerError, "Failed to load availability.", err)
	}
	blocks, err := s.availability.ListBlockDays(ctx, providerID, r)
	if err != nil {
		return nil, types.NewServerError(http.StatusInternalServerError, "Failed to load availability.", err)
	}

	return &types.AvailabilityPayload{
		ProviderID:   providerID,
		StartDate:    formatDate(r.StartDate),
		EndDate:      formatDate(r.EndDate),
		Availability: weekly,
		BlockDays:    blocks,
	}, nil
}

// UpdateAvailability replaces the provider's weekly template and block
// days. Only the provider may change their own schedule.
func (s *Service) UpdateAvailability(ctx context.Context, caller *types.UserClaims, providerID string, req types.AvailabilityUpdateRequest) (*types.AvailabilityPayload, error) {
	if caller == nil || caller.Role != types.RoleProvider || caller.UserID != providerID {
		e := types.NewAuthError("You can only update your own availability.")
		e.Code = types.ErrCodeForbidden
		e.Status = http.StatusForbidden
		return nil, e
	}
	if err := s.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	weekly, err := normalizeWeekly(req.Availability)
	if err != nil {
		return nil, err
	}
	blocks, err := normalizeBlockDays(req.BlockDays)
	if err != nil {
		return nil, err
	}

	if err := s.availability.ReplaceWeeklyAvailability(ctx, providerID, weekly); err != nil {
		return nil, types.NewServerError(http.StatusInternalServerError, "Failed to save availability.", err)
	}
	if err := s.availability.ReplaceBlockDays(ctx, providerID, blocks); err != nil {
		return nil, types.NewServerError(http.StatusInternalServerError, "Failed to save availability.", err)
	}
	if s.metrics != nil {
		s.metrics.RecordSlotMutation("replace_weekly", len(weekly))
		s.metrics.RecordSlotMutation("replace_block_days", len(blocks))
	}
	s.logger.Audit(providerID, "update_availability", "availability", true, map[string]interface{}{
		"days":       len(weekly),
		"block_days": len(blocks),
	})

	return s.GetAvailability(ctx, providerID, types.DateRange{})
}

func (s *Service) requireProvider(ctx context.Context, providerID string) error {
	account, err := s.accounts.GetAccountByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return types.NewNotFoundError(types.ErrCodeNotFound, providerNotFoundMessage)
		}
		return types.NewServerError(http.StatusInternalServerError, "Failed to load availability.", err)
	}
	if account.Role != types.RoleProvider {
		return types.NewNotFoundError(types.ErrCodeNotFound, providerNotFoundMessage)
	}
	return nil
}

func normalizeWeekly(in map[string]types.DayWindow) (map[string]types.DayWindow, error) {
	out := make(map[string]types.DayWindow, len(in))
	for day, w := range in {
		key := strings.ToLower(strings.TrimSpace(day))
		if weekdayOrder(key) < 0 {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				fmt.Sprintf("unknown weekday %q", day), map[string]interface{}{"field": "availability"})
		}
		if _, dup := out[key]; dup {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput,
				fmt.Sprintf("weekday %q given more than once", key), map[string]interface{}{"field": "availability"})
		}
		if err := availability.ValidateWindow(w.FromTime, w.TillTime); err != nil {
			return nil, err
		}
		out[key] = w
	}
	return out, nil
}

func normalizeBlockDays(in []types.BlockDayPayload) ([]types.BlockDayPayload, error) {
	out := make([]types.BlockDayPayload, 0, len(in))
	for _, b := range in {
		if _, err := time.Parse(types.DateLayout, b.Date); err != nil {
			return nil, types.NewValidationError(types.ErrCodeInvalidInput, invalidDateMessage,
				map[string]interface{}{"field": "block_days"})
		}
		if err := availability.ValidateWindow(b.FromTime, b.TillTime); err != nil {
			return nil, err
		}
		b.Reason = strings.TrimSpace(b.Reason)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// weekdayOrder returns the display position of a lowercase weekday key
func weekdayOrder(key string) int {
	for i, d := range availability.Weekdays {
		if strings.ToLower(d) == key {
			return i
		}
	}
	return -1
}

// sortedDays returns the keys of days in Monday-first order
func sortedDays(days map[string]types.DayWindow) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return weekdayOrder(keys[i]) < weekdayOrder(keys[j]) })
	return keys
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}

func invalidCredentials() error {
	e := types.NewAuthError(invalidCredentialsMessage)
	e.Code = types.ErrCodeInvalidCredentials
	return e
}

func accountLocked(until time.Time) error {
	e := types.NewAuthError(fmt.Sprintf("Account is locked. Try again after %s.", until.UTC().Format(time.RFC3339)))
	e.Code = types.ErrCodeAccountLocked
	e.Status = http.StatusLocked
	return e
}

func badRequest(message string, details map[string]interface{}) error {
	e := types.NewValidationError(types.ErrCodeInvalidInput, message, details)
	e.Status = http.StatusBadRequest
	return e
}

// fieldValidationError carries per-field messages under details["errors"]
func fieldValidationError(errs map[string]string) error {
	return types.NewValidationError(types.ErrCodeValidationFailed, "Validation error",
		map[string]interface{}{"errors": errs})
}
