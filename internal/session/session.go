// Package session holds the portal's client-side context: the durable
// storage for tokens and profiles, the backend gateway, and one
// availability model per provider.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/healthfirst/portal/internal/availability"
	"github.com/healthfirst/portal/pkg/interfaces"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/types"
)

// Session is passed explicitly to every portal operation
type Session struct {
	storage   interfaces.Storage
	gateway   interfaces.Gateway
	logger    *logger.Logger
	modelOpts []availability.Option

	mu     sync.Mutex
	models map[string]*availability.Model
}

// New creates a session. modelOpts are applied to every availability
// model the session creates.
func New(storage interfaces.Storage, gw interfaces.Gateway, log *logger.Logger, modelOpts ...availability.Option) *Session {
	return &Session{
		storage:   storage,
		gateway:   gw,
		logger:    log,
		modelOpts: modelOpts,
		models:    make(map[string]*availability.Model),
	}
}

// Storage returns the backend holding tokens and profiles
func (s *Session) Storage() interfaces.Storage { return s.storage }

// Gateway returns the backend client shared by the session's models
func (s *Session) Gateway() interfaces.Gateway { return s.gateway }

// Logger returns the session logger
func (s *Session) Logger() *logger.Logger { return s.logger }

// SaveAuth stores the access token and the JSON profile for role
func (s *Session) SaveAuth(ctx context.Context, role types.UserRole, token string, user interface{}) error {
	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode %s profile: %w", role, err)
	}
	if err := s.storage.Set(ctx, role.TokenKey(), token); err != nil {
		return fmt.Errorf("save %s token: %w", role, err)
	}
	if err := s.storage.Set(ctx, role.UserKey(), string(profile)); err != nil {
		return fmt.Errorf("save %s profile: %w", role, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"component": "session",
		"role":      role,
	}).Info("Session stored")
	return nil
}

// Token returns the stored access token for role
func (s *Session) Token(ctx context.Context, role types.UserRole) (string, bool, error) {
	return s.storage.Get(ctx, role.TokenKey())
}

// LoadUser decodes the stored profile for role into out. It reports false
// when no profile is stored.
func (s *Session) LoadUser(ctx context.Context, role types.UserRole, out interface{}) (bool, error) {
	raw, ok, err := s.storage.Get(ctx, role.UserKey())
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s profile: %w", role, err)
	}
	return true, nil
}

// IsAuthenticated reports whether a token is stored for role
func (s *Session) IsAuthenticated(ctx context.Context, role types.UserRole) bool {
	token, ok, err := s.Token(ctx, role)
	return err == nil && ok && token != ""
}

// Logout removes the token and profile for role
func (s *Session) Logout(ctx context.Context, role types.UserRole) error {
	if err := s.storage.Delete(ctx, role.TokenKey()); err != nil {
		return fmt.Errorf("delete %s token: %w", role, err)
	}
	if err := s.storage.Delete(ctx, role.UserKey()); err != nil {
		return fmt.Errorf("delete %s profile: %w", role, err)
	}
	return nil
}

// Model returns the availability model for providerID, creating it on
// first use
func (s *Session) Model(providerID string) *availability.Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.models[providerID]
	if !ok {
		m = availability.NewModel(s.logger, s.modelOpts...)
		s.models[providerID] = m
	}
	return m
}

// RefreshAvailability loads the provider's availability from the backend
// into its model. A fixture fallback is reported through the result.
func (s *Session) RefreshAvailability(ctx context.Context, providerID string, r types.DateRange) (availability.RefreshResult, error) {
	return s.Model(providerID).Refresh(ctx, s.gateway, providerID, r)
}
