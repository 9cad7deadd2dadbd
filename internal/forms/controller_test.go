package forms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/healthfirst/portal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusIdle, StatusSubmitting))
	assert.True(t, CanTransition(StatusSubmitting, StatusSuccess))
	assert.True(t, CanTransition(StatusSubmitting, StatusError))
	assert.True(t, CanTransition(StatusError, StatusSubmitting))
	assert.True(t, CanTransition(StatusSuccess, StatusSubmitting))

	assert.False(t, CanTransition(StatusIdle, StatusSuccess))
	assert.False(t, CanTransition(StatusIdle, StatusError))
	assert.False(t, CanTransition(StatusSubmitting, StatusSubmitting))
	assert.False(t, CanTransition(StatusError, StatusSuccess))
}

func TestVisibleErrorsFollowTouch(t *testing.T) {
	c := NewController(testValidator(), ProviderLoginForm{})

	assert.False(t, c.Valid())
	assert.Len(t, c.FieldErrors(), 2)
	assert.Empty(t, c.VisibleErrors())

	c.Touch("identifier")
	assert.Equal(t, map[string]string{"identifier": "Email or phone number is required"}, c.VisibleErrors())

	c.Set(func(f *ProviderLoginForm) { f.Identifier = "provider@medical.com" })
	assert.Empty(t, c.VisibleErrors())
	assert.Len(t, c.FieldErrors(), 1)
}

func TestSubmitBlockedWhenInvalid(t *testing.T) {
	c := NewController(testValidator(), ProviderLoginForm{Identifier: "bogus"})
	called := false

	err := c.Submit(context.Background(), func(context.Context, ProviderLoginForm) (Notice, error) {
		called = true
		return Notice{}, nil
	})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
	assert.False(t, called, "invalid values must not reach the network")
	assert.Equal(t, StatusIdle, c.Status())
	assert.Len(t, c.VisibleErrors(), 2, "a submit attempt reveals every error")
}

func TestSubmitSuccessAndFailure(t *testing.T) {
	c := NewController(testValidator(), ProviderLoginForm{Identifier: "provider@medical.com", Password: "password123"})

	authErr := types.NewAuthError("Invalid credentials. Please check your email/phone and password.")
	err := c.Submit(context.Background(), func(context.Context, ProviderLoginForm) (Notice, error) {
		return Notice{}, authErr
	})
	assert.Equal(t, authErr, err)
	assert.Equal(t, StatusError, c.Status())
	assert.Equal(t, "Invalid credentials. Please check your email/phone and password.", c.SubmitError())
	assert.False(t, c.Success())

	warning := types.NewNetworkUnavailableError(errors.New("dial tcp: connection refused"))
	err = c.Submit(context.Background(), func(_ context.Context, v ProviderLoginForm) (Notice, error) {
		assert.Equal(t, "provider@medical.com", v.Identifier)
		return Notice{Fallback: true, Warning: warning}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, c.Status())
	assert.True(t, c.Success())
	assert.Empty(t, c.SubmitError())
	assert.Equal(t, types.UserMessage(warning), c.Warning())

	c.Reset()
	assert.Equal(t, StatusIdle, c.Status())
	assert.Empty(t, c.Warning())
}

func TestSecondSubmitRejectedWhileInFlight(t *testing.T) {
	c := NewController(testValidator(), ProviderLoginForm{Identifier: "provider@medical.com", Password: "password123"})

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Submit(context.Background(), func(context.Context, ProviderLoginForm) (Notice, error) {
			close(started)
			<-release
			return Notice{}, nil
		})
	}()

	<-started
	assert.Equal(t, StatusSubmitting, c.Status())
	err := c.Submit(context.Background(), func(context.Context, ProviderLoginForm) (Notice, error) {
		t.Fatal("second submission must not run")
		return Notice{}, nil
	})
	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	close(release)
	wg.Wait()
	assert.Equal(t, StatusSuccess, c.Status())
}
