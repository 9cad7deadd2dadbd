// Package gateway is the portal's HTTP client for the backend API. It maps
// HTTP failures onto the portal error taxonomy and, when the backend
// cannot be reached at all, serves the built-in offline fixtures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/healthfirst/portal/internal/fixtures"
	"github.com/healthfirst/portal/pkg/config"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/healthfirst/portal/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// Operation names used in logs, metrics and spans
const (
	OpProviderLogin     = "provider_login"
	OpPatientLogin      = "patient_login"
	OpProviderRegister  = "provider_register"
	OpPatientRegister   = "patient_register"
	OpFetchAvailability = "fetch_availability"
)

const maxResponseBody = 1 << 20

// Client calls the portal backend
type Client struct {
	baseURL    string
	cfg        config.GatewayConfig
	httpClient *http.Client
	logger     *logger.Logger
	tracing    *monitoring.TracingManager
	metrics    *monitoring.MetricsCollector
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTracer records a client span per call
func WithTracer(tm *monitoring.TracingManager) Option {
	return func(c *Client) { c.tracing = tm }
}

// WithMetrics records call counts and latencies
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(c *Client) { c.metrics = mc }
}

// WithClock replaces time.Now, which stamps offline tokens and ids
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a gateway client
func New(cfg config.GatewayConfig, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
		tracing:    monitoring.NewTracingManager("portal-gateway"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderLogin authenticates a provider
func (c *Client) ProviderLogin(ctx context.Context, req types.ProviderLoginRequest) (types.Result[*types.ProviderLoginResponse], error) {
	var out types.ProviderLoginResponse
	err := c.do(ctx, OpProviderLogin, http.MethodPost, "/api/v1/provider/login", nil, req, &out)
	if err == nil {
		return types.Result[*types.ProviderLoginResponse]{Value: &out}, nil
	}
	if !c.shouldFallback(err) {
		return types.Result[*types.ProviderLoginResponse]{}, err
	}

	resp, ferr := fixtures.ProviderLogin(req, c.now())
	if ferr != nil {
		return types.Result[*types.ProviderLoginResponse]{}, ferr
	}
	return types.Result[*types.ProviderLoginResponse]{Value: resp, Fallback: true, Warning: err}, nil
}

// PatientLogin authenticates a patient. Missing device info is filled from
// the gateway configuration.
func (c *Client) PatientLogin(ctx context.Context, req types.PatientLoginRequest) (types.Result[*types.PatientLoginResponse], error) {
	if req.DeviceInfo == nil {
		req.DeviceInfo = &types.DeviceInfo{
			AppVersion: c.cfg.AppVersion,
			DeviceName: c.cfg.DeviceName,
			DeviceType: c.cfg.DeviceType,
		}
	}

	var out types.PatientLoginResponse
	err := c.do(ctx, OpPatientLogin, http.MethodPost, "/api/v1/patient/login", nil, req, &out)
	if err == nil {
		return types.Result[*types.PatientLoginResponse]{Value: &out}, nil
	}
	if !c.shouldFallback(err) {
		return types.Result[*types.PatientLoginResponse]{}, err
	}

	resp, ferr := fixtures.PatientLogin(req, c.now())
	if ferr != nil {
		return types.Result[*types.PatientLoginResponse]{}, ferr
	}
	return types.Result[*types.PatientLoginResponse]{Value: resp, Fallback: true, Warning: err}, nil
}

// ProviderRegister creates a provider account. Offline, the submitted
// profile is echoed back with a placeholder id.
func (c *Client) ProviderRegister(ctx context.Context, req types.ProviderRegistrationRequest) (types.Result[*types.ProviderRegistrationResponse], error) {
	var out types.ProviderRegistrationResponse
	err := c.do(ctx, OpProviderRegister, http.MethodPost, "/api/v1/provider/register", nil, req, &out)
	if err == nil {
		return types.Result[*types.ProviderRegistrationResponse]{Value: &out}, nil
	}
	if !c.shouldFallback(err) {
		return types.Result[*types.ProviderRegistrationResponse]{}, err
	}
	return types.Result[*types.ProviderRegistrationResponse]{
		Value:    fixtures.ProviderRegistration(req, c.now()),
		Fallback: true,
		Warning:  err,
	}, nil
}

// PatientRegister creates a patient account. It has no offline fixture, so
// a NetworkUnavailable error is returned for the caller to prompt a retry.
func (c *Client) PatientRegister(ctx context.Context, req types.PatientRegistrationRequest) (types.Result[*types.PatientRegistrationResponse], error) {
	var out types.PatientRegistrationResponse
	if err := c.do(ctx, OpPatientRegister, http.MethodPost, "/api/v1/patient/register", nil, req, &out); err != nil {
		return types.Result[*types.PatientRegistrationResponse]{}, err
	}
	return types.Result[*types.PatientRegistrationResponse]{Value: &out}, nil
}

// FetchAvailability loads a provider's weekly template and block days
func (c *Client) FetchAvailability(ctx context.Context, providerID string, r types.DateRange) (types.Result[*types.AvailabilityPayload], error) {
	query := url.Values{}
	if !r.StartDate.IsZero() {
		query.Set("start_date", r.StartDate.Format(types.DateLayout))
	}
	if !r.EndDate.IsZero() {
		query.Set("end_date", r.EndDate.Format(types.DateLayout))
	}
	path := fmt.Sprintf("/api/v1/provider/%s/availability", url.PathEscape(providerID))

	var out types.AvailabilityPayload
	err := c.do(ctx, OpFetchAvailability, http.MethodGet, path, query, nil, &out)
	if err == nil {
		return types.Result[*types.AvailabilityPayload]{Value: &out}, nil
	}
	if !c.shouldFallback(err) {
		return types.Result[*types.AvailabilityPayload]{}, err
	}
	return types.Result[*types.AvailabilityPayload]{
		Value:    fixtures.Availability(providerID, r),
		Fallback: true,
		Warning:  err,
	}, nil
}

func (c *Client) shouldFallback(err error) bool {
	return c.cfg.OfflineFallback && types.IsType(err, types.ErrorTypeNetworkUnavailable)
}

// servesFixture reports whether operation will answer err from a fixture
func (c *Client) servesFixture(operation string, err error) bool {
	return operation != OpPatientRegister && c.shouldFallback(err)
}

// do performs one JSON round trip and classifies every failure
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) (err error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	start := time.Now()
	statusCode := 0

	ctx, span := c.tracing.StartGatewaySpan(ctx, operation, method, endpoint)
	defer func() {
		duration := time.Since(start)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
		if err != nil {
			c.tracing.RecordError(span, err)
		}
		span.End()

		fallback := c.servesFixture(operation, err)
		if c.metrics != nil {
			c.metrics.RecordGatewayCall(operation, outcome(err, fallback), duration)
		}
		c.logger.GatewayCall(ctx, operation, path, statusCode, duration.Milliseconds(), fallback, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("gateway: marshal %s request: %w", operation, merr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("gateway: create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", requestID)
	}
	c.tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("gateway: %s abandoned: %w", operation, ctxErr)
		}
		return types.NewNetworkUnavailableError(err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("gateway: %s abandoned: %w", operation, ctxErr)
		}
		return types.NewNetworkUnavailableError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyHTTPError(operation, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return types.NewServerError(http.StatusBadGateway, "The server sent a response we couldn't read. Please try again later.", err)
	}
	return nil
}

func outcome(err error, fallback bool) string {
	switch {
	case err == nil:
		return "ok"
	case fallback:
		return "fallback"
	case isCanceled(err):
		return "canceled"
	}
	return "error"
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
