package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthReportAggregation(t *testing.T) {
	hm := NewHealthManager("portal-api", "test")
	hm.RegisterChecker("redis", NewPingChecker(pinger{}))

	report := hm.CheckHealth(context.Background())
	assert.Equal(t, HealthStatusHealthy, report.Status)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "redis", report.Checks[0].Name)

	hm.RegisterChecker("storage", NewPingChecker(pinger{err: errors.New("dial tcp: refused")}))
	report = hm.CheckHealth(context.Background())
	assert.Equal(t, HealthStatusDegraded, report.Status)
	assert.Equal(t, 1, report.Summary["degraded"])
}

func TestHealthHandlerUnhealthyDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection reset"))

	hm := NewHealthManager("portal-api", "test")
	hm.RegisterChecker("database", NewDatabaseHealthChecker(db))

	rec := httptest.NewRecorder()
	hm.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, HealthStatusUnhealthy, report.Status)
	assert.Contains(t, report.Checks[0].Message, "connection reset")
}

func TestDatabaseHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	check := NewDatabaseHealthChecker(db).Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, check.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddlewareSetsRequestAndTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	metrics := NewMetricsCollector("portal-api")
	mw := NewMonitoringMiddleware(metrics, NewTracingManagerWithProvider(tp, "portal-api"), logger.NewWithOutput("error", io.Discard))

	var seenRequestID interface{}
	h := mw.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = r.Context().Value(logger.RequestIDKey)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/provider/p1/availability", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", seenRequestID)
	assert.Len(t, rec.Header().Get("X-Trace-ID"), 32)
}

func TestMiddlewareWithoutProviderHasNoTraceID(t *testing.T) {
	mw := NewMonitoringMiddleware(NewMetricsCollector("portal-api"), NewTracingManagerWithProvider(noop.NewTracerProvider(), "portal-api"), logger.NewWithOutput("error", io.Discard))
	rec := httptest.NewRecorder()
	mw.HTTPMiddleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Empty(t, rec.Header().Get("X-Trace-ID"))
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetricsCollector("portal-cli")
	m.RecordGatewayCall("provider_login", "fallback", 20*time.Millisecond)
	m.RecordAuthAttempt("patient", "failure")
	m.RecordSlotMutation("add", 3)
	m.RecordRateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, `gateway_calls_total{operation="provider_login",outcome="fallback",service="portal-cli"} 1`), body)
	assert.Contains(t, body, "auth_attempts_total")
}

func TestInstallTracerProvider(t *testing.T) {
	tp, err := InstallTracerProvider(context.Background(), TracingConfig{
		ServiceName:    "portal-api",
		ServiceVersion: "test",
		Environment:    "test",
		SamplingRate:   1,
	})
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tm := NewTracingManager("portal-api")
	ctx, span := tm.StartSpan(context.Background(), "op")
	defer span.End()
	assert.NotEmpty(t, tm.TraceIDFromContext(ctx))

	header := http.Header{}
	tm.InjectHeaders(ctx, header)
	assert.NotEmpty(t, header.Get("traceparent"))
}
