package portalapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/healthfirst/portal/pkg/config"
	"github.com/healthfirst/portal/pkg/interfaces"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/healthfirst/portal/pkg/types"
)

const maxRequestBody = 1 << 20

// Server exposes a Service over HTTP
type Server struct {
	service    *Service
	tokens     interfaces.TokenValidator
	limiter    interfaces.RateLimiter
	metrics    *monitoring.MetricsCollector
	monitoring *monitoring.MonitoringMiddleware
	health     *monitoring.HealthManager
	paths      config.MonitoringConfig
	logger     *logger.Logger
	router     *mux.Router
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithRateLimiter rejects clients over their budget with 429
func WithRateLimiter(l interfaces.RateLimiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithMonitoring adds request metrics, tracing and the metrics endpoint
func WithMonitoring(metrics *monitoring.MetricsCollector, tracing *monitoring.TracingManager) ServerOption {
	return func(s *Server) {
		s.metrics = metrics
		s.monitoring = monitoring.NewMonitoringMiddleware(metrics, tracing, s.logger)
	}
}

// WithHealth serves the health report of hm
func WithHealth(hm *monitoring.HealthManager) ServerOption {
	return func(s *Server) { s.health = hm }
}

// WithPaths overrides the health and metrics paths
func WithPaths(cfg config.MonitoringConfig) ServerOption {
	return func(s *Server) {
		if cfg.HealthPath != "" {
			s.paths.HealthPath = cfg.HealthPath
		}
		if cfg.MetricsPath != "" {
			s.paths.MetricsPath = cfg.MetricsPath
		}
	}
}

// NewServer wires the routes for svc
func NewServer(svc *Service, tokens interfaces.TokenValidator, log *logger.Logger, opts ...ServerOption) *Server {
	s := &Server{
		service: svc,
		tokens:  tokens,
		logger:  log,
		paths:   config.MonitoringConfig{HealthPath: "/health", MetricsPath: "/metrics"},
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/provider/register", s.registerProviderHandler).Methods(http.MethodPost)
	api.HandleFunc("/provider/login", s.providerLoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/patient/register", s.registerPatientHandler).Methods(http.MethodPost)
	api.HandleFunc("/patient/login", s.patientLoginHandler).Methods(http.MethodPost)

	api.HandleFunc("/provider/{id}/availability", s.getAvailabilityHandler).Methods(http.MethodGet)
	api.Handle("/provider/{id}/availability", s.authMiddleware(http.HandlerFunc(s.updateAvailabilityHandler))).Methods(http.MethodPut)

	s.router.HandleFunc(s.paths.HealthPath, s.healthHandler).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle(s.paths.MetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.logger.Info("Portal API routes configured")
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.rateLimitMiddleware(h)
	if s.monitoring != nil {
		h = s.monitoring.HTTPMiddleware(h)
	}
	h = corsMiddleware(h)
	return securityHeadersMiddleware(h)
}

func (s *Server) registerProviderHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ProviderRegistrationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.service.RegisterProvider(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) registerPatientHandler(w http.ResponseWriter, r *http.Request) {
	var req types.PatientRegistrationRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.service.RegisterPatient(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) providerLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ProviderLoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.service.ProviderLogin(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) patientLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req types.PatientLoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.service.PatientLogin(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) getAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.service.GetAvailability(r.Context(), mux.Vars(r)["id"], rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) updateAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req types.AvailabilityUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	claims, _ := ClaimsFromContext(r.Context())
	res, err := s.service.UpdateAvailability(r.Context(), claims, mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		s.health.HTTPHandler()(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(monitoring.HealthStatusHealthy)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst); err != nil {
		s.writeError(w, r, badRequest("Invalid request body", nil))
		return false
	}
	return true
}

// errorResponse is the body of every failed request. Detail is either a
// message or a list of field errors.
type errorResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code"`
	Detail    interface{} `json:"detail,omitempty"`
}

type fieldDetail struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *types.PortalError
	if !errors.As(err, &pe) || pe.Status == 0 || pe.Status >= http.StatusInternalServerError {
		s.logger.WithContext(r.Context()).WithError(err).Error("Request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message:   "Internal server error",
			ErrorCode: types.ErrCodeServerError,
		})
		return
	}

	resp := errorResponse{Message: pe.Message, ErrorCode: pe.Code, Detail: pe.Message}
	if fields, ok := pe.Details["errors"].(map[string]string); ok && len(fields) > 0 {
		resp.Detail = fieldDetails(fields)
	}
	s.writeJSON(w, pe.Status, resp)
}

func fieldDetails(fields map[string]string) []fieldDetail {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]fieldDetail, 0, len(names))
	for _, name := range names {
		out = append(out, fieldDetail{Loc: []string{"body", name}, Msg: fields[name]})
	}
	return out
}
