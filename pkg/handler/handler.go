// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package handler exposes the provisioning chain as an Azure Functions custom
// handler. The Functions host forwards the original HTTP request, so the
// handler is a plain net/http server.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/metrics"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ProvisionRoute = "/api/provision-vm"

	RunIDHeader        = "X-Provisioning-Run-Id"
	InvocationIDHeader = "X-Azure-Functions-InvocationId"

	missingParametersMessage = "Please pass vm_name, resource_group_name, and location in the request body"

	maxBodyBytes = 64 << 10
)

// Server routes HTTP triggers to the provisioner.
type Server struct {
	mux         *http.ServeMux
	logger      zerolog.Logger
	provisioner *prov.Provisioner
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
}

// NewServer creates a Server with all routes registered. m and gatherer may be
// nil; without a gatherer /metrics is not served.
func NewServer(p *prov.Provisioner, m *metrics.Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		provisioner: p,
		metrics:     m,
		gatherer:    gatherer,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc(ProvisionRoute, s.handleProvisionVM)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the instrumented handler the HTTP server should serve.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.loggingMiddleware(s.mux), "vmprov")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleProvisionVM(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeText(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	invocationID := r.Header.Get(InvocationIDHeader)
	if invocationID == "" {
		invocationID = uuid.NewString()
	}
	log := s.logger.With().Str("invocationId", invocationID).Logger()
	ctx := log.WithContext(r.Context())

	log.Info().Msg("Provision trigger received")

	req := requestParams(r)
	result, err := s.provisioner.Provision(ctx, req)
	if result != nil {
		w.Header().Set(RunIDHeader, result.RunID)
	}

	status, body := response(req, err)
	s.metrics.ObserveRequest(status)
	if status == http.StatusBadRequest {
		log.Warn().Err(err).Msg("Rejected request")
	}
	writeText(w, status, body)
}

// response maps the outcome of a run to the HTTP status and plain text body.
func response(req prov.Request, err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, fmt.Sprintf("VM %s created successfully.", req.VMName)
	case errors.Is(err, prov.ErrMissingParameter):
		return http.StatusBadRequest, missingParametersMessage
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Error creating VM: %s", err)
	}
}

type requestBody struct {
	VMName            string `json:"vm_name"`
	ResourceGroupName string `json:"resource_group_name"`
	Location          string `json:"location"`
}

// requestParams reads the parameters from the query string. Parameters missing
// there are taken from a JSON body, if one is present and parses.
func requestParams(r *http.Request) prov.Request {
	q := r.URL.Query()
	req := prov.Request{
		VMName:            q.Get("vm_name"),
		ResourceGroupName: q.Get("resource_group_name"),
		Location:          q.Get("location"),
	}
	if req.Validate() == nil || r.Body == nil {
		return req
	}

	var body requestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return req
	}
	if req.VMName == "" {
		req.VMName = body.VMName
	}
	if req.ResourceGroupName == "" {
		req.ResourceGroupName = body.ResourceGroupName
	}
	if req.Location == "" {
		req.Location = body.Location
	}
	return req
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("dur", time.Since(start)).
			Msg("request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
