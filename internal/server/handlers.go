package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/dispatch"
)

// routes assembles the HTTP handler. Only the generate endpoint is rate
// limited; probes and scrapes always get through.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/generate", allowMethod(http.MethodPost, s.withRateLimit(http.HandlerFunc(s.handleGenerate))))
	mux.Handle("/healthz", allowMethod(http.MethodGet, http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", allowMethod(http.MethodGet, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return s.withLogging(mux)
}

// allowMethod restricts a route to one method, as the "METHOD /path"
// mux patterns do on toolchains that support them: other methods get
// 405 with an Allow header, and GET routes also serve HEAD.
func allowMethod(m string, h http.Handler) http.Handler {
	allow := m
	if m == http.MethodGet {
		allow = http.MethodGet + ", " + http.MethodHead
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m && !(m == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", allow)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// handleGenerate runs one element through the engine and answers with the
// dispatch wire protocol. Correlation ids are echoed back; requests that
// arrive without one are assigned one.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.NewFailure(req.CorrelationID, fmt.Errorf("decoding request: %w", err)))
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}

	opts := engine.Options{Options: req.Options, UseCache: true}
	buf, err := s.eng.Generate(r.Context(), req.ElementSpec, opts)
	if err != nil {
		writeJSON(w, statusFor(err), dispatch.NewFailure(req.CorrelationID, err))
		return
	}

	writeJSON(w, http.StatusOK, dispatch.NewSuccess(req.CorrelationID, buf))
}

// statusFor maps engine errors onto HTTP status codes. Anything rejected
// before dispatch is the client's fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, dispatch.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, dispatch.ErrWorkerFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// handleHealth reports engine and store health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status  string `json:"status"`
		Store   string `json:"store,omitempty"`
		Pending int    `json:"pending"`
	}{Status: "ok", Pending: s.eng.Pending()}

	code := http.StatusOK
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.Store = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			health.Store = "ok"
		}
	}

	writeJSON(w, code, health)
}

// withRateLimit rejects requests beyond the configured rate with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, dispatch.Response{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging writes one access log line per request. Probe and scrape
// traffic logs at debug to keep the info stream readable.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := s.logger.Info
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			log = s.logger.Debug
		}
		log("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
