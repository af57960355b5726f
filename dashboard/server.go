package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/eadash/export"
	"github.com/spektr-org/eadash/render"
)

const shutdownTimeout = 5 * time.Second

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Server serves the latest dashboard snapshot.
type Server struct {
	builder *Builder
	metrics *Metrics
	logger  *zap.Logger
	current atomic.Pointer[Dashboard]

	// RenderOptions sizes chart images.
	RenderOptions render.Options
}

// NewServer creates a server around builder. Call Rebuild or Store before
// serving; until then the API answers 503.
func NewServer(builder *Builder, metrics *Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{builder: builder, metrics: metrics, logger: logger}
}

// Store replaces the served snapshot.
func (s *Server) Store(d *Dashboard) { s.current.Store(d) }

// Snapshot returns the served snapshot, or nil before the first build.
func (s *Server) Snapshot() *Dashboard { return s.current.Load() }

// Rebuild builds a new snapshot and swaps it in. On failure the previous
// snapshot keeps being served.
func (s *Server) Rebuild(ctx context.Context) error {
	d, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}
	s.Store(d)
	return nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /api/dashboard", s.handleDashboard)
	s.handle(mux, "GET /api/funding/flows", s.handleFlows)
	s.handle(mux, "GET /api/countries", s.handleCountries)
	s.handle(mux, "GET /charts/{file}", s.handleChart)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.observeRequest(pattern, rec.status)
	})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving dashboard", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) snapshot(w http.ResponseWriter) *Dashboard {
	d := s.Snapshot()
	if d == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "dashboard has not been built yet")
	}
	return d
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	d := s.snapshot(w)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"buildId": d.BuildID,
		"builtAt": d.BuiltAt,
	})
}

// handleDashboard handles GET /api/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if d := s.snapshot(w); d != nil {
		writeJSON(w, http.StatusOK, d)
	}
}

// handleFlows handles GET /api/funding/flows. ?format=csv returns the flow
// list as CSV; the default is the node/link graph.
func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	d := s.snapshot(w)
	if d == nil {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, d.Funding.Graph)
		return
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_format", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := export.WriteFlows(&buf, d.Funding.Graph.Flows, f); err != nil {
		s.logger.Error("encode flows", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	switch f {
	case export.CSV:
		w.Header().Set("Content-Type", "text/csv")
	case export.JSON, export.Pretty:
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(buf.Bytes())
}

// handleCountries handles GET /api/countries.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	d := s.snapshot(w)
	if d == nil {
		return
	}
	if d.Countries == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "country table was not loaded")
		return
	}
	writeJSON(w, http.StatusOK, d.Countries)
}

// handleChart handles GET /charts/{id}.png and /charts/{id}.svg.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	d := s.snapshot(w)
	if d == nil {
		return
	}
	file := r.PathValue("file")
	ext := path.Ext(file)
	format, err := render.ParseFormat(ext)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_format", err.Error())
		return
	}
	chart, ok := d.Chart(strings.TrimSuffix(file, ext))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not_found", "no chart "+strings.TrimSuffix(file, ext))
		return
	}

	var buf bytes.Buffer
	if err := render.Chart(&buf, chart, format, s.RenderOptions); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrEmptyChart) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("render chart", zap.String("chart", chart.ID), zap.Error(err))
		writeJSONError(w, status, "render_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errorCode, Message: message})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}
