// Package server exposes the dashboard page, its charts and exports over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"palmdash/internal/chart"
	"palmdash/internal/page"
	"palmdash/internal/pipeline"
	"palmdash/internal/report"
)

var contentTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
	"pdf": "application/pdf",
}

// Server routes dashboard requests.
type Server struct {
	dash     *pipeline.Dashboard
	page     *page.Page
	registry *prometheus.Registry
	logger   *slog.Logger
	metrics  *httpMetrics
	mux      *http.ServeMux
}

// New builds the routes. HTTP metrics are registered on registry, which is
// also served at /metrics.
func New(dash *pipeline.Dashboard, p *page.Page, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dash:     dash,
		page:     p,
		registry: registry,
		logger:   logger.With("component", "http"),
		metrics:  newHTTPMetrics(registry),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("GET /charts/{file}", s.handleChart)
	s.mux.HandleFunc("GET /api/timeseries", s.handleTimeSeries)
	s.mux.HandleFunc("GET /api/layers/{name}", s.handleLayer)
	s.mux.HandleFunc("GET /export.xlsx", s.handleExport)
	s.mux.HandleFunc("POST /api/cache/invalidate", s.handleInvalidate)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return s
}

// Handler returns the routes wrapped in request logging and metrics.
func (s *Server) Handler() http.Handler {
	return s.observe(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, readHeaderTimeout, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, readHeaderTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.page.Render(&buf, s.dash); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	dot := strings.LastIndexByte(file, '.')
	if dot < 0 {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	name, format := file[:dot], strings.ToLower(file[dot+1:])
	if !chart.SupportedFormat(format) {
		writeError(w, http.StatusNotFound, "unsupported chart format")
		return
	}

	c, err := s.dash.Chart(name)
	if errors.Is(err, pipeline.ErrUnknownPipeline) {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if format == "svg" {
		raw, err := c.SVG()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		buf.Write(raw)
	} else if err := c.Render(&buf, format); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	trends, err := s.dash.TimeSeries()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	layer, err := s.dash.Layer(r.PathValue("name"))
	if errors.Is(err, pipeline.ErrUnknownPipeline) {
		writeError(w, http.StatusNotFound, "layer not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	raw, err := layer.GeoJSON()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(raw)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.dash.Report()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, data); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="palmdash.xlsx"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["pipeline"]
	if err := s.dash.Invalidate(names...); err != nil {
		if errors.Is(err, pipeline.ErrUnknownPipeline) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	if len(names) == 0 {
		names = pipeline.Names
	}
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": names})
}

// fail logs a pipeline fault and answers 500 without retrying.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
