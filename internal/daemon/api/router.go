// Copyright 2026 The Warden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api provides the HTTP control API for the daemon.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/warden-sh/warden/internal/config"
	"github.com/warden-sh/warden/internal/daemon/httputil"
	"github.com/warden-sh/warden/internal/supervisor"
)

// Control is the supervisor surface the API drives.
type Control interface {
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	Status(ctx context.Context) ([]supervisor.ProgramStatus, error)
	ProgramStatus(ctx context.Context, name string) (supervisor.ProgramStatus, error)
}

// Reloader re-reads the configuration file and applies it.
type Reloader interface {
	Reload(ctx context.Context) (config.Diff, error)
}

// MetricsHandler serves a Prometheus metrics endpoint.
type MetricsHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// RouterConfig holds configuration for the API router.
type RouterConfig struct {
	Version   string
	Commit    string
	BuildDate string
	BootID    string
}

// Router wraps an http.ServeMux with request logging.
type Router struct {
	mux      *http.ServeMux
	config   RouterConfig
	control  Control
	reloader Reloader
	logger   *slog.Logger
	started  time.Time
}

// NewRouter creates the HTTP router with all control endpoints.
func NewRouter(cfg RouterConfig, control Control, reloader Reloader, logger *slog.Logger) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		config:   cfg,
		control:  control,
		reloader: reloader,
		logger:   logger,
		started:  time.Now(),
	}

	r.mux.HandleFunc("GET /v1/health", r.handleHealth)
	r.mux.HandleFunc("GET /v1/version", r.handleVersion)
	r.mux.HandleFunc("GET /v1/status", r.handleStatus)
	r.mux.HandleFunc("GET /v1/programs/{name}", r.handleProgramStatus)
	r.mux.HandleFunc("POST /v1/programs/{name}/start", r.handleStart)
	r.mux.HandleFunc("POST /v1/programs/{name}/stop", r.handleStop)
	r.mux.HandleFunc("POST /v1/programs/{name}/restart", r.handleRestart)
	r.mux.HandleFunc("POST /v1/reload", r.handleReload)

	// Root endpoint for basic connectivity check
	r.mux.HandleFunc("GET /", r.handleRoot)

	return r
}

// SetMetricsHandler registers the Prometheus metrics endpoint.
func (r *Router) SetMetricsHandler(handler MetricsHandler) {
	if handler != nil {
		r.mux.HandleFunc("GET /metrics", handler.ServeHTTP)
	}
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	defer func() {
		r.logger.Info("request completed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}()

	r.mux.ServeHTTP(w, req)
}

// handleRoot handles GET / for basic connectivity.
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "wardend",
		"version": r.config.Version,
	})
}

// handleHealth handles GET /v1/health.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		BootID:  r.config.BootID,
		Uptime:  time.Since(r.started).Round(time.Second).String(),
		Started: r.started.UTC().Format(time.RFC3339),
	})
}

// handleVersion handles GET /v1/version.
func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, VersionResponse{
		Version:   r.config.Version,
		Commit:    r.config.Commit,
		BuildDate: r.config.BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
}
