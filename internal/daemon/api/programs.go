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

package api

import (
	"context"
	"net/http"

	"github.com/warden-sh/warden/internal/daemon/httputil"
	"github.com/warden-sh/warden/internal/supervisor"
	wardenerrors "github.com/warden-sh/warden/pkg/errors"
)

// HealthResponse is the response from GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	BootID  string `json:"boot_id,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
	Started string `json:"started,omitempty"`
}

// VersionResponse is the response from GET /v1/version.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// StatusResponse is the response from GET /v1/status.
type StatusResponse struct {
	Programs []supervisor.ProgramStatus `json:"programs"`
}

// ReloadResponse is the response from POST /v1/reload.
type ReloadResponse struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// handleStatus handles GET /v1/status.
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) {
	programs, err := r.control.Status(req.Context())
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Programs: programs})
}

// handleProgramStatus handles GET /v1/programs/{name}.
func (r *Router) handleProgramStatus(w http.ResponseWriter, req *http.Request) {
	st, err := r.control.ProgramStatus(req.Context(), req.PathValue("name"))
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

// handleStart handles POST /v1/programs/{name}/start.
func (r *Router) handleStart(w http.ResponseWriter, req *http.Request) {
	r.programAction(w, req, r.control.Start)
}

// handleStop handles POST /v1/programs/{name}/stop.
func (r *Router) handleStop(w http.ResponseWriter, req *http.Request) {
	r.programAction(w, req, r.control.Stop)
}

// handleRestart handles POST /v1/programs/{name}/restart.
func (r *Router) handleRestart(w http.ResponseWriter, req *http.Request) {
	r.programAction(w, req, r.control.Restart)
}

func (r *Router) programAction(w http.ResponseWriter, req *http.Request, action func(context.Context, string) error) {
	name := req.PathValue("name")
	if err := action(req.Context(), name); err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"program": name, "status": "ok"})
}

// handleReload handles POST /v1/reload.
func (r *Router) handleReload(w http.ResponseWriter, req *http.Request) {
	diff, err := r.reloader.Reload(req.Context())
	if err != nil {
		writeControlError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReloadResponse{
		Added:   emptyIfNil(diff.Added),
		Removed: emptyIfNil(diff.Removed),
		Changed: emptyIfNil(diff.Changed),
	})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// writeControlError maps supervisor errors to HTTP status codes.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case wardenerrors.IsNotFound(err):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case wardenerrors.IsConflict(err):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	case wardenerrors.IsConfig(err):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case wardenerrors.Is(err, supervisor.ErrShuttingDown):
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
