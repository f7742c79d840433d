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

package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/config"
	"github.com/warden-sh/warden/internal/daemon"
	"github.com/warden-sh/warden/internal/log"
	"github.com/warden-sh/warden/internal/supervisor"
)

const (
	waitFor = 5 * time.Second
	tick    = 20 * time.Millisecond
)

// startDaemon runs a full daemon against a temp config file and returns
// a client connected to its socket plus the config path for rewrites.
func startDaemon(t *testing.T, programs string) (*Client, string) {
	t.Helper()
	dir := t.TempDir()
	socket := filepath.Join(dir, "warden.sock")
	cfgPath := filepath.Join(dir, "warden.yml")

	doc := fmt.Sprintf("daemon:\n  socket: %s\n%s", socket, programs)
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	logger := log.New(&log.Config{Level: "error", Format: log.FormatText, Output: os.Stderr})
	d, err := daemon.New(cfgPath, cfg, daemon.Options{Version: "test"}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("daemon did not shut down")
		}
	})

	c, err := New(WithTransport(NewUnixTransport(socket)))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Ping(context.Background()) == nil
	}, waitFor, tick, "daemon never became reachable")

	return c, cfgPath
}

func waitForProgramState(t *testing.T, c *Client, program string, want supervisor.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := c.ProgramStatus(context.Background(), program)
		if err != nil || len(st.Instances) == 0 {
			return false
		}
		return st.Instances[0].State == want
	}, waitFor, tick, "program %s never reached %s", program, want)
}

func TestClientHealthAndVersion(t *testing.T) {
	c, _ := startDaemon(t, `
programs:
  sleeper:
    command: /bin/sh
    args: ["-c", "sleep 30"]
`)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.BootID)

	version, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", version.Version)
	assert.NotEmpty(t, version.GoVersion)
}

func TestClientProgramLifecycle(t *testing.T) {
	c, _ := startDaemon(t, `
programs:
  sleeper:
    command: /bin/sh
    args: ["-c", "sleep 30"]
    at_launch: true
`)
	ctx := context.Background()
	waitForProgramState(t, c, "sleeper", supervisor.StateRunning)

	programs, err := c.Status(ctx)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "sleeper", programs[0].Name)

	require.NoError(t, c.Stop(ctx, "sleeper"))
	waitForProgramState(t, c, "sleeper", supervisor.StateStopped)

	// Stopping an already stopped program is a conflict.
	err = c.Stop(ctx, "sleeper")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	require.NoError(t, c.Start(ctx, "sleeper"))
	waitForProgramState(t, c, "sleeper", supervisor.StateRunning)

	require.NoError(t, c.Restart(ctx, "sleeper"))
	waitForProgramState(t, c, "sleeper", supervisor.StateRunning)
}

func TestClientUnknownProgram(t *testing.T) {
	c, _ := startDaemon(t, `
programs:
  sleeper:
    command: /bin/sh
    args: ["-c", "sleep 30"]
`)
	err := c.Start(context.Background(), "ghost")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "ghost")
}

func TestClientReload(t *testing.T) {
	c, cfgPath := startDaemon(t, `
programs:
  sleeper:
    command: /bin/sh
    args: ["-c", "sleep 30"]
`)
	ctx := context.Background()

	// Rewrite the config with an extra program, keeping the daemon block.
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	updated := string(data) + `
  extra:
    command: /bin/sh
    args: ["-c", "sleep 30"]
    at_launch: true
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(updated), 0o644))

	diff, err := c.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"extra"}, diff.Added)
	assert.Empty(t, diff.Removed)

	waitForProgramState(t, c, "extra", supervisor.StateRunning)
}

func TestClientReloadRejectsBrokenConfig(t *testing.T) {
	c, cfgPath := startDaemon(t, `
programs:
  sleeper:
    command: /bin/sh
    args: ["-c", "sleep 30"]
    at_launch: true
`)
	ctx := context.Background()
	waitForProgramState(t, c, "sleeper", supervisor.StateRunning)

	require.NoError(t, os.WriteFile(cfgPath, []byte("programs:\n  broken:\n    replicas: 2\n"), 0o644))

	_, err := c.Reload(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)

	// The running program is untouched.
	st, err := c.ProgramStatus(ctx, "sleeper")
	require.NoError(t, err)
	assert.Equal(t, supervisor.StateRunning, st.Instances[0].State)
}
