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

// Package listener provides Unix socket and TCP listener abstractions
// for the control API.
package listener

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/warden-sh/warden/internal/config"
)

// New creates a listener based on the daemon configuration.
// Priority: TCP (if configured) > Unix socket (default).
func New(cfg config.DaemonConfig) (net.Listener, error) {
	if cfg.TCP != "" {
		return newTCPListener(cfg.TCP)
	}
	socket := cfg.Socket
	if socket == "" {
		var err error
		socket, err = config.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return newUnixListener(socket)
}

// newUnixListener creates a Unix socket listener, replacing any stale
// socket file from a previous run.
func newUnixListener(socketPath string) (net.Listener, error) {
	dir := filepath.Dir(socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on Unix socket: %w", err)
	}

	// Owner only: the control API can signal and kill processes.
	if err := os.Chmod(socketPath, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return ln, nil
}

// newTCPListener creates a TCP listener. Non-localhost bindings are
// refused: the control API carries no authentication, so exposing it to
// the network would let anyone manage the supervised processes.
func newTCPListener(addr string) (net.Listener, error) {
	if isRemoteAddr(addr) {
		return nil, fmt.Errorf("refusing to bind control API to non-localhost address %s", addr)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on TCP: %w", err)
	}
	return ln, nil
}

// isRemoteAddr returns true if the address binds to non-localhost
// interfaces.
func isRemoteAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		if strings.HasPrefix(addr, ":") {
			host = ""
		}
	}

	// Empty host, 0.0.0.0 or :: means all interfaces.
	if host == "" || host == "0.0.0.0" || host == "::" {
		return true
	}

	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !ip.IsLoopback()
	}
	// Unknown hostname: assume remote and refuse.
	return true
}
