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

package errors

import (
	"fmt"
)

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing fields, or invalid values.
// A reload that produces a ConfigError is rejected and the supervisor keeps
// running on the previously valid configuration.
type ConfigError struct {
	// Key is the configuration key that has the problem
	// (e.g. "programs.web.replicas").
	Key string

	// Reason explains what's wrong with the configuration.
	Reason string

	// Cause is the underlying error (e.g. file read error, parse error).
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// SpawnError represents a failure to launch a child process: executable
// missing, exec permission denied, invalid working directory. It is fed to
// the restart policy evaluator as a failed exit and never crashes the
// supervisor.
type SpawnError struct {
	// Program is the program whose replica failed to spawn.
	Program string

	// Cause is the underlying error from the OS.
	Cause error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Program, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// SignalError represents a failure to deliver a signal to a managed process,
// typically because it already exited. Logged and ignored, never escalated.
type SignalError struct {
	// Program is the program the signal was aimed at.
	Program string

	// PID is the process the signal was sent to.
	PID int

	// Cause is the underlying error from the OS.
	Cause error
}

// Error implements the error interface.
func (e *SignalError) Error() string {
	return fmt.Sprintf("failed to signal %s (pid %d): %v", e.Program, e.PID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SignalError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents a resource not found error.
// Use this when a requested program or instance does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g. "program", "instance").
	Resource string

	// ID is the identifier that was not found.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConflictError represents an operation that conflicts with current state,
// such as starting a program whose replicas are all already running.
type ConflictError struct {
	// Resource is the type of resource (e.g. "program").
	Resource string

	// ID is the identifier of the resource.
	ID string

	// Reason explains the conflict.
	Reason string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Resource, e.ID, e.Reason)
}
