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

package config

import (
	"fmt"
	"reflect"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// RestartMode indicates when an exited replica is relaunched.
type RestartMode string

const (
	// RestartNever leaves an exited replica stopped.
	RestartNever RestartMode = "never"
	// RestartOnFailure relaunches a replica only after an unexpected ending.
	RestartOnFailure RestartMode = "on_failure"
	// RestartAlways relaunches a replica after any ending, expected or not.
	RestartAlways RestartMode = "always"
)

// SignalName is a symbolic Unix signal name such as "SIGTERM".
type SignalName string

// Signal resolves the name to the concrete signal number.
// An empty name resolves to SIGTERM.
func (n SignalName) Signal() syscall.Signal {
	if n == "" {
		return syscall.SIGTERM
	}
	return unix.SignalNum(string(n))
}

// Valid reports whether the name resolves to a known signal.
func (n SignalName) Valid() bool {
	return n == "" || unix.SignalNum(string(n)) != 0
}

// Umask is a file creation mask parsed from an octal string like "022".
type Umask uint32

// UnmarshalYAML parses a quoted octal string. Bare integers are rejected:
// YAML would read 022 as decimal 22 and silently corrupt the mask.
func (u *Umask) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("umask must be a quoted octal string like \"022\"")
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return fmt.Errorf("umask %q is not a valid octal number", s)
	}
	if v > 0o777 {
		return fmt.Errorf("umask %q is out of range (max 777)", s)
	}
	*u = Umask(v)
	return nil
}

// Program describes one configured program: how to launch it, how many
// replicas to keep, and the lifecycle policy applied to each replica.
// A Program is immutable once loaded; reloads produce new values.
type Program struct {
	// Name is the unique program key. Filled from the map key at load time.
	Name string `yaml:"-"`

	// Command is the path of the executable to launch.
	Command string `yaml:"command"`

	// Args is the argument list passed after the command.
	Args []string `yaml:"args,omitempty"`

	// Replicas is the number of concurrent instances to maintain. Minimum 1.
	Replicas int `yaml:"replicas,omitempty"`

	// AtLaunch starts the program automatically when it is loaded.
	AtLaunch bool `yaml:"at_launch,omitempty"`

	// Restart selects the relaunch policy applied to exited replicas.
	Restart RestartMode `yaml:"restart,omitempty"`

	// ExitCodes is the set of exit statuses that do not count as failure.
	ExitCodes []int `yaml:"exit_code,omitempty"`

	// Signal is the stop signal sent on a graceful stop. Default SIGTERM.
	Signal SignalName `yaml:"signal,omitempty"`

	// ExitTimeout is the grace period in seconds after the stop signal
	// before the replica is SIGKILLed.
	ExitTimeout float64 `yaml:"exit_timeout,omitempty"`

	// HealthyUptime is the duration in seconds a replica must run before
	// it counts as successfully started, resetting its failure budget.
	HealthyUptime float64 `yaml:"healthy_uptime,omitempty"`

	// Retries is the maximum number of consecutive restart attempts.
	// Absent means unlimited.
	Retries *int `yaml:"retries,omitempty"`

	// Environment is merged over the inherited environment.
	Environment map[string]string `yaml:"environment,omitempty"`

	// Workdir is the working directory for the child process.
	Workdir string `yaml:"workdir,omitempty"`

	// Umask is applied to the child before exec, if set.
	Umask *Umask `yaml:"umask,omitempty"`

	// Stdout redirects standard output to a file, appending.
	// Empty means discard.
	Stdout string `yaml:"stdout,omitempty"`

	// Stderr redirects standard error to a file, appending.
	// Empty means discard.
	Stderr string `yaml:"stderr,omitempty"`

	// Stdin redirects standard input from a file. Empty means closed.
	Stdin string `yaml:"stdin,omitempty"`
}

// applyDefaults fills zero values with the documented defaults.
func (p *Program) applyDefaults() {
	if p.Replicas == 0 {
		p.Replicas = 1
	}
	if p.Restart == "" {
		p.Restart = RestartNever
	}
	if p.ExitCodes == nil {
		p.ExitCodes = []int{0}
	}
	if p.Signal == "" {
		p.Signal = "SIGTERM"
	}
	if p.ExitTimeout == 0 {
		p.ExitTimeout = 10
	}
}

// validate checks the program against the schema constraints.
func (p *Program) validate() error {
	if p.Command == "" {
		return keyError(p.Name, "command", "is required")
	}
	if p.Replicas < 1 {
		return keyError(p.Name, "replicas", "must be at least 1")
	}
	switch p.Restart {
	case RestartNever, RestartOnFailure, RestartAlways:
	default:
		return keyError(p.Name, "restart",
			fmt.Sprintf("unknown mode %q (want never, on_failure or always)", p.Restart))
	}
	if !p.Signal.Valid() {
		return keyError(p.Name, "signal", fmt.Sprintf("unknown signal name %q", p.Signal))
	}
	if p.ExitTimeout < 0 {
		return keyError(p.Name, "exit_timeout", "must not be negative")
	}
	if p.HealthyUptime < 0 {
		return keyError(p.Name, "healthy_uptime", "must not be negative")
	}
	if p.Retries != nil && *p.Retries < 0 {
		return keyError(p.Name, "retries", "must not be negative")
	}
	return nil
}

// StopSignal returns the concrete stop signal for the program.
func (p *Program) StopSignal() syscall.Signal {
	return p.Signal.Signal()
}

// ExitTimeoutDuration returns the exit timeout as a duration.
func (p *Program) ExitTimeoutDuration() time.Duration {
	return time.Duration(p.ExitTimeout * float64(time.Second))
}

// HealthyUptimeDuration returns the healthy-uptime threshold as a duration.
func (p *Program) HealthyUptimeDuration() time.Duration {
	return time.Duration(p.HealthyUptime * float64(time.Second))
}

// ExpectsExitCode reports whether code is listed as a non-failure outcome.
func (p *Program) ExpectsExitCode(code int) bool {
	for _, c := range p.ExitCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Equal reports whether two program specifications are identical.
func (p *Program) Equal(o *Program) bool {
	return reflect.DeepEqual(p, o)
}
