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

// Package config loads and validates the warden configuration file: the
// daemon settings and the program specifications the supervisor manages.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	wardenerrors "github.com/warden-sh/warden/pkg/errors"
)

// Config represents the complete warden configuration.
type Config struct {
	Daemon   DaemonConfig        `yaml:"daemon,omitempty"`
	Programs map[string]*Program `yaml:"programs"`
}

// DaemonConfig configures the daemon itself, as opposed to the programs
// it supervises.
type DaemonConfig struct {
	// Socket is the Unix socket path for the control API.
	// Default: $XDG_RUNTIME_DIR/warden/warden.sock, else ~/.warden/warden.sock
	Socket string `yaml:"socket,omitempty"`

	// TCP is an optional localhost TCP address for the control API.
	// Takes precedence over Socket when set. Non-localhost binds are refused.
	TCP string `yaml:"tcp,omitempty"`

	// PIDFile is the path to the PID file. Empty means no PID file.
	PIDFile string `yaml:"pid_file,omitempty"`

	// Log configures daemon logging.
	Log LogConfig `yaml:"log,omitempty"`

	// WatchConfig reloads the configuration automatically when the file
	// changes on disk.
	WatchConfig bool `yaml:"watch_config,omitempty"`

	// Metrics exposes Prometheus metrics on GET /metrics.
	Metrics bool `yaml:"metrics,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format sets the output format (json, text).
	Format string `yaml:"format,omitempty"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &wardenerrors.ConfigError{
			Reason: fmt.Sprintf("cannot read %s", path),
			Cause:  err,
		}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse unmarshals, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &wardenerrors.ConfigError{
			Reason: "invalid YAML",
			Cause:  err,
		}
	}

	for name, p := range cfg.Programs {
		if p == nil {
			return nil, keyError(name, "", "program entry is empty")
		}
		p.Name = name
		p.applyDefaults()
		if err := p.validate(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ProgramNames returns the configured program names in sorted order.
func (c *Config) ProgramNames() []string {
	names := make([]string, 0, len(c.Programs))
	for name := range c.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// keyError builds a ConfigError scoped to a program field.
func keyError(program, field, reason string) error {
	key := "programs." + program
	if field != "" {
		key += "." + field
	}
	return &wardenerrors.ConfigError{Key: key, Reason: reason}
}
