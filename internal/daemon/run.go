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

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/warden-sh/warden/internal/config"
	wardenlog "github.com/warden-sh/warden/internal/log"
)

// RunOptions configures daemon execution.
type RunOptions struct {
	Version   string
	Commit    string
	BuildDate string

	// Config overrides
	ConfigPath  string
	SocketPath  string
	TCPAddr     string
	PIDFile     string
	WatchConfig bool
}

// Run loads the configuration, starts the daemon and blocks until
// shutdown. SIGINT and SIGTERM stop the daemon gracefully; SIGHUP
// reloads the configuration.
func Run(opts RunOptions) error {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.SocketPath != "" {
		cfg.Daemon.Socket = opts.SocketPath
	}
	if opts.TCPAddr != "" {
		cfg.Daemon.TCP = opts.TCPAddr
	}
	if opts.PIDFile != "" {
		cfg.Daemon.PIDFile = opts.PIDFile
	}
	if opts.WatchConfig {
		cfg.Daemon.WatchConfig = true
	}

	// File settings win over environment defaults.
	logCfg := wardenlog.FromEnv()
	if cfg.Daemon.Log.Level != "" {
		logCfg.Level = cfg.Daemon.Log.Level
	}
	if cfg.Daemon.Log.Format != "" {
		logCfg.Format = wardenlog.Format(cfg.Daemon.Log.Format)
	}
	logger := wardenlog.New(logCfg)
	slog.SetDefault(logger)

	d, err := New(cfgPath, cfg, Options{
		Version:   opts.Version,
		Commit:    opts.Commit,
		BuildDate: opts.BuildDate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(ctx)
	}()

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading configuration")
				if _, err := d.Reload(ctx); err != nil {
					logger.Error("reload failed", wardenlog.Error(err))
				}
				continue
			}
			logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
			cancel()
			return <-errCh
		case err := <-errCh:
			return err
		}
	}
}
