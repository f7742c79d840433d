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

// Package daemon assembles the warden daemon: the supervisor, the
// control API server, the PID file, the optional config watcher and the
// metrics registry.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/warden-sh/warden/internal/config"
	"github.com/warden-sh/warden/internal/daemon/api"
	"github.com/warden-sh/warden/internal/daemon/listener"
	wardenlog "github.com/warden-sh/warden/internal/log"
	"github.com/warden-sh/warden/internal/supervisor"
)

// shutdownTimeout bounds the control API drain on shutdown. The
// supervisor has its own per-program exit timeouts.
const shutdownTimeout = 5 * time.Second

// Options carries build information into the daemon.
type Options struct {
	Version   string
	Commit    string
	BuildDate string
}

// Daemon owns the pieces of a running warden instance.
type Daemon struct {
	cfg     *config.Config
	cfgPath string
	opts    Options
	logger  *slog.Logger

	// bootID uniquely identifies this daemon run.
	bootID string

	sup      *supervisor.Supervisor
	registry *prometheus.Registry
	pidFile  *PIDFile
}

// New builds a daemon from a loaded configuration. cfgPath is kept for
// reloads; the daemon section itself is fixed for the process lifetime.
func New(cfgPath string, cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := &Daemon{
		cfg:      cfg,
		cfgPath:  cfgPath,
		opts:     opts,
		logger:   wardenlog.WithComponent(logger, "daemon"),
		bootID:   uuid.NewString(),
		registry: registry,
	}
	d.sup = supervisor.New(cfg,
		supervisor.WithLogger(logger),
		supervisor.WithMetrics(supervisor.NewMetrics(registry)),
	)
	return d, nil
}

// BootID returns the unique identifier of this daemon run.
func (d *Daemon) BootID() string {
	return d.bootID
}

// Reload re-reads the configuration file and applies the program
// changes. A broken file is rejected without touching running programs.
func (d *Daemon) Reload(ctx context.Context) (config.Diff, error) {
	cfg, err := config.Load(d.cfgPath)
	if err != nil {
		d.logger.Error("reload rejected", wardenlog.Error(err))
		return config.Diff{}, err
	}
	return d.sup.Reload(ctx, cfg)
}

// Run starts the daemon and blocks until ctx is cancelled and every
// supervised process has stopped.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Daemon.PIDFile != "" {
		d.pidFile = NewPIDFile(d.cfg.Daemon.PIDFile)
		if err := d.pidFile.Acquire(); err != nil {
			return err
		}
		defer d.pidFile.Release()
	}

	ln, err := listener.New(d.cfg.Daemon)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Version:   d.opts.Version,
		Commit:    d.opts.Commit,
		BuildDate: d.opts.BuildDate,
		BootID:    d.bootID,
	}, d.sup, d, d.logger)
	if d.cfg.Daemon.Metrics {
		router.SetMetricsHandler(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var watcher *ConfigWatcher
	if d.cfg.Daemon.WatchConfig {
		watcher, err = NewConfigWatcher(d.cfgPath, d.logger, func(ctx context.Context) {
			if _, err := d.Reload(ctx); err != nil {
				d.logger.Error("automatic reload failed", wardenlog.Error(err))
			}
		})
		if err != nil {
			ln.Close()
			return err
		}
	}

	d.logger.Info("daemon started",
		slog.String("boot_id", d.bootID),
		slog.String("version", d.opts.Version),
		slog.String("listen", ln.Addr().String()),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.sup.Run(gctx)
	})

	g.Go(func() error {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}
