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

// Package commands implements the warden CLI command tree:
//
//	warden
//	├── status        Show program status
//	├── start         Start a program
//	├── stop          Stop a program
//	├── restart       Restart a program
//	├── reload        Reload the daemon configuration
//	└── version       Show CLI and daemon version
package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/client"
)

// commandTimeout bounds each CLI call to the daemon.
const commandTimeout = 30 * time.Second

// BuildInfo carries version metadata injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// options holds the global flags shared by every subcommand.
type options struct {
	socket string
	tcp    string
	json   bool
}

// client builds an API client from the global connection flags, falling
// back to the WARDEN_SOCKET environment variable.
func (o *options) client() (*client.Client, error) {
	socket := o.socket
	if socket == "" {
		socket = os.Getenv("WARDEN_SOCKET")
	}
	switch {
	case o.tcp != "":
		return client.New(client.WithTransport(client.NewTCPTransport(o.tcp)))
	case socket != "":
		return client.New(client.WithTransport(client.NewUnixTransport(socket)))
	default:
		return client.New()
	}
}

// timeoutContext returns the context used for one daemon call.
func timeoutContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// NewRootCommand creates the warden root command.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "warden",
		Short:         "Control the warden process supervisor",
		Long:          "warden talks to a running wardend daemon over its control socket.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.socket, "socket", "", "Unix socket path of the daemon")
	root.PersistentFlags().StringVar(&opts.tcp, "tcp", "", "TCP address of the daemon")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Output in JSON format")

	root.AddCommand(
		newStatusCommand(opts),
		newStartCommand(opts),
		newStopCommand(opts),
		newRestartCommand(opts),
		newReloadCommand(opts),
		newVersionCommand(opts, info),
	)

	return root
}
