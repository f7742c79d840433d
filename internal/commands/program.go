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

package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/client"
)

// newProgramActionCommand builds one of the start/stop/restart commands,
// which differ only in the API call and wording.
func newProgramActionCommand(opts *options, use, short, past string,
	action func(*client.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <program>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := timeoutContext()
			defer cancel()

			if err := action(c, ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("%s %s\n", args[0], past)
			return nil
		},
	}
}

func newStartCommand(opts *options) *cobra.Command {
	return newProgramActionCommand(opts, "start", "Start a program", "started",
		func(c *client.Client, ctx context.Context, name string) error {
			return c.Start(ctx, name)
		})
}

func newStopCommand(opts *options) *cobra.Command {
	return newProgramActionCommand(opts, "stop", "Stop a program gracefully", "stopped",
		func(c *client.Client, ctx context.Context, name string) error {
			return c.Stop(ctx, name)
		})
}

func newRestartCommand(opts *options) *cobra.Command {
	return newProgramActionCommand(opts, "restart", "Restart a program", "restarted",
		func(c *client.Client, ctx context.Context, name string) error {
			return c.Restart(ctx, name)
		})
}
