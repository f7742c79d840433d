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
	"encoding/json"

	"github.com/spf13/cobra"
)

// versionInfo is the combined CLI and daemon version report.
type versionInfo struct {
	Client BuildInfo `json:"client"`
	Daemon string    `json:"daemon,omitempty"`
}

// newVersionCommand creates the version command.
func newVersionCommand(opts *options, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI and daemon version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := versionInfo{Client: info}

			// The daemon may not be running; report its version best
			// effort.
			if c, err := opts.client(); err == nil {
				ctx, cancel := timeoutContext()
				defer cancel()
				if v, err := c.Version(ctx); err == nil {
					out.Daemon = v.Version
				}
			}

			if opts.json {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			cmd.Printf("warden version %s\n", info.Version)
			cmd.Printf("  commit:     %s\n", info.Commit)
			cmd.Printf("  build date: %s\n", info.BuildDate)
			if out.Daemon != "" {
				cmd.Printf("  daemon:     %s\n", out.Daemon)
			} else {
				cmd.Println("  daemon:     not reachable")
			}
			return nil
		},
	}
}
