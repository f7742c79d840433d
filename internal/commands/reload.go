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
	"strings"

	"github.com/spf13/cobra"
)

// newReloadCommand creates the reload command.
func newReloadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := timeoutContext()
			defer cancel()

			diff, err := c.Reload(ctx)
			if err != nil {
				return err
			}

			if opts.json {
				data, err := json.MarshalIndent(diff, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			if len(diff.Added)+len(diff.Removed)+len(diff.Changed) == 0 {
				cmd.Println("configuration reloaded, no program changes")
				return nil
			}
			if len(diff.Added) > 0 {
				cmd.Printf("added:   %s\n", strings.Join(diff.Added, ", "))
			}
			if len(diff.Removed) > 0 {
				cmd.Printf("removed: %s\n", strings.Join(diff.Removed, ", "))
			}
			if len(diff.Changed) > 0 {
				cmd.Printf("changed: %s\n", strings.Join(diff.Changed, ", "))
			}
			return nil
		},
	}
}
