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
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/warden-sh/warden/internal/supervisor"
)

// newStatusCommand creates the status command.
func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status [program]",
		Short: "Show the status of supervised programs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := timeoutContext()
			defer cancel()

			var programs []supervisor.ProgramStatus
			if len(args) == 1 {
				st, err := c.ProgramStatus(ctx, args[0])
				if err != nil {
					return err
				}
				programs = []supervisor.ProgramStatus{*st}
			} else {
				programs, err = c.Status(ctx)
				if err != nil {
					return err
				}
			}

			if opts.json {
				data, err := json.MarshalIndent(programs, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			printStatusTable(cmd, programs)
			return nil
		},
	}
}

// printStatusTable renders the status as an aligned text table.
func printStatusTable(cmd *cobra.Command, programs []supervisor.ProgramStatus) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRAM\tREPLICA\tSTATE\tPID\tUPTIME\tRESTARTS\tLAST EXIT")
	for _, p := range programs {
		for _, in := range p.Instances {
			pid := "-"
			if in.PID != 0 {
				pid = fmt.Sprintf("%d", in.PID)
			}
			uptime := "-"
			if in.UptimeSeconds > 0 {
				uptime = (time.Duration(in.UptimeSeconds * float64(time.Second))).Round(time.Second).String()
			}
			lastExit := in.LastExit
			if lastExit == "" {
				lastExit = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
				p.Name, in.Replica, in.State, pid, uptime, in.Restarts, lastExit)
		}
	}
	w.Flush()
}
