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

package supervisor

import (
	"log/slog"
	"time"

	"github.com/warden-sh/warden/internal/config"
)

// instance is one replica slot of a program. All fields are owned by the
// supervisor loop goroutine and never touched from outside it.
type instance struct {
	program string
	replica int

	// spec is the program specification the current or most recent child
	// was spawned with. A reloaded spec only takes effect at the next
	// spawn, so a stopping child keeps its original signal and timeout.
	spec *config.Program

	state State
	child *child

	// gen identifies one spawn. Timer and exit events carry the gen they
	// were armed under, so events left over from an earlier process are
	// dropped. State guards handle staleness within a single spawn; the
	// gen must only change when a new process is launched.
	gen uint64

	// failures counts consecutive failed runs. Reset when a run reaches
	// its healthy uptime and on an operator start.
	failures int

	// restarts counts how many times this slot spawned a process after a
	// previous run ended.
	restarts int

	// deliberate marks the current stop as operator- or reload-driven,
	// which suppresses the restart policy for the coming exit.
	deliberate bool

	// relaunch respawns the instance once after a deliberate stop
	// completes. Set by restart commands.
	relaunch bool

	// discard drops the instance entirely once it is no longer live.
	// Set when a reload removes the program or scales it down.
	discard bool

	startedAt time.Time
	lastExit  *ExitResult

	log *slog.Logger
}

// status snapshots the instance for control-interface consumers.
func (in *instance) status(now time.Time) InstanceStatus {
	st := InstanceStatus{
		Replica:  in.replica,
		State:    in.state,
		Failures: in.failures,
		Restarts: in.restarts,
	}
	if in.state.Live() {
		st.PID = in.child.pid()
		st.UptimeSeconds = now.Sub(in.startedAt).Seconds()
	}
	if in.lastExit != nil {
		st.LastExit = in.lastExit.Describe()
	}
	return st
}

// programState groups the desired specification of one program with its
// replica slots.
type programState struct {
	spec      *config.Program
	instances []*instance

	// removed means a reload dropped the program; it is deleted from the
	// table as soon as no instance remains live.
	removed bool
}

func (ps *programState) liveCount() int {
	n := 0
	for _, in := range ps.instances {
		if in.state.Live() {
			n++
		}
	}
	return n
}
