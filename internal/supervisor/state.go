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

// State represents the lifecycle state of one process instance.
type State string

const (
	// StateStopped means no process exists and none is wanted.
	StateStopped State = "stopped"
	// StateStarting means the process was spawned and the healthy-uptime
	// timer has not yet elapsed.
	StateStarting State = "starting"
	// StateRunning means the process has run past its healthy-uptime.
	StateRunning State = "running"
	// StateStopping means the stop signal was sent and the exit-timeout
	// timer is armed.
	StateStopping State = "stopping"
	// StateBackoff means the instance waits a short delay before a
	// policy-driven restart.
	StateBackoff State = "backoff"
	// StateFatal means retries are exhausted or the policy disallowed a
	// restart after failure; the instance is no longer auto-managed.
	StateFatal State = "fatal"
)

// Live reports whether exactly one OS process must exist in this state.
func (s State) Live() bool {
	switch s {
	case StateStarting, StateRunning, StateStopping:
		return true
	}
	return false
}

// Terminal reports whether the instance has come to rest and needs an
// explicit operator action to run again.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFatal
}

// allStates is used to keep metrics gauges dense.
var allStates = []State{
	StateStopped, StateStarting, StateRunning, StateStopping, StateBackoff, StateFatal,
}
