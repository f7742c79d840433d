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

import "github.com/warden-sh/warden/internal/config"

// Decision is the outcome of evaluating an exit against the restart policy.
type Decision int

const (
	// NoRestart leaves the instance stopped.
	NoRestart Decision = iota
	// Restart schedules another launch after the backoff delay.
	Restart
	// GiveUp marks the instance fatal: the failure budget is exhausted.
	GiveUp
)

// String renders the decision for logs.
func (d Decision) String() string {
	switch d {
	case NoRestart:
		return "no-restart"
	case Restart:
		return "restart"
	case GiveUp:
		return "give-up"
	}
	return "unknown"
}

// Evaluate decides what to do with an instance after its process ended.
// It is a pure function of the program policy, the exit result, whether
// the stop was deliberate, and the count of consecutive failures
// including this one.
//
// A deliberate stop never restarts, regardless of policy. An exit is a
// success only when the process terminated normally with a listed exit
// code; death by signal is always a failure. Once consecutive failures
// exceed the retry budget the instance gives up; an absent budget means
// unlimited retries.
func Evaluate(p *config.Program, result ExitResult, deliberate bool, failures int) Decision {
	if deliberate {
		return NoRestart
	}

	success := !result.Signaled && p.ExpectsExitCode(result.Code)

	switch p.Restart {
	case config.RestartNever:
		return NoRestart
	case config.RestartOnFailure:
		if success {
			return NoRestart
		}
	case config.RestartAlways:
		if success {
			return Restart
		}
	default:
		return NoRestart
	}

	// Failure path, shared by on_failure and always.
	if p.Retries != nil && failures > *p.Retries {
		return GiveUp
	}
	return Restart
}
