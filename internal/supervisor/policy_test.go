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
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warden-sh/warden/internal/config"
)

func intp(v int) *int { return &v }

func TestEvaluate(t *testing.T) {
	prog := func(mode config.RestartMode, retries *int) *config.Program {
		return &config.Program{
			Name:      "web",
			Command:   "/bin/true",
			Replicas:  1,
			Restart:   mode,
			ExitCodes: []int{0, 2},
			Retries:   retries,
		}
	}
	success := ExitResult{Code: 0}
	altSuccess := ExitResult{Code: 2}
	failure := ExitResult{Code: 1}
	signaled := ExitResult{Signaled: true, Signal: syscall.SIGSEGV}

	tests := []struct {
		name       string
		program    *config.Program
		result     ExitResult
		deliberate bool
		failures   int
		want       Decision
	}{
		{"deliberate stop never restarts", prog(config.RestartAlways, nil), failure, true, 5, NoRestart},
		{"never mode ignores failure", prog(config.RestartNever, nil), failure, false, 1, NoRestart},
		{"never mode ignores success", prog(config.RestartNever, nil), success, false, 0, NoRestart},
		{"on_failure skips expected exit", prog(config.RestartOnFailure, nil), success, false, 0, NoRestart},
		{"on_failure skips alternate expected exit", prog(config.RestartOnFailure, nil), altSuccess, false, 0, NoRestart},
		{"on_failure restarts unexpected exit", prog(config.RestartOnFailure, nil), failure, false, 1, Restart},
		{"on_failure restarts signaled death", prog(config.RestartOnFailure, nil), signaled, false, 1, Restart},
		{"always restarts after success", prog(config.RestartAlways, nil), success, false, 0, Restart},
		{"always restarts after failure", prog(config.RestartAlways, nil), failure, false, 1, Restart},
		{"retries within budget", prog(config.RestartOnFailure, intp(3)), failure, false, 3, Restart},
		{"retries exhausted", prog(config.RestartOnFailure, intp(3)), failure, false, 4, GiveUp},
		{"zero retries gives up immediately", prog(config.RestartOnFailure, intp(0)), failure, false, 1, GiveUp},
		{"nil retries never gives up", prog(config.RestartOnFailure, nil), failure, false, 1000, Restart},
		{"always mode honors budget", prog(config.RestartAlways, intp(1)), failure, false, 2, GiveUp},
		{"signaled death is not success for always", prog(config.RestartAlways, intp(0)), signaled, false, 1, GiveUp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.program, tt.result, tt.deliberate, tt.failures)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "no-restart", NoRestart.String())
	assert.Equal(t, "restart", Restart.String())
	assert.Equal(t, "give-up", GiveUp.String())
}

func TestExitResultDescribe(t *testing.T) {
	assert.Equal(t, "exited with code 0", ExitResult{Code: 0}.Describe())
	assert.Equal(t, "exited with code 42", ExitResult{Code: 42}.Describe())
	assert.Equal(t, "killed by SIGKILL", ExitResult{Signaled: true, Signal: syscall.SIGKILL}.Describe())
}

func TestStatePredicates(t *testing.T) {
	assert.True(t, StateStarting.Live())
	assert.True(t, StateRunning.Live())
	assert.True(t, StateStopping.Live())
	assert.False(t, StateStopped.Live())
	assert.False(t, StateBackoff.Live())
	assert.False(t, StateFatal.Live())

	assert.True(t, StateStopped.Terminal())
	assert.True(t, StateFatal.Terminal())
	assert.False(t, StateBackoff.Terminal())
}
