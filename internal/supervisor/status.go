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

// InstanceStatus is the externally visible snapshot of one replica.
type InstanceStatus struct {
	Replica       int     `json:"replica"`
	State         State   `json:"state"`
	PID           int     `json:"pid,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
	Failures      int     `json:"failures,omitempty"`
	Restarts      int     `json:"restarts,omitempty"`
	LastExit      string  `json:"last_exit,omitempty"`
}

// ProgramStatus is the externally visible snapshot of one program.
type ProgramStatus struct {
	Name      string           `json:"name"`
	Replicas  int              `json:"replicas"`
	Instances []InstanceStatus `json:"instances"`
}
