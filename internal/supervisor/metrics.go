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

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects supervisor counters and gauges. All update paths run
// on the loop goroutine; prometheus types are safe either way.
type Metrics struct {
	instances     *prometheus.GaugeVec
	restarts      *prometheus.CounterVec
	spawnFailures *prometheus.CounterVec
	reloads       prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "warden_instances",
			Help: "Number of program instances by state.",
		}, []string{"program", "state"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_restarts_total",
			Help: "Policy-driven restarts per program.",
		}, []string{"program"}),
		spawnFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_spawn_failures_total",
			Help: "Failed launch attempts per program.",
		}, []string{"program"}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_config_reloads_total",
			Help: "Successful configuration reloads.",
		}),
	}
}

// NewMetrics builds the metric set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.instances, m.restarts, m.spawnFailures, m.reloads)
	return m
}

// instanceCreated seeds the state gauges for a new replica so every
// state series exists from the start.
func (m *Metrics) instanceCreated(program string) {
	for _, st := range allStates {
		m.instances.WithLabelValues(program, string(st)).Add(0)
	}
	m.instances.WithLabelValues(program, string(StateStopped)).Inc()
}

// instanceDiscarded removes a reaped replica from its final state gauge.
func (m *Metrics) instanceDiscarded(program string, st State) {
	m.instances.WithLabelValues(program, string(st)).Dec()
}

// stateChanged moves a replica between state gauges.
func (m *Metrics) stateChanged(program string, from, to State) {
	m.instances.WithLabelValues(program, string(from)).Dec()
	m.instances.WithLabelValues(program, string(to)).Inc()
}
