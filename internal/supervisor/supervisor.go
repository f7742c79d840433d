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

// Package supervisor keeps configured programs running. Each program
// expands into replica instances, each instance walks a small state
// machine, and a single loop goroutine owns every mutation: child exits,
// timers and control commands all arrive as events on channels and are
// applied one at a time.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/warden-sh/warden/internal/config"
	wardenlog "github.com/warden-sh/warden/internal/log"
	wardenerrors "github.com/warden-sh/warden/pkg/errors"
)

// ErrShuttingDown is returned for commands issued after shutdown began.
var ErrShuttingDown = wardenerrors.New("supervisor is shutting down")

// defaultBackoff is the delay between a failed run and its relaunch.
const defaultBackoff = time.Second

type eventKind int

const (
	evExit eventKind = iota
	evHealthy
	evExitTimeout
	evBackoffDone
)

// event is delivered to the loop by waiter goroutines and timers. The
// gen field pins the event to one spawn; stale events are dropped.
type event struct {
	program string
	replica int
	gen     uint64
	kind    eventKind
	result  ExitResult
}

// Supervisor runs the instance table. Construct with New, drive with Run.
type Supervisor struct {
	logger  *slog.Logger
	metrics *Metrics
	backoff time.Duration

	cmds   chan func()
	events chan event
	done   chan struct{}

	// Owned by the Run goroutine.
	programs map[string]*programState
	draining bool
}

// Option tweaks supervisor construction.
type Option func(*Supervisor)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithBackoff overrides the restart backoff delay.
func WithBackoff(d time.Duration) Option {
	return func(s *Supervisor) { s.backoff = d }
}

// WithMetrics registers the supervisor gauges and counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// New builds a supervisor for the given configuration. Nothing is
// spawned until Run is called.
func New(cfg *config.Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger:   slog.Default(),
		backoff:  defaultBackoff,
		cmds:     make(chan func()),
		events:   make(chan event, 128),
		done:     make(chan struct{}),
		programs: make(map[string]*programState),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = wardenlog.WithComponent(s.logger, "supervisor")
	if s.metrics == nil {
		s.metrics = newMetrics()
	}
	for _, name := range cfg.ProgramNames() {
		s.addProgram(cfg.Programs[name])
	}
	return s
}

// addProgram creates the replica slots for a program, all Stopped.
func (s *Supervisor) addProgram(spec *config.Program) *programState {
	ps := &programState{spec: spec}
	for i := 0; i < spec.Replicas; i++ {
		ps.instances = append(ps.instances, s.newInstance(spec, i))
	}
	s.programs[spec.Name] = ps
	return ps
}

func (s *Supervisor) newInstance(spec *config.Program, replica int) *instance {
	s.metrics.instanceCreated(spec.Name)
	return &instance{
		program: spec.Name,
		replica: replica,
		spec:    spec,
		state:   StateStopped,
		log:     wardenlog.WithInstance(s.logger, spec.Name, replica),
	}
}

// Run launches at-launch programs and processes events until ctx is
// cancelled, then stops every live instance and waits for the exits,
// honoring each instance's exit timeout. It must be called exactly once.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.done)

	for _, name := range s.programNames() {
		ps := s.programs[name]
		if !ps.spec.AtLaunch {
			continue
		}
		for _, in := range ps.instances {
			s.spawnInstance(ps, in)
		}
	}

	stop := ctx.Done()
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case ev := <-s.events:
			s.handleEvent(ev)
		case <-stop:
			s.logger.Info("shutting down, stopping all programs")
			s.draining = true
			stop = nil
			s.drainAll()
		}
		if s.draining && s.idle() {
			s.logger.Info("all programs stopped")
			return nil
		}
	}
}

// idle reports whether no instance holds a live process or pending timer.
func (s *Supervisor) idle() bool {
	for _, ps := range s.programs {
		for _, in := range ps.instances {
			if in.state.Live() {
				return false
			}
		}
	}
	return true
}

// drainAll begins a deliberate stop of every instance for shutdown.
// Instances already stopping keep their in-flight stop; re-signaling
// them would also re-arm the kill timer.
func (s *Supervisor) drainAll() {
	for _, ps := range s.programs {
		for _, in := range ps.instances {
			switch {
			case in.state == StateStopping:
				in.relaunch = false
			case in.state.Live():
				in.relaunch = false
				s.beginStop(in)
			case in.state == StateBackoff:
				in.gen++
				s.setState(in, StateStopped)
			}
		}
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (s *Supervisor) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.cmds <- func() { errc <- fn() }:
	case <-s.done:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches every inactive replica of the program. Replicas waiting
// in backoff are launched immediately and fatal replicas get a fresh
// failure budget. Starting a fully running program is a conflict.
func (s *Supervisor) Start(ctx context.Context, name string) error {
	return s.do(ctx, func() error {
		if s.draining {
			return ErrShuttingDown
		}
		ps, ok := s.programs[name]
		if !ok || ps.removed {
			return &wardenerrors.NotFoundError{Resource: "program", ID: name}
		}
		started := 0
		for _, in := range ps.instances {
			// Backoff instances are already auto-managed; only inactive
			// ones are started.
			switch in.state {
			case StateStopped, StateFatal:
				in.failures = 0
				s.spawnInstance(ps, in)
				started++
			}
		}
		if started == 0 {
			return &wardenerrors.ConflictError{Resource: "program", ID: name, Reason: "already running"}
		}
		return nil
	})
}

// Stop gracefully stops every active replica of the program. Stopping an
// already stopped program is a conflict.
func (s *Supervisor) Stop(ctx context.Context, name string) error {
	return s.do(ctx, func() error {
		ps, ok := s.programs[name]
		if !ok || ps.removed {
			return &wardenerrors.NotFoundError{Resource: "program", ID: name}
		}
		stopped := 0
		for _, in := range ps.instances {
			switch {
			case in.state == StateStopping:
				// Already stopping; do not re-send the signal or re-arm
				// the kill timer.
				in.relaunch = false
				stopped++
			case in.state.Live():
				in.relaunch = false
				s.beginStop(in)
				stopped++
			case in.state == StateBackoff:
				in.gen++
				s.setState(in, StateStopped)
				stopped++
			case in.state == StateFatal:
				s.setState(in, StateStopped)
				stopped++
			}
		}
		if stopped == 0 {
			return &wardenerrors.ConflictError{Resource: "program", ID: name, Reason: "not running"}
		}
		return nil
	})
}

// Restart stops every replica and launches it again once the old process
// has fully exited. Inactive replicas are simply launched.
func (s *Supervisor) Restart(ctx context.Context, name string) error {
	return s.do(ctx, func() error {
		if s.draining {
			return ErrShuttingDown
		}
		ps, ok := s.programs[name]
		if !ok || ps.removed {
			return &wardenerrors.NotFoundError{Resource: "program", ID: name}
		}
		for _, in := range ps.instances {
			switch {
			case in.state == StateStopping:
				in.relaunch = true
			case in.state.Live():
				in.relaunch = true
				s.beginStop(in)
			case in.state == StateBackoff:
				in.gen++
				in.failures = 0
				s.spawnInstance(ps, in)
			default: // Stopped, Fatal
				in.failures = 0
				s.spawnInstance(ps, in)
			}
		}
		return nil
	})
}

// Status reports a snapshot of every program, sorted by name.
func (s *Supervisor) Status(ctx context.Context) ([]ProgramStatus, error) {
	var out []ProgramStatus
	err := s.do(ctx, func() error {
		now := time.Now()
		for _, name := range s.programNames() {
			ps := s.programs[name]
			if ps.removed {
				continue
			}
			out = append(out, s.programStatus(ps, now))
		}
		return nil
	})
	return out, err
}

// ProgramStatus reports a snapshot of one program.
func (s *Supervisor) ProgramStatus(ctx context.Context, name string) (ProgramStatus, error) {
	var out ProgramStatus
	err := s.do(ctx, func() error {
		ps, ok := s.programs[name]
		if !ok || ps.removed {
			return &wardenerrors.NotFoundError{Resource: "program", ID: name}
		}
		out = s.programStatus(ps, time.Now())
		return nil
	})
	return out, err
}

func (s *Supervisor) programStatus(ps *programState, now time.Time) ProgramStatus {
	st := ProgramStatus{Name: ps.spec.Name, Replicas: ps.spec.Replicas}
	for _, in := range ps.instances {
		if in.discard {
			continue
		}
		st.Instances = append(st.Instances, in.status(now))
	}
	return st
}

// Reload applies a new configuration. Removed programs are stopped and
// discarded, added programs are created and launched when marked
// at_launch, and changed programs keep their running processes on the
// old specification until the next spawn. A replica count change takes
// effect immediately.
func (s *Supervisor) Reload(ctx context.Context, cfg *config.Config) (config.Diff, error) {
	var diff config.Diff
	err := s.do(ctx, func() error {
		if s.draining {
			return ErrShuttingDown
		}
		old := make(map[string]*config.Program, len(s.programs))
		for name, ps := range s.programs {
			if !ps.removed {
				old[name] = ps.spec
			}
		}
		diff = config.DiffPrograms(old, cfg.Programs)

		for _, name := range diff.Removed {
			s.removeProgram(s.programs[name])
		}
		for _, name := range diff.Added {
			ps := s.addProgram(cfg.Programs[name])
			if ps.spec.AtLaunch {
				for _, in := range ps.instances {
					s.spawnInstance(ps, in)
				}
			}
		}
		for _, name := range diff.Changed {
			s.changeProgram(s.programs[name], cfg.Programs[name])
		}
		s.metrics.reloads.Inc()
		s.logger.Info("configuration reloaded",
			wardenlog.Int("added", len(diff.Added)),
			wardenlog.Int("removed", len(diff.Removed)),
			wardenlog.Int("changed", len(diff.Changed)))
		return nil
	})
	return diff, err
}

// removeProgram stops the program's live instances and marks it for
// deletion once the last one exits.
func (s *Supervisor) removeProgram(ps *programState) {
	ps.removed = true
	for _, in := range ps.instances {
		in.discard = true
		in.relaunch = false
		switch {
		case in.state.Live():
			if in.state != StateStopping {
				s.beginStop(in)
			}
		case in.state == StateBackoff:
			in.gen++
			s.setState(in, StateStopped)
		}
	}
	s.reap(ps)
}

// changeProgram installs a new specification. Live instances keep the
// spec they were spawned with; only the replica count applies now.
func (s *Supervisor) changeProgram(ps *programState, spec *config.Program) {
	wasActive := ps.liveCount() > 0
	ps.spec = spec

	// Reclaim slots doomed by an earlier scale-down that the new count
	// wants again. A doomed replica still waiting out its stop keeps its
	// slot and relaunches under the new spec once the old process exits,
	// so the program converges back to the full replica count.
	for _, in := range ps.instances {
		if in.discard && in.replica < spec.Replicas {
			in.discard = false
			if in.state.Live() {
				in.relaunch = true
			}
		}
	}

	// Scale down: stop and discard the highest replicas first.
	for i := len(ps.instances) - 1; i >= spec.Replicas; i-- {
		in := ps.instances[i]
		in.discard = true
		in.relaunch = false
		switch {
		case in.state.Live():
			if in.state != StateStopping {
				s.beginStop(in)
			}
		case in.state == StateBackoff:
			in.gen++
			s.setState(in, StateStopped)
		}
	}

	// Scale up: new replicas join running programs immediately.
	for i := len(ps.instances); i < spec.Replicas; i++ {
		in := s.newInstance(spec, i)
		ps.instances = append(ps.instances, in)
		if wasActive || spec.AtLaunch {
			s.spawnInstance(ps, in)
		}
	}
	s.reap(ps)
}

// reap deletes discarded instances that are no longer live, and the
// whole program once removal left it empty.
func (s *Supervisor) reap(ps *programState) {
	kept := ps.instances[:0]
	for _, in := range ps.instances {
		if in.discard && !in.state.Live() {
			s.metrics.instanceDiscarded(in.program, in.state)
			continue
		}
		kept = append(kept, in)
	}
	ps.instances = kept
	if ps.removed && len(ps.instances) == 0 {
		delete(s.programs, ps.spec.Name)
	}
}

func (s *Supervisor) programNames() []string {
	names := make([]string, 0, len(s.programs))
	for name := range s.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// spawnInstance launches a fresh child for the instance using the
// program's current specification. Spawn failures are charged against
// the failure budget and fed through the restart policy.
func (s *Supervisor) spawnInstance(ps *programState, in *instance) {
	if s.draining {
		return
	}
	in.spec = ps.spec
	in.deliberate = false
	in.relaunch = false
	in.gen++
	gen := in.gen

	c, err := spawn(in.spec)
	if err != nil {
		in.failures++
		s.metrics.spawnFailures.WithLabelValues(in.program).Inc()
		in.log.Error("spawn failed", wardenlog.Error(err))
		s.afterFailure(in, Evaluate(in.spec, ExitResult{Code: -1}, false, in.failures))
		return
	}

	if in.lastExit != nil {
		in.restarts++
	}
	in.child = c
	in.startedAt = time.Now()
	in.lastExit = nil
	s.setState(in, StateStarting)
	in.log.Info("started", wardenlog.Int(wardenlog.PIDKey, c.pid()))

	go func() {
		result := c.wait()
		s.sendEvent(event{program: in.program, replica: in.replica, gen: gen, kind: evExit, result: result})
	}()

	// Without a healthy-uptime threshold the instance counts as running
	// right away, but the failure budget only resets at the milestone.
	if d := in.spec.HealthyUptimeDuration(); d > 0 {
		s.armTimer(in, evHealthy, d)
	} else {
		s.setState(in, StateRunning)
	}
}

// beginStop sends the configured stop signal and arms the kill timer.
func (s *Supervisor) beginStop(in *instance) {
	in.deliberate = true
	sig := in.spec.StopSignal()
	if err := in.child.signal(in.program, sig); err != nil {
		// The process may already be a zombie awaiting reap; the exit
		// event will complete the stop.
		in.log.Warn("stop signal failed", wardenlog.Error(err))
	}
	s.setState(in, StateStopping)
	s.armTimer(in, evExitTimeout, in.spec.ExitTimeoutDuration())
}

// armTimer schedules a loop event pinned to the instance's current gen.
func (s *Supervisor) armTimer(in *instance, kind eventKind, d time.Duration) {
	ev := event{program: in.program, replica: in.replica, gen: in.gen, kind: kind}
	time.AfterFunc(d, func() { s.sendEvent(ev) })
}

// sendEvent queues an event for the loop, giving up once Run returned.
func (s *Supervisor) sendEvent(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// handleEvent applies one timer or exit event, dropping stale ones.
func (s *Supervisor) handleEvent(ev event) {
	ps, ok := s.programs[ev.program]
	if !ok {
		return
	}
	var in *instance
	for _, cand := range ps.instances {
		if cand.replica == ev.replica {
			in = cand
			break
		}
	}
	if in == nil || in.gen != ev.gen {
		return
	}

	switch ev.kind {
	case evExit:
		s.handleExit(ps, in, ev.result)
	case evHealthy:
		if in.state == StateStarting {
			in.failures = 0
			s.setState(in, StateRunning)
			in.log.Info("healthy")
		}
	case evExitTimeout:
		if in.state == StateStopping {
			in.log.Warn("exit timeout elapsed, killing")
			if err := in.child.kill(in.program); err != nil {
				in.log.Warn("kill failed", wardenlog.Error(err))
			}
		}
	case evBackoffDone:
		if in.state == StateBackoff {
			s.spawnInstance(ps, in)
		}
	}
}

// handleExit reaps the child, charges failures and applies the restart
// policy.
func (s *Supervisor) handleExit(ps *programState, in *instance, result ExitResult) {
	in.child.release()
	in.child = nil
	in.lastExit = &result

	deliberate := in.deliberate
	success := !result.Signaled && in.spec.ExpectsExitCode(result.Code)
	if !deliberate && !success {
		in.failures++
	}

	in.log.Info(result.Describe(),
		wardenlog.String("after", time.Since(in.startedAt).Round(time.Millisecond).String()))

	if deliberate {
		s.setState(in, StateStopped)
		in.deliberate = false
		if in.relaunch && !in.discard {
			in.failures = 0
			s.spawnInstance(ps, in)
		}
		s.reap(ps)
		return
	}

	s.afterFailure(in, Evaluate(in.spec, result, false, in.failures))
	s.reap(ps)
}

// afterFailure moves the instance per the policy decision.
func (s *Supervisor) afterFailure(in *instance, d Decision) {
	if in.discard {
		s.setState(in, StateStopped)
		return
	}
	switch d {
	case Restart:
		s.metrics.restarts.WithLabelValues(in.program).Inc()
		s.setState(in, StateBackoff)
		s.armTimer(in, evBackoffDone, s.backoff)
	case GiveUp:
		s.setState(in, StateFatal)
		in.log.Error(fmt.Sprintf("giving up after %d consecutive failures", in.failures))
	default:
		s.setState(in, StateStopped)
	}
}

// setState transitions the instance and keeps the state gauges current.
func (s *Supervisor) setState(in *instance, next State) {
	if in.state == next {
		return
	}
	s.metrics.stateChanged(in.program, in.state, next)
	in.state = next
}
