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
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/warden-sh/warden/internal/config"
	wardenerrors "github.com/warden-sh/warden/pkg/errors"
)

// ExitResult records how a child process ended.
type ExitResult struct {
	// Code is the exit status. Only meaningful when Signaled is false.
	Code int
	// Signaled is true when the process was killed by a signal.
	Signaled bool
	// Signal is the terminating signal when Signaled is true.
	Signal syscall.Signal
}

// Describe renders the result for logs and status output.
func (r ExitResult) Describe() string {
	if r.Signaled {
		return fmt.Sprintf("killed by %s", unix.SignalName(r.Signal))
	}
	return fmt.Sprintf("exited with code %d", r.Code)
}

// child owns one running OS process and the file handles opened for it.
type child struct {
	cmd   *exec.Cmd
	files []*os.File
}

// pid returns the process ID, or 0 when the process never started.
func (c *child) pid() int {
	if c == nil || c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// signal delivers sig to the process.
func (c *child) signal(program string, sig syscall.Signal) error {
	if c == nil || c.cmd == nil || c.cmd.Process == nil {
		return &wardenerrors.SignalError{Program: program, Cause: fmt.Errorf("no process")}
	}
	if err := c.cmd.Process.Signal(sig); err != nil {
		return &wardenerrors.SignalError{Program: program, PID: c.pid(), Cause: err}
	}
	return nil
}

// kill sends SIGKILL, which cannot be trapped or ignored.
func (c *child) kill(program string) error {
	return c.signal(program, syscall.SIGKILL)
}

// release closes the redirect handles after the process has been reaped.
func (c *child) release() {
	for _, f := range c.files {
		f.Close()
	}
	c.files = nil
}

// spawn launches one replica of the program. The umask, when configured,
// is swapped in around the fork and restored immediately after; callers
// must serialize spawns so the process-wide mask never leaks between
// concurrent launches.
func spawn(p *config.Program) (*child, error) {
	c := &child{}

	stdin, err := openStdin(c, p.Stdin)
	if err != nil {
		c.release()
		return nil, &wardenerrors.SpawnError{Program: p.Name, Cause: err}
	}
	stdout, err := openRedirect(c, p.Stdout)
	if err != nil {
		c.release()
		return nil, &wardenerrors.SpawnError{Program: p.Name, Cause: err}
	}
	stderr, err := openRedirect(c, p.Stderr)
	if err != nil {
		c.release()
		return nil, &wardenerrors.SpawnError{Program: p.Name, Cause: err}
	}

	cmd := exec.Command(p.Command, p.Args...)
	cmd.Dir = p.Workdir
	cmd.Env = overlayEnv(os.Environ(), p.Environment)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if p.Umask != nil {
		old := unix.Umask(int(*p.Umask))
		defer unix.Umask(old)
	}
	if err := cmd.Start(); err != nil {
		c.release()
		return nil, &wardenerrors.SpawnError{Program: p.Name, Cause: err}
	}
	c.cmd = cmd
	return c, nil
}

// wait blocks until the process exits and decodes its wait status.
// It must be called exactly once per spawned child.
func (c *child) wait() ExitResult {
	err := c.cmd.Wait()
	if err == nil {
		return ExitResult{Code: 0}
	}
	var exit *exec.ExitError
	if wardenerrors.As(err, &exit) {
		if ws, ok := exit.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return ExitResult{Signaled: true, Signal: ws.Signal()}
			}
			return ExitResult{Code: ws.ExitStatus()}
		}
		return ExitResult{Code: exit.ExitCode()}
	}
	// Wait itself failed; treat as an abnormal ending.
	return ExitResult{Code: -1}
}

// overlayEnv merges overlay entries over the inherited environment,
// replacing variables that already exist.
func overlayEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := overlay[name]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overlay[k])
	}
	return out
}

// openRedirect opens the target for appending, creating it if needed.
// An empty path routes the stream to /dev/null.
func openRedirect(c *child, path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	c.files = append(c.files, f)
	return f, nil
}

// openStdin opens the input file read-only. An empty path leaves the
// child's stdin connected to /dev/null.
func openStdin(c *child, path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c.files = append(c.files, f)
	return f, nil
}
