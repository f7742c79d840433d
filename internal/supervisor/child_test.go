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
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-sh/warden/internal/config"
	wardenerrors "github.com/warden-sh/warden/pkg/errors"
)

// shell builds a minimal program that runs script through /bin/sh.
func shell(name, script string) *config.Program {
	return &config.Program{
		Name:        name,
		Command:     "/bin/sh",
		Args:        []string{"-c", script},
		Replicas:    1,
		Restart:     config.RestartNever,
		ExitCodes:   []int{0},
		Signal:      "SIGTERM",
		ExitTimeout: 5,
	}
}

func TestSpawnExitCode(t *testing.T) {
	p := shell("exit3", "exit 3")
	c, err := spawn(p)
	require.NoError(t, err)

	result := c.wait()
	c.release()
	assert.False(t, result.Signaled)
	assert.Equal(t, 3, result.Code)
}

func TestSpawnSignaled(t *testing.T) {
	p := shell("sleeper", "sleep 30")
	c, err := spawn(p)
	require.NoError(t, err)
	require.NotZero(t, c.pid())

	require.NoError(t, c.signal(p.Name, syscall.SIGKILL))
	result := c.wait()
	c.release()
	assert.True(t, result.Signaled)
	assert.Equal(t, syscall.SIGKILL, result.Signal)
}

func TestSpawnFailure(t *testing.T) {
	p := shell("missing", "true")
	p.Command = "/nonexistent/warden-test-binary"
	_, err := spawn(p)
	require.Error(t, err)

	var spawnErr *wardenerrors.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "missing", spawnErr.Program)
}

func TestSpawnRedirectsStdout(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.log")

	p := shell("echoer", "echo hello")
	p.Stdout = out
	c, err := spawn(p)
	require.NoError(t, err)
	require.Equal(t, 0, c.wait().Code)
	c.release()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestSpawnStdoutAppends(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(out, []byte("first\n"), 0o644))

	p := shell("appender", "echo second")
	p.Stdout = out
	c, err := spawn(p)
	require.NoError(t, err)
	c.wait()
	c.release()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestSpawnRedirectsStdin(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("from stdin\n"), 0o644))

	p := shell("catter", "cat")
	p.Stdin = in
	p.Stdout = out
	c, err := spawn(p)
	require.NoError(t, err)
	require.Equal(t, 0, c.wait().Code)
	c.release()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", string(data))
}

func TestSpawnEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	t.Setenv("WARDEN_TEST_KEEP", "inherited")
	t.Setenv("WARDEN_TEST_OVERRIDE", "old")

	p := shell("env", `echo "$WARDEN_TEST_KEEP $WARDEN_TEST_OVERRIDE $WARDEN_TEST_NEW"`)
	p.Stdout = out
	p.Environment = map[string]string{
		"WARDEN_TEST_OVERRIDE": "new",
		"WARDEN_TEST_NEW":      "added",
	}
	c, err := spawn(p)
	require.NoError(t, err)
	require.Equal(t, 0, c.wait().Code)
	c.release()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "inherited new added\n", string(data))
}

func TestSpawnWorkdir(t *testing.T) {
	dir := t.TempDir()

	p := shell("marker", "touch marker")
	p.Workdir = dir
	c, err := spawn(p)
	require.NoError(t, err)
	require.Equal(t, 0, c.wait().Code)
	c.release()

	_, err = os.Stat(filepath.Join(dir, "marker"))
	assert.NoError(t, err)
}

func TestSpawnUmask(t *testing.T) {
	dir := t.TempDir()
	mask := config.Umask(0o077)

	p := shell("masked", "touch masked-file")
	p.Workdir = dir
	p.Umask = &mask
	c, err := spawn(p)
	require.NoError(t, err)
	require.Equal(t, 0, c.wait().Code)
	c.release()

	info, err := os.Stat(filepath.Join(dir, "masked-file"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestOverlayEnv(t *testing.T) {
	base := []string{"A=1", "B=2", "C=3"}

	t.Run("empty overlay returns base", func(t *testing.T) {
		assert.Equal(t, base, overlayEnv(base, nil))
	})

	t.Run("overlay replaces and adds", func(t *testing.T) {
		got := overlayEnv(base, map[string]string{"B": "two", "D": "4"})
		assert.Equal(t, []string{"A=1", "C=3", "B=two", "D=4"}, got)
	})
}
