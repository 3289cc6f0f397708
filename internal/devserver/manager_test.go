//go:build !windows

package devserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"beeno/internal/types"
)

func newTestManager(t *testing.T) (*Manager, string, string) {
	t.Helper()
	t.Setenv(fakeRuntimeEnv, "1")
	dir := t.TempDir()
	logPath := filepath.Join(dir, "launch.log")
	t.Setenv(fakeRuntimeLogEnv, logPath)

	tmp := filepath.Join(dir, "modules")
	require.NoError(t, os.Mkdir(tmp, 0o755))

	m := NewManager(Config{Binary: os.Args[0], TempDir: tmp, GracePeriod: 2 * time.Second})
	t.Cleanup(func() { _ = m.Stop(context.Background()) })
	return m, tmp, logPath
}

func readLaunchLog(t *testing.T, path string) string {
	t.Helper()
	var content string
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		if err != nil || len(b) == 0 {
			return false
		}
		content = string(b)
		return true
	}, 5*time.Second, 20*time.Millisecond)
	return content
}

func moduleCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestManager_StatusWhenStopped(t *testing.T) {
	m := NewManager(Config{})
	_, ok := m.Status()
	assert.False(t, ok)
	_, ok = m.LastSource()
	assert.False(t, ok)
	assert.Equal(t, DefaultPort, m.LastPort())
	assert.NoError(t, m.Stop(context.Background()))
}

func TestManager_StartAndStop(t *testing.T) {
	m, tmp, logPath := newTestManager(t)
	ctx := context.Background()

	status, err := m.StartWithCode(ctx, "serve()", 9123, "scaffold")
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, uint16(9123), status.Port)
	assert.Equal(t, "http://127.0.0.1:9123", status.URL)
	assert.Equal(t, "scaffold", status.Mode)

	launch := readLaunchLog(t, logPath)
	assert.Contains(t, launch, "port=9123")
	assert.Contains(t, launch, "run --allow-net --allow-read --allow-env --allow-write ")
	assert.Contains(t, launch, "beeno-server-")

	got, ok := m.Status()
	require.True(t, ok)
	assert.Equal(t, status, got)

	src, ok := m.LastSource()
	require.True(t, ok)
	assert.Equal(t, "serve()", src)
	assert.Equal(t, 1, moduleCount(t, tmp))

	require.NoError(t, m.Stop(ctx))
	_, ok = m.Status()
	assert.False(t, ok)
	assert.Equal(t, 0, moduleCount(t, tmp), "temp module should be removed on stop")

	// Stop is idempotent and the last source survives it.
	require.NoError(t, m.Stop(ctx))
	src, ok = m.LastSource()
	assert.True(t, ok)
	assert.Equal(t, "serve()", src)
}

func TestManager_RestartLeavesOneChild(t *testing.T) {
	m, _, logPath := newTestManager(t)
	ctx := context.Background()

	_, err := m.StartWithCode(ctx, "serve(1)", 9300, "file")
	require.NoError(t, err)
	readLaunchLog(t, logPath)
	firstPid := m.current.cmd.Process.Pid

	_, err = m.StartWithCode(ctx, "serve(2)", 9301, "file")
	require.NoError(t, err)
	secondPid := m.current.cmd.Process.Pid

	assert.NotEqual(t, firstPid, secondPid)
	assert.ErrorIs(t, unix.Kill(firstPid, 0), unix.ESRCH, "first child should be gone before the second starts")
	assert.NoError(t, unix.Kill(secondPid, 0))
}

func TestManager_HotfixReusesPort(t *testing.T) {
	m, tmp, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.StartWithCode(ctx, "serve(1)", 9200, "file")
	require.NoError(t, err)

	status, err := m.HotfixWithCode(ctx, "serve(2)", "hotfix-js")
	require.NoError(t, err)
	assert.Equal(t, uint16(9200), status.Port)
	assert.Equal(t, "hotfix-js", status.Mode)

	src, _ := m.LastSource()
	assert.Equal(t, "serve(2)", src)
	assert.Equal(t, 1, moduleCount(t, tmp), "the replaced module should be removed")
}

func TestManager_HotfixDefaultsPort(t *testing.T) {
	m, _, logPath := newTestManager(t)

	status, err := m.HotfixWithCode(context.Background(), "serve()", "hotfix-nl")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, status.Port)
	assert.Contains(t, readLaunchLog(t, logPath), "port=8080")
}

func TestManager_StatusNoticesExit(t *testing.T) {
	m, tmp, _ := newTestManager(t)

	_, err := m.StartWithCode(context.Background(), "Deno.exit(1)", 9300, "file")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := m.Status()
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, moduleCount(t, tmp))

	src, ok := m.LastSource()
	assert.True(t, ok)
	assert.Equal(t, "Deno.exit(1)", src)
}

func TestManager_StopForceKills(t *testing.T) {
	m, _, logPath := newTestManager(t)
	m.config.GracePeriod = 200 * time.Millisecond

	_, err := m.StartWithCode(context.Background(), "// ignore-term", 9400, "file")
	require.NoError(t, err)
	readLaunchLog(t, logPath)

	start := time.Now()
	require.NoError(t, m.Stop(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	_, ok := m.Status()
	assert.False(t, ok)
}

func TestManager_LaunchFailure(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Config{Binary: filepath.Join(dir, "missing-runtime"), TempDir: dir})

	_, err := m.StartWithCode(context.Background(), "serve()", 9500, "file")
	require.Error(t, err)
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrExecution, kind)
	assert.True(t, strings.Contains(err.Error(), "failed to launch"))
	assert.Equal(t, 0, moduleCount(t, dir))

	_, ok = m.Status()
	assert.False(t, ok)
}

func TestManager_AuditEvents(t *testing.T) {
	m, _, _ := newTestManager(t)

	var mu sync.Mutex
	var events []types.AuditEvent
	m.SetAuditCallback(func(e types.AuditEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	ctx := context.Background()
	_, err := m.StartWithCode(ctx, "serve()", 9600, "scaffold")
	require.NoError(t, err)
	require.NoError(t, m.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, types.AuditServerStart, events[0].Type)
	assert.Equal(t, types.AuditServerStop, events[1].Type)
	assert.Equal(t, "http://127.0.0.1:9600", events[0].Detail)
}
