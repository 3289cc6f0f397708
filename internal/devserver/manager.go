// Package devserver owns at most one long-lived dev server child process.
//
// Start, hotfix and stop replace the child wholesale. The manager never
// watches the child actively: a crash is noticed at the next Status call.
// A Manager is not safe for concurrent use; callers serialize access.
package devserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"beeno/internal/logging"
	"beeno/internal/tactile"
	"beeno/internal/types"
)

const (
	// DefaultPort is used by a hotfix when no server has run yet.
	DefaultPort uint16 = 8080

	// DefaultGracePeriod is how long Stop waits after SIGTERM before killing.
	DefaultGracePeriod = 3 * time.Second
)

// serverFlags are the fixed grants a dev server runs with.
var serverFlags = []string{"--allow-net", "--allow-read", "--allow-env", "--allow-write"}

// Config configures a Manager.
type Config struct {
	Binary      string
	TempDir     string
	GracePeriod time.Duration
	// Stdout and Stderr default to the caller's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// child is one running server.
type child struct {
	cmd    *exec.Cmd
	done   chan struct{}
	err    error // set by the reaper before done closes
	module string
	port   uint16
	mode   string
}

func (c *child) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Manager is the process lifecycle manager for the dev server.
type Manager struct {
	config Config

	current    *child
	lastSource string
	hasSource  bool
	lastPort   uint16

	auditMu       sync.RWMutex
	auditCallback types.AuditCallback
}

// NewManager creates a stopped manager.
func NewManager(config Config) *Manager {
	if config.Binary == "" {
		config.Binary = "deno"
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	return &Manager{config: config}
}

// SetAuditCallback sets the callback for server_start and server_stop events.
func (m *Manager) SetAuditCallback(callback types.AuditCallback) {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	m.auditCallback = callback
}

func (m *Manager) emitAudit(event types.AuditEvent) {
	m.auditMu.RLock()
	callback := m.auditCallback
	m.auditMu.RUnlock()
	if callback != nil {
		event.ID = uuid.NewString()
		event.Timestamp = time.Now()
		callback(event)
	}
}

// StartWithCode stops any running server, writes code to a fresh temp module
// and spawns the runtime on it with PORT set. It returns once the child has
// been spawned; it does not wait for the server to listen.
func (m *Manager) StartWithCode(ctx context.Context, code string, port uint16, mode string) (types.ServerStatus, error) {
	if err := m.Stop(ctx); err != nil {
		return types.ServerStatus{}, err
	}

	module, err := tactile.WriteModule(m.config.TempDir, "beeno-server", code)
	if err != nil {
		logging.Get(logging.CategoryServer).Error("server module write failed: %v", err)
		return types.ServerStatus{}, err
	}

	args := append([]string{"run"}, serverFlags...)
	args = append(args, module)

	// The server outlives the request context, so it is not bound to ctx.
	cmd := exec.Command(m.config.Binary, args...)
	cmd.Env = append(os.Environ(), "PORT="+strconv.Itoa(int(port)))
	cmd.Stdin = nil
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if m.config.Stdout != nil {
		cmd.Stdout = m.config.Stdout
	}
	if m.config.Stderr != nil {
		cmd.Stderr = m.config.Stderr
	}
	setupProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		tactile.RemoveModule(module)
		logging.Get(logging.CategoryServer).Error("failed to launch %s: %v", m.config.Binary, err)
		return types.ServerStatus{}, types.NewExecutionError(fmt.Sprintf("failed to launch %s", m.config.Binary), err)
	}

	c := &child{cmd: cmd, done: make(chan struct{}), module: module, port: port, mode: mode}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()

	m.current = c
	m.lastSource = code
	m.hasSource = true
	m.lastPort = port

	status := types.ServerStatus{Running: true, Port: port, URL: types.ServerURL(port), Mode: mode}
	logging.Get(logging.CategoryServer).
		With("pid", cmd.Process.Pid, "port", port, "mode", mode).
		Info("Dev server started: %s", status.URL)
	m.emitAudit(types.AuditEvent{Type: types.AuditServerStart, Mode: mode, Detail: status.URL})
	return status, nil
}

// HotfixWithCode restarts the server on new code, reusing the last port.
func (m *Manager) HotfixWithCode(ctx context.Context, code, mode string) (types.ServerStatus, error) {
	port := m.lastPort
	if port == 0 {
		port = DefaultPort
	}
	logging.ServerDebug("Hotfix on port %d (mode=%s)", port, mode)
	return m.StartWithCode(ctx, code, port, mode)
}

// Stop terminates the running server, if any. It sends a graceful signal,
// waits up to the grace period or until ctx is done, then kills. The temp
// module is removed. Stopping a stopped manager is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	c := m.current
	if c == nil {
		return nil
	}
	m.current = nil
	defer tactile.RemoveModule(c.module)

	if c.exited() {
		logging.ServerDebug("Dev server already exited: %v", c.err)
		return nil
	}

	timer := logging.StartTimer(logging.CategoryServer, "dev server stop")
	defer timer.Stop()

	if err := terminate(c.cmd); err != nil {
		logging.ServerWarn("graceful terminate failed: %v", err)
	}

	grace := time.NewTimer(m.config.GracePeriod)
	defer grace.Stop()

	select {
	case <-c.done:
	case <-grace.C:
		logging.ServerWarn("Dev server ignored SIGTERM for %v, killing", m.config.GracePeriod)
		_ = forceKill(c.cmd)
		<-c.done
	case <-ctx.Done():
		_ = forceKill(c.cmd)
		<-c.done
	}

	logging.Server("Dev server stopped (port %d)", c.port)
	m.emitAudit(types.AuditEvent{Type: types.AuditServerStop, Mode: c.mode, Detail: types.ServerURL(c.port)})
	return nil
}

// Status reports the running server. A child that has exited since the last
// call is forgotten and reported as not running.
func (m *Manager) Status() (types.ServerStatus, bool) {
	c := m.current
	if c == nil {
		return types.ServerStatus{}, false
	}
	if c.exited() {
		logging.ServerWarn("Dev server exited on its own: %v", c.err)
		m.current = nil
		tactile.RemoveModule(c.module)
		return types.ServerStatus{}, false
	}
	return types.ServerStatus{Running: true, Port: c.port, URL: types.ServerURL(c.port), Mode: c.mode}, true
}

// LastSource returns the code most recently started, even after a stop.
func (m *Manager) LastSource() (string, bool) {
	return m.lastSource, m.hasSource
}

// LastPort returns the port most recently started on, or DefaultPort.
func (m *Manager) LastPort() uint16 {
	if m.lastPort == 0 {
		return DefaultPort
	}
	return m.lastPort
}
