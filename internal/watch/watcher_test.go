package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_RejectsNilCallback(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "app.ts"), 0, nil)
	assert.Error(t, err)
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.ts")
	writeFile(t, target, "v0")

	var calls atomic.Int32
	var seen atomic.Value
	w, err := New(target, 100*time.Millisecond, func(ctx context.Context, path string) error {
		calls.Add(1)
		seen.Store(path)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 1; i <= 5; i++ {
		writeFile(t, target, "v"+string(rune('0'+i)))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of saves should fire once")
	assert.Equal(t, w.Path(), seen.Load())
	assert.Equal(t, 1, w.Stats().Changes)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.ts")
	writeFile(t, target, "v0")

	var calls atomic.Int32
	w, err := New(target, 50*time.Millisecond, func(ctx context.Context, path string) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.ts"), "x")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_CountsCallbackFailures(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.ts")
	writeFile(t, target, "v0")

	w, err := New(target, 50*time.Millisecond, func(ctx context.Context, path string) error {
		return errors.New("translate failed")
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, target, "v1")
	require.Eventually(t, func() bool { return w.Stats().CallbackFails == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app.ts")
	writeFile(t, target, "v0")

	w, err := New(target, 0, func(ctx context.Context, path string) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Wait()
	w.Stop()
}

func TestWatcher_StartFailsForMissingDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "app.ts")
	w, err := New(target, 0, func(ctx context.Context, path string) error { return nil })
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
