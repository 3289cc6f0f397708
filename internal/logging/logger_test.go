package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLog(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, ".beeno", "logs", "beeno.log"))
	require.NoError(t, err)
	return string(data)
}

func TestInitialize_DebugModeWritesCategoryLogs(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "debug"}))
	assert.True(t, IsDebugMode())
	assert.Equal(t, filepath.Join(dir, ".beeno", "logs"), LogsDir())

	Perception("translated %d chars", 42)
	TactileDebug("spawned %s", "deno")
	Get(CategoryServer).With("port", 8080).Warn("restart")
	CloseAll()

	out := readLog(t, dir)
	assert.Contains(t, out, "translated 42 chars")
	assert.Contains(t, out, "spawned deno")
	assert.Contains(t, out, "restart")
	assert.Contains(t, out, "perception")
	assert.Contains(t, out, "server")
}

func TestInitialize_ProductionModeIsSilent(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(dir, Config{DebugMode: false}))
	Boot("should not be written")

	_, err := os.Stat(filepath.Join(dir, ".beeno", "logs"))
	assert.True(t, os.IsNotExist(err))
	assert.False(t, IsCategoryEnabled(CategoryBoot))
}

func TestInitialize_RequiresWorkspace(t *testing.T) {
	err := Initialize("", Config{DebugMode: true})
	require.Error(t, err)
}

func TestCategoryFilter(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(dir, Config{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"policy": false},
	}))
	assert.False(t, IsCategoryEnabled(CategoryPolicy))
	assert.True(t, IsCategoryEnabled(CategoryCore))

	Policy("hidden policy line")
	Core("visible core line")
	CoreDebug("below level")
	CloseAll()

	out := readLog(t, dir)
	assert.NotContains(t, out, "hidden policy line")
	assert.Contains(t, out, "visible core line")
	assert.NotContains(t, out, "below level")
}

func TestJSONFormat(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(dir, Config{DebugMode: true, Level: "info", JSONFormat: true}))
	Store("recorded %s", "evt-1")
	CloseAll()

	for _, line := range strings.Split(strings.TrimSpace(readLog(t, dir)), "\n") {
		assert.True(t, strings.HasPrefix(line, "{"), "expected JSON line, got %q", line)
	}
	assert.Contains(t, readLog(t, dir), `"msg":"recorded evt-1"`)
}

func TestTimer(t *testing.T) {
	timer := StartTimer(CategoryCore, "noop")
	time.Sleep(2 * time.Millisecond)
	elapsed := timer.StopWithThreshold(time.Hour)
	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "info", parseLevel("nonsense").String())
}
