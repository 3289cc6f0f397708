package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beeno/internal/core"
	"beeno/internal/policy"
	"beeno/internal/session"
	"beeno/internal/types"
)

// countingTranslator records calls and always returns the same code.
type countingTranslator struct {
	calls int
	code  string
}

func (c *countingTranslator) Translate(_ context.Context, _ types.TranslateRequest) (*types.TranslateResult, error) {
	c.calls++
	return &types.TranslateResult{Code: c.code}, nil
}

func newTestDev(input string) (*devSession, *fakeServer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	server := &fakeServer{}
	var opened []string
	d := &devSession{
		engine:       newTestEngine(),
		policy:       policy.NewDefaultPolicy(),
		server:       server,
		summarizer:   session.NewRollingSummarizer(8),
		con:          newConsole(strings.NewReader(input), out),
		port:         3333,
		confirmRisky: true,
		openURL: func(u string) error {
			opened = append(opened, u)
			return nil
		},
	}
	return d, server, out
}

func TestDefaultDevServerSource(t *testing.T) {
	src := defaultDevServerSource()
	assert.Contains(t, src, "Deno.serve")
	assert.Contains(t, src, "PORT")
	assert.Equal(t, types.RiskSafe, policy.NewDefaultPolicy().Analyze(context.Background(), src).Level)
}

func TestDevCommandParsesFlags(t *testing.T) {
	require.NoError(t, devCmd.ParseFlags([]string{"--file", "app.ts", "--port", "3333", "--open", "--watch"}))
	defer func() { devFile, devPort, devOpen, devWatch = "", 0, false, false }()
	assert.Equal(t, "app.ts", devFile)
	assert.Equal(t, 3333, devPort)
	assert.True(t, devOpen)
	assert.True(t, devWatch)
}

func TestDev_LoadSource(t *testing.T) {
	d, _, _ := newTestDev("")
	ctx := context.Background()
	dir := t.TempDir()

	code, mode, err := d.loadSource(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "scaffold", mode)
	assert.Equal(t, defaultDevServerSource(), code)

	plain := filepath.Join(dir, "plain.ts")
	require.NoError(t, os.WriteFile(plain, []byte(`Deno.serve(() => new Response("ok"));`), 0o644))
	code, mode, err = d.loadSource(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, "file", mode)
	assert.Contains(t, code, "Deno.serve")

	tagged := filepath.Join(dir, "tagged.ts")
	require.NoError(t, os.WriteFile(tagged, []byte("const a = 1;\n/*nl\nlog a greeting\n*/\n"), 0o644))
	code, mode, err = d.loadSource(ctx, tagged)
	require.NoError(t, err)
	assert.Equal(t, "file-nl", mode)
	assert.True(t, strings.HasPrefix(code, "const a = 1;\n"))
	assert.Contains(t, code, `console.log("log a greeting");`)

	blocked := filepath.Join(dir, "blocked.ts")
	require.NoError(t, os.WriteFile(blocked, []byte(`new Deno.Command("rm");`), 0o644))
	_, _, err = d.loadSource(ctx, blocked)
	assert.True(t, types.IsBlocked(err))

	_, _, err = d.loadSource(ctx, filepath.Join(dir, "missing.ts"))
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrIO, kind)
}

func TestDev_StartStopRestart(t *testing.T) {
	d, server, out := newTestDev("")
	ctx := context.Background()

	d.handleLine(ctx, "/start")
	assert.Contains(t, out.String(), "no previous server source available")

	_, _ = server.StartWithCode(ctx, "serve()", 3333, "scaffold")
	d.handleLine(ctx, "/start")
	assert.Contains(t, out.String(), "server already running")

	d.handleLine(ctx, "/stop")
	d.handleLine(ctx, "/status")
	assert.Contains(t, out.String(), "server is stopped")

	d.handleLine(ctx, "/start")
	require.Len(t, server.starts, 2)
	assert.Equal(t, startCall{"serve()", 3333, "restart"}, server.starts[1])

	d.handleLine(ctx, "/restart")
	assert.Contains(t, out.String(), "server restarted: http://127.0.0.1:3333")

	d.handleLine(ctx, "/status")
	assert.Contains(t, out.String(), "running: http://127.0.0.1:3333 (restart)")
}

func TestDev_Hotfix(t *testing.T) {
	d, server, out := newTestDev("")
	ctx := context.Background()
	_, _ = server.StartWithCode(ctx, "serve()", 3333, "scaffold")

	d.handleLine(ctx, "/hotfix-js")
	assert.Contains(t, out.String(), "usage: /hotfix-js <code>")

	d.handleLine(ctx, `/hotfix-js Deno.serve(() => new Response("v2"));`)
	require.Len(t, server.hotfixes, 1)
	assert.Equal(t, "js-hotfix", server.hotfixes[0].mode)
	assert.Equal(t, uint16(3333), server.hotfixes[0].port)

	d.handleLine(ctx, `/hotfix-js new Deno.Command("sh");`)
	assert.Len(t, server.hotfixes, 1)
	assert.Contains(t, out.String(), "blocked by policy")

	d.handleLine(ctx, "/hotfix-nl respond with the current time and a greeting.")
	require.Len(t, server.hotfixes, 2)
	assert.Equal(t, "nl-hotfix", server.hotfixes[1].mode)
	assert.Len(t, d.summarizer.Current().RecentIntents, 2)
}

func TestDev_HotfixJSAppliesCodeVerbatim(t *testing.T) {
	d, server, _ := newTestDev("")
	translator := &countingTranslator{code: "console.log('replaced');"}
	d.engine = core.NewEngine(translator, policy.NewDefaultPolicy())
	ctx := context.Background()

	// Reads as pseudocode to the classifier: more than five words and a dot.
	code := `Deno.serve({ port: 8000, hostname: "0.0.0.0" }, handler)`
	d.handleLine(ctx, "/hotfix-js "+code)

	assert.Zero(t, translator.calls)
	require.Len(t, server.hotfixes, 1)
	assert.Equal(t, code, server.source)
	assert.Equal(t, "js-hotfix", server.hotfixes[0].mode)

	d.handleLine(ctx, "/hotfix-nl greet every visitor by name")
	assert.Equal(t, 1, translator.calls)
	require.Len(t, server.hotfixes, 2)
	assert.Equal(t, "console.log('replaced');", server.source)
}

func TestDev_RiskyHotfixDeclined(t *testing.T) {
	d, server, out := newTestDev("no\n")
	ctx := context.Background()

	d.handleLine(ctx, `/hotfix-js const v = eval("1");`)
	assert.Empty(t, server.hotfixes)
	assert.Contains(t, out.String(), "hotfix skipped")
}

func TestDev_QuitAndUnknown(t *testing.T) {
	d, _, out := newTestDev("")
	ctx := context.Background()

	assert.False(t, d.handleLine(ctx, "hello"))
	assert.Contains(t, out.String(), "unknown command: hello")
	assert.True(t, d.handleLine(ctx, "/quit"))
	assert.True(t, d.handleLine(ctx, "/exit"))
}

func TestDev_OnFileChangeHotfixes(t *testing.T) {
	d, server, out := newTestDev("")
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "app.ts")
	require.NoError(t, os.WriteFile(file, []byte(`Deno.serve(() => new Response("v3"));`), 0o644))

	require.NoError(t, d.onFileChange(ctx, file))
	require.Len(t, server.hotfixes, 1)
	assert.Equal(t, "file", server.hotfixes[0].mode)
	assert.Contains(t, out.String(), "reloaded:")

	require.NoError(t, os.WriteFile(file, []byte(`new Deno.Command("sh");`), 0o644))
	assert.Error(t, d.onFileChange(ctx, file))
	assert.Len(t, server.hotfixes, 1)
}

func TestDev_ServeEndsOnQuit(t *testing.T) {
	d, _, _ := newTestDev("/status\n/quit\n")
	require.NoError(t, d.serve(context.Background(), "", false, 0))
}

func TestDev_ServeWithWatcher(t *testing.T) {
	d, _, out := newTestDev("/quit\n")
	file := filepath.Join(t.TempDir(), "app.ts")
	require.NoError(t, os.WriteFile(file, []byte(`Deno.serve(() => new Response("ok"));`), 0o644))

	require.NoError(t, d.serve(context.Background(), file, true, 0))
	assert.Contains(t, out.String(), "watching ")
}
