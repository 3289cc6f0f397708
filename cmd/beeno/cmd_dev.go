package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"beeno/internal/core"
	"beeno/internal/logging"
	"beeno/internal/policy"
	"beeno/internal/session"
	"beeno/internal/types"
	"beeno/internal/watch"
)

var (
	devFile  string
	devPort  int
	devOpen  bool
	devWatch bool
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run a dev server and hotfix it interactively",
	Long: `Starts a deno server from --file (translating its /*nl ... */ blocks) or
from a built-in scaffold, then reads dev commands. Hotfixes always stop the
server and start it again on the same port.

With --watch, saving --file re-processes it and hotfixes the server.`,
	RunE: runDev,
}

func init() {
	devCmd.Flags().StringVar(&devFile, "file", "", "Server source file")
	devCmd.Flags().IntVar(&devPort, "port", 0, "Server port (default: dev.port, 8080)")
	devCmd.Flags().BoolVar(&devOpen, "open", false, "Open the server URL in the browser")
	devCmd.Flags().BoolVar(&devWatch, "watch", false, "Hotfix the server when --file changes")
}

// defaultDevServerSource is served when no --file is given.
func defaultDevServerSource() string {
	return `const port = Number(Deno.env.get("PORT") ?? "8080");
Deno.serve({ port }, () => new Response("Beeno dev server running"));
console.log(` + "`dev server listening on http://127.0.0.1:${port}`" + `);`
}

func runDev(cmd *cobra.Command, args []string) error {
	if devWatch && devFile == "" {
		return fmt.Errorf("--watch requires --file")
	}
	port := devPort
	if port == 0 {
		port = cfg.Dev.Port
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	d := &devSession{
		engine:       a.engine,
		policy:       a.policy,
		server:       a.server,
		summarizer:   session.NewRollingSummarizer(cfg.REPL.SummaryWindow),
		con:          newConsole(os.Stdin, cmd.OutOrStdout()),
		port:         uint16(port),
		confirmRisky: cfg.Policy.ConfirmRisky,
		openURL:      openURL,
	}
	defer func() { _ = d.server.Stop(context.Background()) }()

	code, mode, err := d.loadSource(ctx, devFile)
	if err != nil {
		return err
	}
	status, err := d.server.StartWithCode(ctx, code, d.port, mode)
	if err != nil {
		return err
	}

	d.con.println(styles.Title.Render("Beeno Dev"))
	d.con.printf("server running at %s\n", status.URL)
	d.con.println(styles.Muted.Render("type /help for dev commands"))

	if devOpen || d.con.confirm(ctx, "open hosted webpage in your default browser?") {
		d.open(status.URL)
	}

	return d.serve(ctx, devFile, devWatch, cfg.GetWatchDebounce())
}

// devSession is the dev loop state. The mutex serializes the command loop
// and watcher-driven hotfixes over the lifecycle manager.
type devSession struct {
	mu sync.Mutex

	engine       *core.Engine
	policy       policy.RiskPolicy
	server       serverControl
	summarizer   *session.RollingSummarizer
	con          *console
	port         uint16
	confirmRisky bool
	openURL      func(string) error
}

// serve runs the command loop and, when watching, the file watcher until
// either the loop ends or ctx is cancelled.
func (d *devSession) serve(ctx context.Context, file string, watchFile bool, debounce time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	var w *watch.Watcher
	if watchFile {
		var err error
		w, err = watch.New(file, debounce, d.onFileChange)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
		if err := w.Start(gctx); err != nil {
			return fmt.Errorf("failed to watch %s: %w", file, err)
		}
		d.con.println(styles.Muted.Render("watching " + w.Path()))
		g.Go(func() error {
			w.Wait()
			return nil
		})
	}

	g.Go(func() error {
		if w != nil {
			defer w.Stop()
		}
		d.loop(gctx)
		return nil
	})

	return g.Wait()
}

func (d *devSession) loop(ctx context.Context) {
	for {
		line, ok := d.con.readLine(ctx, styles.Prompt.Render("dev> "))
		if !ok {
			return
		}
		if line == "" {
			continue
		}
		if d.handleLine(ctx, line) {
			return
		}
	}
}

// loadSource returns the initial server code and its mode label.
func (d *devSession) loadSource(ctx context.Context, file string) (string, string, error) {
	if file == "" {
		return defaultDevServerSource(), "scaffold", nil
	}
	script, err := readScript(file)
	if err != nil {
		return "", "", err
	}
	if core.HasTaggedBlocks(script) {
		processed, warnings, err := d.engine.ProcessTaggedScript(ctx, script, summaryWithServer(d.summarizer, d.server), file)
		if err != nil {
			return "", "", err
		}
		for _, w := range warnings {
			warnf("%s", w)
		}
		return processed, "file-nl", nil
	}
	report := d.policy.Analyze(ctx, script)
	if report.Level == types.RiskBlocked {
		return "", "", types.NewBlockedError(report.Reasons)
	}
	return script, "file", nil
}

// onFileChange re-processes the watched file and hotfixes the server.
func (d *devSession) onFileChange(ctx context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	code, mode, err := d.loadSource(ctx, path)
	if err != nil {
		d.con.printf("\n%s %s\n", styles.Error.Render("reload failed:"), renderError(err))
		return err
	}
	status, err := d.server.HotfixWithCode(ctx, code, mode)
	if err != nil {
		d.con.printf("\n%s %v\n", styles.Error.Render("reload failed:"), err)
		return err
	}
	logging.Watch("Hotfixed %s from %s", status.URL, path)
	d.con.printf("\n%s %s\n", styles.Success.Render("reloaded:"), status.URL)
	return nil
}

var devHelp = [][2]string{
	{"/help", "show command list"},
	{"/status", "show server status"},
	{"/open", "open current server URL in browser"},
	{"/restart", "restart server with current source"},
	{"/hotfix-js <code>", "hotfix server using JS/TS"},
	{"/hotfix-nl <prompt>", "hotfix server using LLM translation"},
	{"/stop", "stop server"},
	{"/start", "start stopped server with last source"},
	{"/quit", "exit dev mode"},
}

// handleLine processes one dev command and reports whether the loop should end.
func (d *devSession) handleLine(ctx context.Context, line string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, arg, isCmd := splitCommand(line)
	if !isCmd || !strings.HasPrefix(line, "/") {
		d.con.printf("unknown command: %s. try /help\n", line)
		return false
	}

	switch name {
	case "help":
		d.con.printf("%s", helpLines("Beeno Dev Commands", devHelp))
	case "quit", "exit":
		return true
	case "status":
		if s, ok := d.server.Status(); ok {
			d.con.printf("running: %s (%s)\n", s.URL, s.Mode)
		} else {
			d.con.println("server is stopped")
		}
	case "open":
		if s, ok := d.server.Status(); ok {
			d.open(s.URL)
		} else {
			d.con.println("server is stopped")
		}
	case "stop":
		if err := d.server.Stop(ctx); err != nil {
			d.con.printf("error: %v\n", err)
			break
		}
		d.con.println("server stopped")
	case "start", "restart":
		if name == "start" {
			if s, ok := d.server.Status(); ok {
				d.con.printf("server already running: %s\n", s.URL)
				break
			}
		}
		source, ok := d.server.LastSource()
		if !ok {
			d.con.println("no previous server source available")
			break
		}
		s, err := d.server.StartWithCode(ctx, source, d.port, "restart")
		if err != nil {
			d.con.printf("error: %v\n", err)
			break
		}
		verb := "started"
		if name == "restart" {
			verb = "restarted"
		}
		d.con.printf("server %s: %s\n", verb, s.URL)
	case "hotfix-js", "hotfix-nl":
		d.hotfix(ctx, name, arg)
	default:
		d.con.printf("unknown command: %s. try /help\n", line)
	}
	return false
}

func (d *devSession) hotfix(ctx context.Context, name, input string) {
	if name == "hotfix-js" {
		d.hotfixLiteral(ctx, input)
		return
	}
	if input == "" {
		d.con.println("usage: /hotfix-nl <prompt>")
		return
	}

	prepared, err := d.engine.PrepareSource(ctx, input, core.ModeForceNL, summaryWithServer(d.summarizer, d.server), nil)
	if err != nil {
		d.con.printf("%s %s\n", styles.Error.Render("error:"), renderError(err))
		return
	}
	d.apply(ctx, input, prepared.Source, prepared.Risk, "nl-hotfix")
}

// hotfixLiteral applies user code as written. It is vetted by the policy
// but never handed to the translator.
func (d *devSession) hotfixLiteral(ctx context.Context, code string) {
	if code == "" {
		d.con.println("usage: /hotfix-js <code>")
		return
	}
	risk := d.policy.Analyze(ctx, code)
	if risk.Level == types.RiskBlocked {
		d.con.printf("%s %s\n", styles.Error.Render("error:"), renderError(types.NewBlockedError(risk.Reasons)))
		return
	}
	d.apply(ctx, code, code, risk, "js-hotfix")
}

func (d *devSession) apply(ctx context.Context, input, source string, risk types.RiskReport, label string) {
	if risk.RequiresConfirmation && d.confirmRisky &&
		!d.con.confirm(ctx, "risky hotfix generated, apply?") {
		d.con.println("hotfix skipped")
		return
	}

	s, err := d.server.HotfixWithCode(ctx, source, label)
	if err != nil {
		d.con.printf("error: %v\n", err)
		return
	}
	d.summarizer.Update(input)
	d.con.printf("%s %s\n", styles.Success.Render("hotfix applied:"), s.URL)
}

func (d *devSession) open(url string) {
	if err := d.openURL(url); err != nil {
		d.con.printf("failed to open browser automatically; open manually: %s\n", url)
	}
}
