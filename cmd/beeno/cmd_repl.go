package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"beeno/internal/core"
	"beeno/internal/devserver"
	"beeno/internal/session"
	"beeno/internal/tactile"
	"beeno/internal/types"
)

var (
	replProvider string
	replModel    string
	replPolicy   string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop mixing JS/TS and pseudocode",
	RunE:  runRepl,
}

func init() {
	replCmd.Flags().StringVar(&replProvider, "provider", "", "Override llm.provider")
	replCmd.Flags().StringVar(&replModel, "model", "", "Override llm.model")
	replCmd.Flags().StringVar(&replPolicy, "policy", "", "Override policy.policy_path")
}

func runRepl(cmd *cobra.Command, args []string) error {
	if replProvider != "" {
		cfg.LLM.Provider = replProvider
	}
	if replModel != "" {
		cfg.LLM.Model = replModel
	}
	if replPolicy != "" {
		cfg.Policy.PolicyPath = replPolicy
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	r := newReplSession(a.engine, a.executor, a.server, newConsole(os.Stdin, cmd.OutOrStdout()), cfg.REPL.SummaryWindow)
	r.confirmRisky = cfg.Policy.ConfirmRisky
	return r.run(ctx)
}

// replSession is the state of one interactive loop.
type replSession struct {
	engine     *core.Engine
	executor   tactile.Executor
	server     serverControl
	summarizer *session.RollingSummarizer
	con        *console

	confirmRisky bool
	port         uint16
	perms        types.PermissionSet

	lastGenerated string
	lastNL        string

	render  func(string) string
	openURL func(string) error
}

func newReplSession(engine *core.Engine, executor tactile.Executor, server serverControl, con *console, window int) *replSession {
	return &replSession{
		engine:       engine,
		executor:     executor,
		server:       server,
		summarizer:   session.NewRollingSummarizer(window),
		con:          con,
		confirmRisky: true,
		port:         devserver.DefaultPort,
		render:       renderCode,
		openURL:      openURL,
	}
}

var replHelp = [][2]string{
	{"/help", "show this help"},
	{"/exit | /quit", "exit repl"},
	{"/clear", "clear terminal"},
	{"/js <code>", "force native JS/TS execution"},
	{"/nl <prompt>", "force LLM translation before execution"},
	{"/retry [hint]", "retry last NL prompt"},
	{"/show", "show last generated code"},
	{"/context", "show current session summary"},
	{"/allow <kind> [values]", "grant read, write, net, env or run to later inputs"},
	{"/perms", "show the current grant"},
	{"/deny", "drop every grant"},
	{"/serve-port <port>", "set background server port"},
	{"/serve-js <code>", "start/restart background server from JS/TS"},
	{"/serve-nl <prompt>", "start/restart background server from pseudocode"},
	{"/serve-hotfix-js <code>", "hotfix running server with JS/TS"},
	{"/serve-hotfix-nl <prompt>", "hotfix running server with pseudocode"},
	{"/serve-status", "show running server state"},
	{"/serve-stop", "stop running server"},
}

func (r *replSession) run(ctx context.Context) error {
	r.con.println(styles.Title.Render("Beeno REPL"))
	r.con.println(styles.Muted.Render("Type /help for commands. Use /exit to quit. ':' aliases still work."))

	for {
		line, ok := r.con.readLine(ctx, styles.Prompt.Render("beeno> "))
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if r.handleLine(ctx, line) {
			break
		}
	}

	// The server must not outlive the session, even after an interrupt.
	return r.server.Stop(context.Background())
}

// handleLine processes one line and reports whether the loop should end.
func (r *replSession) handleLine(ctx context.Context, line string) bool {
	name, arg, isCmd := splitCommand(line)
	if !isCmd {
		r.report(r.handleInput(ctx, line, core.ModeRepl))
		return false
	}

	switch name {
	case "help":
		r.con.printf("%s", helpLines("Beeno REPL Commands", replHelp))
	case "exit", "quit":
		return true
	case "clear":
		r.con.printf("\x1b[2J\x1b[1;1H")
	case "show":
		if r.lastGenerated == "" {
			r.con.println("no generated code yet")
		} else {
			r.con.println(r.render(r.lastGenerated))
		}
	case "context":
		out, _ := json.MarshalIndent(summaryWithServer(r.summarizer, r.server), "", "  ")
		r.con.println("session summary:")
		r.con.println(string(out))
	case "allow":
		r.allow(arg)
	case "perms":
		r.con.printf("grant: %s\n", r.perms.String())
	case "deny":
		r.perms = types.PermissionSet{}
		r.con.println("all grants dropped")
	case "serve-status":
		if s, ok := r.server.Status(); ok {
			r.con.printf("server running on %s (mode: %s)\n", s.URL, s.Mode)
		} else {
			r.con.println("server not running")
		}
	case "serve-stop":
		if err := r.server.Stop(ctx); err != nil {
			r.report(err)
		} else {
			r.con.println("server stopped")
		}
	case "serve-port":
		port, err := strconv.ParseUint(arg, 10, 16)
		if err != nil || port == 0 {
			r.con.println("invalid port; usage: /serve-port <1-65535>")
			break
		}
		r.port = uint16(port)
		r.con.printf("server port set to %d\n", r.port)
	case "serve-js", "serve-nl":
		r.serve(ctx, name, arg)
	case "serve-hotfix-js", "serve-hotfix-nl":
		r.hotfix(ctx, name, arg)
	case "retry":
		if r.lastNL == "" {
			r.con.println("no previous pseudocode input to retry")
			break
		}
		input := r.lastNL
		if arg != "" {
			input = r.lastNL + "\nRefine with: " + arg
		}
		r.report(r.handleInput(ctx, input, core.ModeForceNL))
	case "js", "nl":
		mode, usage := core.ModeForceJS, "usage: /js <code>"
		if name == "nl" {
			mode, usage = core.ModeForceNL, "usage: /nl <prompt>"
		}
		if arg == "" {
			r.con.println(usage)
			break
		}
		r.report(r.handleInput(ctx, arg, mode))
	default:
		// Unrecognised names are input, e.g. a line opening with a regex literal.
		r.report(r.handleInput(ctx, line, core.ModeRepl))
	}
	return false
}

// handleInput prepares, confirms and executes one input, then records it.
func (r *replSession) handleInput(ctx context.Context, input, mode string) error {
	prepared, err := r.engine.PrepareSource(ctx, input, mode, summaryWithServer(r.summarizer, r.server), nil)
	if err != nil {
		return err
	}
	r.lastGenerated = prepared.Source
	if prepared.Translated != nil {
		r.lastNL = input
	}

	if !r.approveRisk(ctx, prepared.Risk, "risky output detected, execute?") {
		r.con.println("execution skipped by user")
		return nil
	}

	if _, err := r.executor.Execute(ctx, types.ExecutionRequest{
		Source:      prepared.Source,
		Permissions: r.perms,
		Origin:      core.ModeRepl,
	}); err != nil {
		return err
	}
	r.summarizer.Update(input)
	return nil
}

func (r *replSession) approveRisk(ctx context.Context, risk types.RiskReport, question string) bool {
	if !risk.RequiresConfirmation || !r.confirmRisky {
		return true
	}
	r.con.printf("%s %s\n", styles.Warning.Render("risky:"), strings.Join(risk.Reasons, ", "))
	return r.con.confirm(ctx, question)
}

// prepareServer vets input for a server start or hotfix.
func (r *replSession) prepareServer(ctx context.Context, name, input string) (string, bool) {
	mode := core.ModeForceJS
	if strings.HasSuffix(name, "-nl") {
		mode = core.ModeForceNL
	}
	prepared, err := r.engine.PrepareSource(ctx, input, mode, summaryWithServer(r.summarizer, r.server), nil)
	if err != nil {
		r.report(err)
		return "", false
	}
	r.lastGenerated = prepared.Source
	if !r.approveRisk(ctx, prepared.Risk, "risky server code generated, start it?") {
		r.con.println("server start skipped by user")
		return "", false
	}
	if mode == core.ModeForceNL {
		r.lastNL = input
	}
	return prepared.Source, true
}

func (r *replSession) serve(ctx context.Context, name, input string) {
	if input == "" {
		if name == "serve-nl" {
			r.con.println("usage: /serve-nl <pseudocode>\nexample: /serve-nl create an http server that returns hello world")
		} else {
			r.con.println("usage: /serve-js <server code>")
		}
		return
	}
	source, ok := r.prepareServer(ctx, name, input)
	if !ok {
		return
	}
	status, err := r.server.StartWithCode(ctx, source, r.port, strings.TrimPrefix(name, "serve-"))
	if err != nil {
		r.report(err)
		return
	}
	r.summarizer.Update(input)
	r.con.printf("%s %s\n", styles.Success.Render("server started:"), status.URL)
	if r.con.confirm(ctx, "open hosted webpage in your default browser?") {
		if err := r.openURL(status.URL); err != nil {
			r.con.printf("failed to open browser automatically; open manually: %s\n", status.URL)
		}
	}
}

func (r *replSession) hotfix(ctx context.Context, name, input string) {
	if input == "" {
		if name == "serve-hotfix-nl" {
			r.con.println("usage: /serve-hotfix-nl <pseudocode hotfix>")
		} else {
			r.con.println("usage: /serve-hotfix-js <updated server code>")
		}
		return
	}
	source, ok := r.prepareServer(ctx, name, input)
	if !ok {
		return
	}
	mode := strings.TrimPrefix(name, "serve-hotfix-") + "-hotfix"
	status, err := r.server.HotfixWithCode(ctx, source, mode)
	if err != nil {
		r.report(err)
		return
	}
	r.summarizer.Update(input)
	r.con.printf("%s %s\n", styles.Success.Render("server hotfix applied:"), status.URL)
}

// allow extends the session grant: "/allow net example.com,api.dev" or "/allow env".
func (r *replSession) allow(arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		r.con.println("usage: /allow <read|write|net|env|run> [comma-separated values]")
		return
	}
	var values []string
	for _, f := range fields[1:] {
		for _, v := range strings.Split(f, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}

	switch kind := fields[0]; kind {
	case "env":
		r.perms.AllowEnv = true
	case "run":
		r.perms.AllowRun = true
	case "read", "write", "net":
		if len(values) == 0 {
			r.con.printf("usage: /allow %s <values>\n", kind)
			return
		}
		switch kind {
		case "read":
			r.perms.AllowRead = append(r.perms.AllowRead, values...)
		case "write":
			r.perms.AllowWrite = append(r.perms.AllowWrite, values...)
		case "net":
			r.perms.AllowNet = append(r.perms.AllowNet, values...)
		}
	default:
		r.con.printf("unknown permission %q; use read, write, net, env or run\n", kind)
		return
	}
	r.con.printf("grant: %s\n", r.perms.String())
}

// report prints a failed input without ending the loop.
func (r *replSession) report(err error) {
	if err == nil {
		return
	}
	if types.IsBlocked(err) {
		r.con.println(styles.Error.Render("blocked by policy:"))
		for _, reason := range types.BlockedReasons(err) {
			r.con.printf("- %s\n", reason)
		}
		r.con.println("try /retry with a safer instruction or use /js to edit manually")
		return
	}
	r.con.println(styles.Error.Render("error:") + " " + fmt.Sprint(err))
}
