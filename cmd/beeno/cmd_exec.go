package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"beeno/internal/core"
	"beeno/internal/tactile"
	"beeno/internal/types"
)

var (
	evalPerms permFlags
	runPerms  permFlags
)

var evalCmd = &cobra.Command{
	Use:   "eval <input>",
	Short: "Translate (if needed), vet and run one input",
	Long: `Runs a single input through the pipeline. Literal JS/TS is used as is;
anything that looks like pseudocode is translated first. The result is
checked against the risk policy and the capability flags before deno runs it.

Example:
  beeno eval "print the current date"
  beeno eval 'await fetch("https://example.com")' --allow-net example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a script, translating its /*nl ... */ blocks first",
	Args:  cobra.ExactArgs(1),
	RunE:  runFile,
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Analyze a script against the risk policy without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	evalPerms.register(evalCmd)
	runPerms.register(runCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	input := strings.Join(args, " ")
	prepared, err := a.engine.PrepareSource(ctx, input, core.ModeEval, types.SessionSummary{}, nil)
	if err != nil {
		return err
	}
	if prepared.Risk.RequiresConfirmation {
		warnf("risky output detected (%s); use the repl to confirm interactively",
			strings.Join(prepared.Risk.Reasons, ", "))
	}

	res, err := a.execute(ctx, prepared.Source, evalPerms.set(), core.ModeEval)
	if err != nil {
		return err
	}
	if jsonOutput {
		printEnvelope(cmd.OutOrStdout(), okEnvelope("execute", "execution completed", map[string]any{
			"mode":        core.ModeEval,
			"translated":  prepared.Translated != nil,
			"risk":        prepared.Risk.Level,
			"exit_code":   res.ExitCode,
			"duration_ms": res.Duration.Milliseconds(),
		}))
	}
	return nil
}

// readScript reads a script file as an ErrIO EngineError on failure.
func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.NewIOError("read "+path, err)
	}
	return string(data), nil
}

func runFile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	file := args[0]
	script, err := readScript(file)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	processed, warnings, err := a.engine.ProcessTaggedScript(ctx, script, types.SessionSummary{}, file)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		warnf("%s", w)
	}

	res, err := a.execute(ctx, processed, runPerms.set(), core.ModeRun)
	if err != nil {
		return err
	}
	if jsonOutput {
		printEnvelope(cmd.OutOrStdout(), okEnvelope("execute", "run completed", map[string]any{
			"file":        file,
			"warnings":    warnings,
			"exit_code":   res.ExitCode,
			"duration_ms": res.Duration.Milliseconds(),
		}))
	}
	return nil
}

// checkResult is what `beeno check` reports.
type checkResult struct {
	Risk        types.RiskReport
	Required    []string
	Warnings    []string
	Translated  bool
	SourceBytes int
}

// checkScript vets a script the same way run would, without executing it.
func checkScript(ctx context.Context, a *app, file, script string) (*checkResult, error) {
	res := &checkResult{}
	source := script
	if core.HasTaggedBlocks(script) {
		processed, warnings, err := a.engine.ProcessTaggedScript(ctx, script, types.SessionSummary{}, file)
		if err != nil {
			return nil, err
		}
		source = processed
		res.Warnings = warnings
		res.Translated = true
	}
	res.Risk = a.policy.Analyze(ctx, source)
	res.Required = tactile.RequiredPermissions(source)
	res.SourceBytes = len(source)
	return res, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	file := args[0]
	script, err := readScript(file)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := checkScript(ctx, a, file, script)
	if err != nil {
		return err
	}

	blocked := res.Risk.Level == types.RiskBlocked
	out := cmd.OutOrStdout()
	if jsonOutput {
		if blocked {
			return types.NewBlockedError(res.Risk.Reasons)
		}
		printEnvelope(out, okEnvelope("policy", "check completed", map[string]any{
			"file":                 file,
			"level":                res.Risk.Level,
			"reasons":              res.Risk.Reasons,
			"required_permissions": res.Required,
			"warnings":             res.Warnings,
			"translated":           res.Translated,
		}))
	} else {
		verdict := styles.Success.Render(string(res.Risk.Level))
		switch res.Risk.Level {
		case types.RiskRisky:
			verdict = styles.Warning.Render(string(res.Risk.Level))
		case types.RiskBlocked:
			verdict = styles.Error.Render(string(res.Risk.Level))
		}
		fmt.Fprintf(out, "%s: %s\n", file, verdict)
		for _, r := range res.Risk.Reasons {
			fmt.Fprintf(out, "  - %s\n", r)
		}
		if len(res.Required) > 0 {
			fmt.Fprintf(out, "%s %s\n", styles.Muted.Render("needs:"), strings.Join(res.Required, ", "))
		}
		for _, w := range res.Warnings {
			warnf("%s", w)
		}
	}

	if blocked {
		return types.NewBlockedError(res.Risk.Reasons)
	}
	return nil
}
