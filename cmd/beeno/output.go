package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"beeno/internal/types"
)

// permFlags are the capability grants shared by eval and run.
type permFlags struct {
	read  []string
	write []string
	net   []string
	env   bool
	run   bool
}

func (p *permFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&p.read, "allow-read", nil, "Allow file reads under these paths")
	cmd.Flags().StringSliceVar(&p.write, "allow-write", nil, "Allow file writes under these paths")
	cmd.Flags().StringSliceVar(&p.net, "allow-net", nil, "Allow network access to these hosts")
	cmd.Flags().BoolVar(&p.env, "allow-env", false, "Allow environment access")
	cmd.Flags().BoolVar(&p.run, "allow-run", false, "Allow spawning subprocesses")
}

func (p *permFlags) set() types.PermissionSet {
	return types.PermissionSet{
		AllowRead:  p.read,
		AllowWrite: p.write,
		AllowNet:   p.net,
		AllowEnv:   p.env,
		AllowRun:   p.run,
	}
}

func printEnvelope(w io.Writer, env types.JSONEnvelope) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
	}
}

func okEnvelope(phase, message string, details map[string]any) types.JSONEnvelope {
	return types.JSONEnvelope{Status: "ok", Phase: phase, Message: message, Details: details}
}

// errorEnvelope describes a failed command. Engine errors carry their phase.
func errorEnvelope(err error) types.JSONEnvelope {
	env := types.JSONEnvelope{Status: "error", Phase: "cli", Message: err.Error()}
	var ee *types.EngineError
	if errors.As(err, &ee) {
		env.Phase = ee.Phase()
		env.Details = map[string]any{"kind": ee.Kind.String()}
		if len(ee.Reasons) > 0 {
			env.Details["reasons"] = ee.Reasons
		}
		if ee.ExitCode >= 0 {
			env.Details["exit_code"] = ee.ExitCode
		}
	}
	return env
}

// renderError formats an error for humans.
func renderError(err error) string {
	if types.IsBlocked(err) {
		return fmt.Sprintf("blocked by policy: %s; retry with safer instructions",
			strings.Join(types.BlockedReasons(err), ", "))
	}
	return err.Error()
}

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styles.Warning.Render("warning: ")+fmt.Sprintf(format, args...))
}
