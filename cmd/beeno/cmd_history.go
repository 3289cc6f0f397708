package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beeno/internal/store"
	"beeno/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline events from the audit journal",
	Long: `Lists events recorded while audit.enabled is true (or BEENO_AUDIT=1):
translations, policy refusals, executions and dev server starts and stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			printEnvelope(out, okEnvelope("history", fmt.Sprintf("%d events", len(events)), map[string]any{
				"path":   s.Path(),
				"events": events,
			}))
			return nil
		}
		if len(events) == 0 {
			fmt.Fprintln(out, styles.Muted.Render("no audit events recorded; enable audit.enabled in .beeno.yaml"))
			return nil
		}
		for _, e := range events {
			fmt.Fprintln(out, formatEvent(e))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", store.DefaultRecentLimit, "Number of events to show")
}

// formatEvent renders one journal line.
func formatEvent(e types.AuditEvent) string {
	parts := []string{
		styles.Muted.Render(e.Timestamp.Local().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("%-12s", e.Type),
	}
	if e.Origin != "" {
		parts = append(parts, "origin="+e.Origin)
	}
	if e.Mode != "" {
		parts = append(parts, "mode="+e.Mode)
	}
	if e.Level != "" {
		parts = append(parts, "level="+string(e.Level))
	}
	if e.ExitCode != nil {
		parts = append(parts, fmt.Sprintf("exit=%d", *e.ExitCode))
	}
	if len(e.Reasons) > 0 {
		parts = append(parts, "reasons="+strings.Join(e.Reasons, "; "))
	}
	if e.Detail != "" && e.Type != types.AuditTranslate && e.Type != types.AuditBlocked {
		parts = append(parts, e.Detail)
	}
	return strings.Join(parts, "  ")
}
