package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beeno/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the risk policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective policy document as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		pol, err := policy.FromSettings(cfg.Policy.PolicyPath)
		if err != nil {
			return err
		}
		doc := pol.Config()
		if jsonOutput {
			source := "default"
			if cfg.Policy.PolicyPath != "" {
				source = cfg.Policy.PolicyPath
			}
			printEnvelope(cmd.OutOrStdout(), okEnvelope("policy", "effective policy", map[string]any{
				"source":                  source,
				"blocked_patterns":        doc.BlockedPatterns,
				"risky_patterns":          doc.RiskyPatterns,
				"trusted_import_prefixes": doc.TrustedImportPrefixes,
			}))
			return nil
		}
		out, err := doc.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var policySchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of policy documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := policy.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policySchemaCmd)
}
