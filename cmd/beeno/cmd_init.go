package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beeno/internal/config"
)

var initForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a commented .beeno.yaml in the current directory",
	// The template is written before any existing config is read.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName
		if configPath != "" {
			path = configPath
		}
		if err := config.InitConfigFile(path, initForce); err != nil {
			return err
		}
		if jsonOutput {
			printEnvelope(cmd.OutOrStdout(), okEnvelope("config", "initialized "+path, map[string]any{"path": path}))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("initialized ")+path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
