// Command beeno runs natural-language pseudocode and JS/TS on the deno runtime.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"beeno/internal/config"
	"beeno/internal/logging"
	"beeno/internal/types"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "beeno",
	Short: "LLM-assisted pseudocode on top of the deno runtime",
	Long: `beeno turns literal JS/TS or natural-language pseudocode into vetted
source and runs it with deno.

Generated source is checked against a risk policy before it runs, and the
capability flags you pass must cover what the source actually uses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ws, _ := os.Getwd()
		if err := logging.Initialize(ws, cfg.Logging.ToLogging()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		}

		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			if err := logging.EnableConsole("debug"); err != nil {
				return fmt.Errorf("failed to enable console logging: %w", err)
			}
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("config loaded",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model),
			zap.String("runtime", cfg.Runtime.Binary))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print a JSON result envelope")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging on stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.beeno.yaml then ./.beeno.yaml)")

	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadLayered(configPath)
	}
	return config.LoadLayered(config.DefaultPaths()...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			printEnvelope(os.Stdout, errorEnvelope(err))
		} else {
			fmt.Fprintln(os.Stderr, styles.Error.Render("error: ")+renderError(err))
		}
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor passes a runtime's non-zero status through as beeno's own.
func exitCodeFor(err error) int {
	var ee *types.EngineError
	if errors.As(err, &ee) && ee.Kind == types.ErrExecution && ee.ExitCode > 0 {
		return ee.ExitCode
	}
	return 1
}
