// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/internal/config"
	"github.com/usmank11/automatic-fisher/internal/observability"
)

var (
	cfgFile string
	// appConfig holds the resolved configuration for the invoked command.
	// Populated by the root PersistentPreRunE before any RunE executes.
	appConfig *config.Config
)

// newRootCmd builds the base command and attaches the subcommands. Kept as
// a constructor so tests can work against a pristine command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fisher",
		Short: "Fisher drives a chat fishing bot through a browser-hosted message timeline.",
		Long: `Fisher automates the command/response cycle of a chat fishing bot that has
no API: it types slash commands into the channel's message composer, waits
for the response burst to settle, classifies the reply text, and decides
the next action. Depleted bait triggers a sell-then-buy corrective chain;
a text anti-bot challenge is answered automatically; an image challenge
stops the loop, since guessing at one would burn the account.`,
		// Version is stamped at build time. See cmd/version.go.
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before any subcommand, setting up config and logging.
			if err := initializeConfig(); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				// Fall back to a minimal logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "fisher"})
				return fmt.Errorf("failed to load config: %w", err)
			}
			appConfig = cfg

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Info("Starting fisher", zap.String("version", Version))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.AddCommand(newRunCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// rootCmd is the process-wide command tree used by Execute.
var rootCmd = newRootCmd()

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Use the logger if available, otherwise fall back to stderr.
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

// initializeConfig layers defaults, the config file, and FISHER_* env vars
// into the global viper instance. A missing config file is not an error.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FISHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}
	return nil
}
