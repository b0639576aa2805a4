// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/courtpilot/internal/config"
	"github.com/xkilldash9x/courtpilot/internal/observability"
)

// envPrefix is prepended to every configuration key read from the environment,
// e.g. COURTPILOT_AGENT_ROUNDS.
const envPrefix = "COURTPILOT"

type configKey struct{}

// flagKeys maps command line flags onto configuration keys so that a flag set
// on the command line wins over the config file and the environment.
var flagKeys = map[string]string{
	"rounds":          "agent.rounds",
	"mode":            "agent.mode",
	"task":            "agent.task",
	"replay-observer": "agent.replay_observer",
	"replay-actor":    "agent.replay_actor",
	"locator":         "agent.locator.enabled",
	"tool-set":        "agent.tool_set",
	"enable-input":    "agent.enable_input",
	"url":             "browser.start_url",
	"headless":        "browser.headless",
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "courtpilot",
		Short:         "courtpilot drives a browser with vision models to find free tennis courts.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// This function runs before any command, setting up config and logging.
			if err := loadDotEnv(".env"); err != nil {
				return err
			}

			v := viper.New()
			config.SetDefaults(v)
			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Initialize a fallback logger so the failure is still reported.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "courtpilot"})
				return err
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.", zap.String("version", Version), zap.String("config", v.ConfigFileUsed()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "courtpilot version %s\n" .Version}}`)

	rootCmd.AddCommand(newRunCmd(), newToolsCmd(), newVersionCmd())
	return rootCmd
}

// Execute runs the root command with a signal-aware context.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig reads the config file and the environment into v and binds
// the flags of cmd.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	return nil
}

// loadDotEnv exports the variables of path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// configFrom returns the configuration loaded by the root command.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("configuration not initialized")
}

