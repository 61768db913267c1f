// Package commands implements the mudra command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
)

// NewRootCmd builds the mudra command tree.
func NewRootCmd(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:   "mudra",
		Short: "Mudra - hand gesture and facial expression interaction engine",
		Long: `Mudra reads a camera, classifies hand gestures and facial expressions
from detected landmarks, and publishes the combined interaction state over
HTTP. It also drives a finger-painting canvas, gesture-triggered snapshots
and executable hooks.

Every setting can be given as a MUDRA_* environment variable; flags
override the environment.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("data-dir", "", "Data directory (default ~/.mudra)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "Log format: text or json")

	root.AddCommand(newServeCmd(), newSnapshotsCmd(), newHooksCmd())
	return root
}

// loadConfig reads the environment, applies flags the user set, resolves
// derived paths and installs the logger.
func loadConfig(cmd *cobra.Command, overrides ...func(*cobra.Command, *config.Config)) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	setString(fs, "data-dir", &cfg.DataDir)
	setString(fs, "log-level", &cfg.LogLevel)
	setString(fs, "log-format", &cfg.LogFormat)
	for _, o := range overrides {
		o(cmd, &cfg)
	}

	if err := cfg.Resolve(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}
