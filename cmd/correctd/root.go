package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"correctd/internal/config"
)

// cliOptions carries the persistent flag values shared by all subcommands.
type cliOptions struct {
	configPath string
	logLevel   string
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "correctd",
		Short:         "Resource-arbitrated text correction daemon and CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config",
		envDefault("CORRECTD_CONFIG", ""), "Path to config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level",
		envDefault("CORRECTD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(opts), newCorrectCmd(opts))
	return root
}

// loadConfig resolves the effective configuration for a subcommand.
func loadConfig(opts *cliOptions) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg.ApplyDefaults()
	if err := cfg.ResolveModelPaths(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the process logger at the requested level.
func newLogger(opts *cliOptions) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
