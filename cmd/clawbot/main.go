package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clawbot/internal/config"
)

var (
	configPath string

	cfg     *config.Config
	secrets config.Secrets
)

var rootCmd = &cobra.Command{
	Use:   "clawbot",
	Short: "Submit forecasts to oracles.run and announce them on X",
	Long: `clawbot posts probabilistic forecasts to the oracles.run agent API and
publishes one summary post on X per run.

First-time setup:
  clawbot auth-url          print the X authorization URL
  clawbot exchange <code>   trade the returned code for a bearer token

Then, manually or from cron:
  clawbot run`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default $CLAWBOT_CONFIG_PATH or ./config.toml)")

	rootCmd.AddCommand(authURLCmd, exchangeCmd, marketsCmd, runCmd)
}

// setup loads configuration and secrets and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = "config.toml"
		if p := os.Getenv("CLAWBOT_CONFIG_PATH"); p != "" {
			path = p
		}
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	// Logs go to stderr so the printed report stays readable on stdout.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.General.SlogLevel(),
	})))

	secrets, err = config.LoadSecrets(cfg.General.EnvFile)
	if err != nil {
		return err
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
