package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanshika/bizflow/internal/config"
	"github.com/vanshika/bizflow/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	appCfg   config.Config
	logger   *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "bizflow",
		Short: "Business transaction ingestion and live fan-out",
		Long: `bizflow records transactions between businesses in a graph store,
streams every confirmed write to live observers and can generate mock load.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml); environment variables take precedence")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(generateCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	appCfg = cfg
	logger = logging.New(cfg.Logging, cmd.ErrOrStderr()).With("command", cmd.Name())
	slog.SetDefault(logger)
	return nil
}
