package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repair-backend/internal/app"
	"repair-backend/internal/config"
	"repair-backend/internal/logger"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd runs the server when no subcommand is given.
	rootCmd = &cobra.Command{
		Use:   "repair-server",
		Short: "Repair shop case backend with SLA alarms.",
		Long: `Serves the repair case API, evaluates SLA alarms on cases and pushes
alarm counts to connected dashboards.

Without a subcommand the HTTP server is started, same as "serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}
)

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "path to configuration file")

	rootCmd.AddCommand(serveCmd, migrateCmd, alarmsCmd)
}

// withApp loads configuration, builds the application and hands it to fn.
// SIGINT and SIGTERM cancel the context passed to fn.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Errorf(ctx, "Failed to load config: %v", err)
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Errorf(ctx, "Failed to start: %v", err)
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
