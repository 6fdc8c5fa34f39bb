package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"repair-backend/internal/app"
	"repair-backend/internal/logger"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run pending migrations and start the HTTP server.",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		if !skipMigrations {
			if err := a.Migrate(ctx); err != nil {
				logger.Errorf(ctx, "Migration failed: %v", err)
				return err
			}
		}
		return a.Serve(ctx)
	})
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	rootCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
}
