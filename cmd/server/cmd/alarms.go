package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"repair-backend/internal/app"
)

var alarmsJSON bool

var alarmsCmd = &cobra.Command{
	Use:   "alarms",
	Short: "Print the cases currently in alarm.",
	Long: `Evaluates every case against the SLA rules and prints the ones in alarm,
most overdue first. The cache is bypassed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.WriteAlarms(ctx, cmd.OutOrStdout(), alarmsJSON)
		})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	alarmsCmd.Flags().BoolVar(&alarmsJSON, "json", false, "print JSON instead of a table")
}
