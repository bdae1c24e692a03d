package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/reserva/internal/persistence/sqlite/migration"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply the embedded schema migrations that have not run yet.

Migrations run in version order, each in its own transaction; applying an
already-migrated database is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.pool.Migrate(ctx); err != nil {
				return err
			}

			versions, err := migration.AppliedVersions(ctx, app.pool.DB())
			if err != nil {
				return err
			}
			cmd.Printf("schema up to date, %d migrations applied\n", len(versions))
			return nil
		},
	}
}
