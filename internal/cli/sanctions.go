package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reserva/internal/civil"
)

// NewSanctionsCommand creates the sanctions command group.
func NewSanctionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanctions",
		Short: "Manage sanction intervals",
	}
	cmd.AddCommand(newSanctionsLiftCommand(rootOpts))
	cmd.AddCommand(newSanctionsCheckCommand(rootOpts))
	return cmd
}

func newSanctionsLiftCommand(rootOpts *RootOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "lift",
		Short: "Remove sanctions whose end date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			location, err := app.cfg.Location()
			if err != nil {
				return err
			}

			now := time.Now().In(location)
			if asOf != "" {
				day, err := civil.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				now = day.In(location)
			}

			lifted, err := app.sanctions.LiftExpired(cmd.Context(), now)
			if err != nil {
				return err
			}
			cmd.Printf("lifted %d sanctions\n", lifted)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "lift as of this ISO date (defaults to today)")
	return cmd
}

func newSanctionsCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var onDate string

	cmd := &cobra.Command{
		Use:   "check <participant-ci>",
		Short: "Report whether a participant may book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			var at civil.Date
			if onDate != "" {
				parsed, err := civil.ParseDate(onDate)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				at = parsed
			}

			status, err := app.sanctions.IsBlocked(cmd.Context(), args[0], at)
			if err != nil {
				return err
			}
			if !status.Blocked {
				cmd.Printf("participant %s may book\n", args[0])
				return nil
			}
			cmd.Printf("participant %s is sanctioned until %s (may book from %s)\n",
				args[0], status.ReleaseDate, status.ReleaseDate.AddDays(1))
			return nil
		},
	}

	cmd.Flags().StringVar(&onDate, "date", "", "check eligibility on this ISO date (defaults to today)")
	return cmd
}
