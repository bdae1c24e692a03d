package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/config"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	AsOf     string
	Duration int
}

// NewSweepCommand creates the sweep command, the daily reconciliation entry
// point.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the daily reconciliation batch",
		Long: `Run one reconciliation pass: lift expired sanctions, close overdue
reservations (no-show when nobody attended, completed otherwise) and
sanction the participants of each new no-show.

Rerunning the sweep with the same date finds nothing left to do, so an
overlapping cron schedule is harmless.

Example:
  reserva sweep --db ./reserva.db
  reserva sweep --db ./reserva.db --as-of 2025-06-11 --duration 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "run the batch as of this ISO date (defaults to today)")
	cmd.Flags().IntVar(&opts.Duration, "duration", 0, "sanction length in days (overrides configuration)")

	return cmd
}

func runSweep(cmd *cobra.Command, opts *SweepOptions) error {
	app, err := buildApp(cmd.Context(), opts.RootOptions, func(cfg *config.Config) {
		if opts.Duration > 0 {
			cfg.SanctionDays = opts.Duration
		}
	})
	if err != nil {
		return err
	}
	defer app.Close()

	location, err := app.cfg.Location()
	if err != nil {
		return err
	}

	now := time.Now().In(location)
	if opts.AsOf != "" {
		asOf, err := civil.ParseDate(opts.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
		now = asOf.In(location)
	}

	summary, err := app.sanctions.ProcessDueReservations(cmd.Context(), now)
	if err != nil {
		return err
	}

	cmd.Printf("processed %d reservations, applied %d sanctions, lifted %d, %d failures\n",
		summary.ReservationsProcessed, summary.SanctionsApplied, summary.SanctionsLifted, len(summary.Failures))
	for _, failure := range summary.Failures {
		cmd.PrintErrf("failed (%s): reservation=%s participant=%s: %v\n",
			application.ErrorKind(failure.Err), failure.ReservationID, failure.ParticipantID, failure.Err)
	}
	return nil
}
