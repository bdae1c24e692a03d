// Package cli wires the engines to SQLite and exposes them as cobra
// subcommands; the sweep command is the cron entry point.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/config"
	"github.com/example/reserva/internal/logging"
	"github.com/example/reserva/internal/persistence"
	"github.com/example/reserva/internal/persistence/sqlite"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Database   string
	LogLevel   string
}

// NewRootCommand creates the root command for the reserva CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reserva",
		Short: "Room reservation lifecycle and sanction management",
		Long: `reserva manages room reservations and attendance-based sanctions.

The sweep subcommand is designed to run from cron once a day: it closes
overdue reservations, sanctions the participants of unattended ones and
lifts sanctions that have run their course.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite DSN (overrides configuration)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides configuration)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewSanctionsCommand(opts))
	cmd.AddCommand(NewRoomsCommand(opts))

	return cmd
}

// appContext bundles everything a subcommand needs once wiring is done.
type appContext struct {
	cfg          config.Config
	pool         *sqlite.ConnectionPool
	reservations *application.ReservationService
	sanctions    *application.SanctionService
	rooms        persistence.RoomRepository
}

func (a *appContext) Close() error {
	if a.pool != nil {
		return a.pool.Close()
	}
	return nil
}

// buildApp loads configuration, opens and pings the database and constructs
// both engines with their mutual references wired. Overrides run after flags
// are applied, so command-specific flags can adjust the configuration.
func buildApp(ctx context.Context, opts *RootOptions, overrides ...func(*config.Config)) (*appContext, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.SQLiteDSN = opts.Database
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	for _, override := range overrides {
		override(&cfg)
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(os.Stderr, cfg.LogLevel)

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	reservationStore := reservationStoreAdapter{repo: sqlite.NewReservationRepository(pool)}
	sanctionStore := sanctionStoreAdapter{repo: sqlite.NewSanctionRepository(pool)}
	roomRepo := sqlite.NewRoomRepository(pool)
	directory := directoryAdapter{
		participants: sqlite.NewParticipantRepository(pool),
		rooms:        roomRepo,
	}
	slots := slotCatalogAdapter{repo: sqlite.NewSlotRepository(pool)}

	sanctionSvc := application.NewSanctionService(application.SanctionServiceConfig{
		Sanctions:    sanctionStore,
		DurationDays: cfg.SanctionDays,
		IDGenerator:  uuid.NewString,
		Location:     location,
		Logger:       logger,
	})
	reservationSvc := application.NewReservationService(application.ReservationServiceConfig{
		Reservations:   reservationStore,
		Participants:   directory,
		Rooms:          directory,
		Slots:          slots,
		Sanctions:      sanctionSvc,
		NoShowPolicy:   sanctionSvc,
		EditWindowDays: cfg.EditWindowDays,
		IDGenerator:    uuid.NewString,
		Location:       location,
		Logger:         logger,
	})
	sanctionSvc.SetSweeper(reservationSvc)

	return &appContext{
		cfg:          cfg,
		pool:         pool,
		reservations: reservationSvc,
		sanctions:    sanctionSvc,
		rooms:        roomRepo,
	}, nil
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
