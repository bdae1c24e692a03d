package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// SanctionStore captures the persistence interactions needed by the
// eligibility engine.
type SanctionStore interface {
	CreateSanction(ctx context.Context, sanction Sanction) (Sanction, error)
	GetSanction(ctx context.Context, id string) (Sanction, error)
	UpdateSanction(ctx context.Context, sanction Sanction) (Sanction, error)
	ListSanctions(ctx context.Context, filter SanctionStoreFilter) ([]Sanction, error)
	DeleteSanctionsEndedBefore(ctx context.Context, day civil.Date) (int, error)
}

// SanctionStoreFilter narrows queries issued to the sanction store.
type SanctionStoreFilter struct {
	ParticipantID string
	ActiveOn      *civil.Date
}

// ReservationSweeper is the slice of the lifecycle engine the reconciliation
// batch drives.
type ReservationSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) ([]SweepResult, []BatchFailure, error)
}

// SanctionService decides booking eligibility and manages sanction
// intervals, including the daily reconciliation batch.
type SanctionService struct {
	sanctions    SanctionStore
	sweeper      ReservationSweeper
	durationDays int
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
	blocks       *blockCache
}

// SanctionServiceConfig wires the eligibility engine dependencies.
type SanctionServiceConfig struct {
	Sanctions SanctionStore
	Sweeper   ReservationSweeper
	// DurationDays is the length of an automatically applied sanction.
	// Defaults to 60.
	DurationDays int
	IDGenerator  func() string
	Now          func() time.Time
	Location     *time.Location
	Logger       *slog.Logger
}

// DefaultSanctionDays is the sanction length applied when none is configured.
const DefaultSanctionDays = 60

// NewSanctionService wires dependencies for sanction operations.
func NewSanctionService(cfg SanctionServiceConfig) *SanctionService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DurationDays <= 0 {
		cfg.DurationDays = DefaultSanctionDays
	}
	return &SanctionService{
		sanctions:    cfg.Sanctions,
		sweeper:      cfg.Sweeper,
		durationDays: cfg.DurationDays,
		idGenerator:  cfg.IDGenerator,
		now:          cfg.Now,
		location:     cfg.Location,
		logger:       defaultLogger(cfg.Logger),
		blocks:       newBlockCache(0, 0, cfg.Now),
	}
}

// SetSweeper attaches the lifecycle engine after construction. The two
// engines reference each other, so one side is wired late.
func (s *SanctionService) SetSweeper(sweeper ReservationSweeper) {
	if s != nil {
		s.sweeper = sweeper
	}
}

func (s *SanctionService) today() civil.Date {
	return civil.DateOf(s.now(), s.location)
}

// IsBlocked reports whether some sanction of the participant contains
// atDate, comparing calendar dates inclusively. When blocked, the governing
// sanction and the latest end date among all covering sanctions are returned.
func (s *SanctionService) IsBlocked(ctx context.Context, participantID string, atDate civil.Date) (BlockStatus, error) {
	if s == nil || s.sanctions == nil {
		return BlockStatus{}, fmt.Errorf("sanction store not configured")
	}
	if participantID == "" {
		vErr := &ValidationError{}
		vErr.add("participant", "participant is required")
		return BlockStatus{}, vErr
	}
	if atDate.IsZero() {
		atDate = s.today()
	}

	key := participantID + "|" + atDate.String()
	if cached, ok := s.blocks.Get(key); ok {
		return cached, nil
	}

	covering, err := s.sanctions.ListSanctions(ctx, SanctionStoreFilter{
		ParticipantID: participantID,
		ActiveOn:      &atDate,
	})
	if err != nil {
		return BlockStatus{}, err
	}

	status := BlockStatus{}
	if len(covering) > 0 {
		status.Blocked = true
		status.Governing = covering[0]
		status.ReleaseDate = covering[0].EndDate
		for _, sanction := range covering[1:] {
			if sanction.EndDate.After(status.ReleaseDate) {
				status.ReleaseDate = sanction.EndDate
			}
			if sanction.StartDate.Before(status.Governing.StartDate) {
				status.Governing = sanction
			}
		}
	}

	s.blocks.Store(key, status)
	return status, nil
}

// ApplySanction creates a sanction covering [start, start+durationDays].
// An interval overlapping an existing sanction of the same participant is
// rejected with ErrAlreadyExists rather than merged.
func (s *SanctionService) ApplySanction(ctx context.Context, participantID string, start civil.Date, durationDays int) (Sanction, error) {
	if s == nil || s.sanctions == nil {
		return Sanction{}, fmt.Errorf("sanction store not configured")
	}

	vErr := &ValidationError{}
	if participantID == "" {
		vErr.add("participant", "participant is required")
	}
	if start.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if durationDays <= 0 {
		durationDays = s.durationDays
	}
	if vErr.HasErrors() {
		return Sanction{}, vErr
	}

	end := start.AddDays(durationDays)

	existing, err := s.sanctions.ListSanctions(ctx, SanctionStoreFilter{ParticipantID: participantID})
	if err != nil {
		return Sanction{}, err
	}
	for _, sanction := range existing {
		if intervalsOverlap(start, end, sanction.StartDate, sanction.EndDate) {
			return Sanction{}, fmt.Errorf("sanction overlaps %s..%s: %w", sanction.StartDate, sanction.EndDate, ErrAlreadyExists)
		}
	}

	created, err := s.sanctions.CreateSanction(ctx, Sanction{
		ID:            s.idGenerator(),
		ParticipantID: participantID,
		StartDate:     start,
		EndDate:       end,
		Reason:        "no attendance recorded",
		CreatedAt:     s.now(),
	})
	if err != nil {
		// The store holds the authoritative overlap guard; a concurrent
		// batch run losing the race lands here.
		if errors.Is(err, persistence.ErrDuplicate) {
			return Sanction{}, fmt.Errorf("sanction already exists: %w", ErrAlreadyExists)
		}
		return Sanction{}, mapSanctionStoreError(err)
	}

	s.blocks.Invalidate()
	serviceLogger(ctx, s.logger, "sanction", "apply",
		"participant_id", participantID, "start", start.String(), "end", end.String()).Info("sanction applied")
	return created, nil
}

// LiftExpired removes every sanction whose end date has passed. Running it
// twice with the same clock removes nothing the second time.
func (s *SanctionService) LiftExpired(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.sanctions == nil {
		return 0, fmt.Errorf("sanction store not configured")
	}

	today := civil.DateOf(now, s.location)
	lifted, err := s.sanctions.DeleteSanctionsEndedBefore(ctx, today)
	if err != nil {
		return 0, mapSanctionStoreError(err)
	}
	if lifted > 0 {
		s.blocks.Invalidate()
		serviceLogger(ctx, s.logger, "sanction", "lift").Info("expired sanctions lifted", "count", lifted)
	}
	return lifted, nil
}

// ProcessDueReservations runs the daily reconciliation: lift expired
// sanctions, sweep overdue reservations, then sanction every participant of
// each reservation that became a no-show. Item failures are reported in the
// summary; the batch keeps going.
func (s *SanctionService) ProcessDueReservations(ctx context.Context, now time.Time) (BatchSummary, error) {
	if s == nil || s.sanctions == nil {
		return BatchSummary{}, fmt.Errorf("sanction store not configured")
	}
	if s.sweeper == nil {
		return BatchSummary{}, fmt.Errorf("reservation sweeper not configured")
	}
	logger := serviceLogger(ctx, s.logger, "sanction", "reconcile")

	summary := BatchSummary{}

	lifted, err := s.LiftExpired(ctx, now)
	if err != nil {
		logger.Warn("lifting expired sanctions failed", "error", err, "error_kind", ErrorKind(err))
		summary.Failures = append(summary.Failures, BatchFailure{Err: err})
	}
	summary.SanctionsLifted = lifted

	results, sweepFailures, err := s.sweeper.SweepExpired(ctx, now)
	if err != nil {
		return summary, err
	}
	summary.ReservationsProcessed = len(results)
	summary.Failures = append(summary.Failures, sweepFailures...)

	today := civil.DateOf(now, s.location)
	for _, result := range results {
		if result.NewStatus != booking.StatusNoShow {
			continue
		}
		for _, participantID := range result.ParticipantIDs {
			_, err := s.ApplySanction(ctx, participantID, today, s.durationDays)
			if errors.Is(err, ErrAlreadyExists) {
				// Already sanctioned; a rerun or an overlapping no-show.
				continue
			}
			if err != nil {
				logger.Warn("sanction application failed",
					"reservation_id", result.ReservationID, "participant_id", participantID,
					"error", err, "error_kind", ErrorKind(err))
				summary.Failures = append(summary.Failures, BatchFailure{
					ReservationID: result.ReservationID,
					ParticipantID: participantID,
					Err:           err,
				})
				continue
			}
			summary.SanctionsApplied++
		}
	}

	logger.Info("reconciliation finished",
		"reservations_processed", summary.ReservationsProcessed,
		"sanctions_applied", summary.SanctionsApplied,
		"sanctions_lifted", summary.SanctionsLifted,
		"failures", len(summary.Failures))
	return summary, nil
}

// OnNoShow implements NoShowPolicy: a manual no-show mark sanctions every
// participant of the reservation starting today. Overlaps with existing
// sanctions are skipped, not errors.
func (s *SanctionService) OnNoShow(ctx context.Context, reservation Reservation) error {
	if s == nil || s.sanctions == nil {
		return fmt.Errorf("sanction store not configured")
	}

	today := s.today()
	for _, participant := range reservation.Participants {
		_, err := s.ApplySanction(ctx, participant.ParticipantID, today, s.durationDays)
		if err != nil && !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// ValidateSanctionDates checks manually edited sanction bounds against
// today: the interval must start today or later and end strictly after both
// today and its start.
func (s *SanctionService) ValidateSanctionDates(newStart, newEnd, today civil.Date) error {
	vErr := &ValidationError{}
	if newStart.IsZero() {
		vErr.add("start_date", "start date is required")
	} else if newStart.Before(today) {
		vErr.add("start_date", "start date cannot be in the past")
	}
	if newEnd.IsZero() {
		vErr.add("end_date", "end date is required")
	} else {
		if !newEnd.After(today) {
			vErr.add("end_date", "end date must be after today")
		}
		if !newStart.IsZero() && !newEnd.After(newStart) {
			vErr.add("end_date", "end date must be after the start date")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// UpdateSanctionDates rewrites the interval of an existing sanction after
// validating the new bounds.
func (s *SanctionService) UpdateSanctionDates(ctx context.Context, sanctionID string, newStart, newEnd civil.Date) (Sanction, error) {
	if s == nil || s.sanctions == nil {
		return Sanction{}, fmt.Errorf("sanction store not configured")
	}

	if err := s.ValidateSanctionDates(newStart, newEnd, s.today()); err != nil {
		return Sanction{}, err
	}

	sanction, err := s.sanctions.GetSanction(ctx, sanctionID)
	if err != nil {
		return Sanction{}, mapSanctionStoreError(err)
	}

	sanction.StartDate = newStart
	sanction.EndDate = newEnd
	updated, err := s.sanctions.UpdateSanction(ctx, sanction)
	if err != nil {
		return Sanction{}, mapSanctionStoreError(err)
	}

	s.blocks.Invalidate()
	return updated, nil
}

// intervalsOverlap reports whether two closed date intervals intersect.
func intervalsOverlap(aStart, aEnd, bStart, bEnd civil.Date) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func mapSanctionStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("end_date", "end date must be after the start date")
		return vErr
	}
	return err
}
