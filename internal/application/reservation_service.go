package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// ReservationStore captures the persistence interactions needed by the
// lifecycle engine.
type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, from, to booking.Status) error
	UpdateReservationDate(ctx context.Context, id string, date civil.Date, slotIDs []string) error
	SetAttendance(ctx context.Context, reservationID, participantID string, mark booking.Attendance) error
	ListReservations(ctx context.Context, filter ReservationStoreFilter) ([]Reservation, error)
}

// ReservationStoreFilter narrows queries issued to the reservation store.
type ReservationStoreFilter struct {
	ParticipantID string
	Statuses      []booking.Status
	DateFrom      *civil.Date
	DateTo        *civil.Date
	DueBefore     *civil.Date
}

// ParticipantDirectory exposes participant lookup operations.
type ParticipantDirectory interface {
	MissingParticipantIDs(ctx context.Context, ids []string) ([]string, error)
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	RoomExists(ctx context.Context, id string) (bool, error)
}

// SlotCatalog returns the candidate slots for a room on a date.
type SlotCatalog interface {
	QuerySlots(ctx context.Context, roomID string, date civil.Date) ([]Slot, error)
}

// SanctionChecker answers booking eligibility questions; the sanction
// eligibility engine implements it.
type SanctionChecker interface {
	IsBlocked(ctx context.Context, participantID string, atDate civil.Date) (BlockStatus, error)
}

// NoShowPolicy is notified when a reservation is manually marked as a
// no-show so a sanction can be evaluated.
type NoShowPolicy interface {
	OnNoShow(ctx context.Context, reservation Reservation) error
}

// SanctionBlockedError reports which participant is ineligible and until when.
type SanctionBlockedError struct {
	ParticipantID string
	ReleaseDate   civil.Date
}

// Error implements the error interface.
func (e *SanctionBlockedError) Error() string {
	return fmt.Sprintf("participant %s is sanctioned until %s", e.ParticipantID, e.ReleaseDate)
}

// Unwrap ties the error to ErrSanctionBlocked for errors.Is checks.
func (e *SanctionBlockedError) Unwrap() error {
	return ErrSanctionBlocked
}

// ReservationService orchestrates validation, eligibility checks and
// persistence for the reservation lifecycle.
type ReservationService struct {
	reservations ReservationStore
	participants ParticipantDirectory
	rooms        RoomCatalog
	slots        SlotCatalog
	sanctions    SanctionChecker
	noShowPolicy NoShowPolicy
	editWindow   int
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// ReservationServiceConfig wires the lifecycle engine dependencies.
type ReservationServiceConfig struct {
	Reservations ReservationStore
	Participants ParticipantDirectory
	Rooms        RoomCatalog
	Slots        SlotCatalog
	Sanctions    SanctionChecker
	NoShowPolicy NoShowPolicy
	// EditWindowDays is the minimum number of days between today and the
	// new date of an edited reservation. Defaults to 2.
	EditWindowDays int
	IDGenerator    func() string
	Now            func() time.Time
	Location       *time.Location
	Logger         *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.EditWindowDays <= 0 {
		cfg.EditWindowDays = 2
	}
	return &ReservationService{
		reservations: cfg.Reservations,
		participants: cfg.Participants,
		rooms:        cfg.Rooms,
		slots:        cfg.Slots,
		sanctions:    cfg.Sanctions,
		noShowPolicy: cfg.NoShowPolicy,
		editWindow:   cfg.EditWindowDays,
		idGenerator:  cfg.IDGenerator,
		now:          cfg.Now,
		location:     cfg.Location,
		logger:       defaultLogger(cfg.Logger),
	}
}

// SetNoShowPolicy attaches the sanction hook after construction. The two
// engines reference each other, so one side is wired late.
func (s *ReservationService) SetNoShowPolicy(policy NoShowPolicy) {
	if s != nil {
		s.noShowPolicy = policy
	}
}

func (s *ReservationService) today() civil.Date {
	return civil.DateOf(s.now(), s.location)
}

// ValidateSlotSelection checks that the requested slots form a valid span of
// one or two consecutive slots and returns them in chronological order.
func (s *ReservationService) ValidateSlotSelection(slots []Slot) ([]Slot, error) {
	candidates := make([]booking.Slot, 0, len(slots))
	for _, slot := range slots {
		candidates = append(candidates, toBookingSlot(slot))
	}

	ordered, err := booking.ValidateSlotSelection(candidates)
	if err != nil {
		if errors.Is(err, booking.ErrSlotSelection) {
			return nil, policyViolation(err.Error())
		}
		return nil, err
	}

	result := make([]Slot, 0, len(ordered))
	for _, slot := range ordered {
		result = append(result, fromBookingSlot(slot))
	}
	return result, nil
}

// CreateReservation validates slot selection, participant eligibility and
// availability before persisting a new active reservation.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (Reservation, error) {
	if s == nil || s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}
	logger := serviceLogger(ctx, s.logger, "reservation", "create",
		"actor", params.Principal.ParticipantID, "room_id", params.RoomID, "date", params.Date.String())

	vErr := &ValidationError{}
	today := s.today()

	if params.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	} else if params.Date.Before(today) {
		vErr.add("date", "date must be today or later")
	}
	participantIDs := uniqueStrings(params.ParticipantIDs)
	if len(participantIDs) == 0 {
		vErr.add("participants", "at least one participant is required")
	}
	if len(params.SlotIDs) == 0 {
		vErr.add("slots", "at least one slot is required")
	}
	if vErr.HasErrors() {
		return Reservation{}, vErr
	}

	if err := s.ensureParticipantsExist(ctx, participantIDs); err != nil {
		return Reservation{}, err
	}
	if err := s.ensureRoomExists(ctx, params.RoomID); err != nil {
		return Reservation{}, err
	}

	if s.sanctions != nil {
		for _, participantID := range participantIDs {
			status, err := s.sanctions.IsBlocked(ctx, participantID, today)
			if err != nil {
				return Reservation{}, err
			}
			if status.Blocked {
				logger.Info("reservation rejected", "reason", "sanction", "participant_id", participantID)
				return Reservation{}, &SanctionBlockedError{ParticipantID: participantID, ReleaseDate: status.ReleaseDate}
			}
		}
	}

	ordered, err := s.resolveSlots(ctx, params.RoomID, params.Date, params.SlotIDs)
	if err != nil {
		return Reservation{}, err
	}

	createdAt := s.now()
	reservation := Reservation{
		ID:        s.idGenerator(),
		RoomID:    params.RoomID,
		Date:      params.Date,
		SlotIDs:   slotIDs(ordered),
		Status:    booking.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	for _, participantID := range participantIDs {
		reservation.Participants = append(reservation.Participants, ParticipantAttendance{
			ParticipantID: participantID,
			Attendance:    booking.AttendanceUnset,
		})
	}

	persisted, err := s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		return Reservation{}, mapReservationStoreError(err)
	}

	logger.Info("reservation created", "reservation_id", persisted.ID, "slots", len(persisted.SlotIDs))
	return persisted, nil
}

// UpdateStatus applies one lifecycle transition on behalf of principal,
// enforcing the transition table and its date and attendance preconditions.
func (s *ReservationService) UpdateStatus(ctx context.Context, reservationID string, newStatus booking.Status, principal Principal) (Reservation, error) {
	if s == nil || s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationStoreError(err)
	}

	if !booking.CanTransition(reservation.Status, newStatus) {
		return Reservation{}, policyViolation(fmt.Sprintf("transition %s -> %s is not allowed", reservation.Status, newStatus))
	}

	today := s.today()
	switch newStatus {
	case booking.StatusCancelled:
		if !reservation.Date.After(today) {
			return Reservation{}, policyViolation("only future reservations can be cancelled")
		}
	case booking.StatusNoShow:
		if !today.After(reservation.Date) {
			return Reservation{}, policyViolation("reservation date has not passed yet")
		}
		if reservation.HasPresentParticipant() {
			return Reservation{}, policyViolation("attendance was recorded; close the reservation instead")
		}
	case booking.StatusCompleted:
		if !today.After(reservation.Date) {
			return Reservation{}, policyViolation("reservation date has not passed yet")
		}
		if !reservation.HasPresentParticipant() {
			return Reservation{}, policyViolation("no attendance recorded; mark the reservation as no-show instead")
		}
	}

	if err := s.reservations.UpdateReservationStatus(ctx, reservationID, reservation.Status, newStatus); err != nil {
		return Reservation{}, mapReservationStoreError(err)
	}
	reservation.Status = newStatus

	logger := serviceLogger(ctx, s.logger, "reservation", "update_status",
		"actor", principal.ParticipantID, "reservation_id", reservationID, "status", string(newStatus))
	logger.Info("reservation status updated")

	// The transition is already committed; a sanction failure must not make
	// the caller believe the no-show was rolled back.
	if newStatus == booking.StatusNoShow && s.noShowPolicy != nil {
		if err := s.noShowPolicy.OnNoShow(ctx, reservation); err != nil {
			logger.Warn("sanction application failed", "error", err, "error_kind", ErrorKind(err))
		}
	}

	return reservation, nil
}

// RecordAttendance stores a per-participant attendance mark on behalf of
// principal. Marks never drive a status transition; the sweep and manual
// closes consume them.
func (s *ReservationService) RecordAttendance(ctx context.Context, reservationID, participantID string, present bool, principal Principal) error {
	if s == nil || s.reservations == nil {
		return fmt.Errorf("reservation store not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return mapReservationStoreError(err)
	}

	if reservation.Status != booking.StatusActive && reservation.Status != booking.StatusCompleted {
		return policyViolation(fmt.Sprintf("attendance cannot be recorded while status is %s", reservation.Status))
	}

	found := false
	for _, p := range reservation.Participants {
		if p.ParticipantID == participantID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("participant %s is not part of reservation %s: %w", participantID, reservationID, ErrNotFound)
	}

	mark := booking.AttendanceAbsent
	if present {
		mark = booking.AttendancePresent
	}

	if err := s.reservations.SetAttendance(ctx, reservationID, participantID, mark); err != nil {
		return mapReservationStoreError(err)
	}

	serviceLogger(ctx, s.logger, "reservation", "record_attendance",
		"actor", principal.ParticipantID, "reservation_id", reservationID,
		"participant_id", participantID, "attendance", string(mark)).Info("attendance recorded")
	return nil
}

// EditDate moves an active reservation to a new date on behalf of principal.
// The new date must be at least the configured number of days in the future.
func (s *ReservationService) EditDate(ctx context.Context, reservationID string, newDate civil.Date, principal Principal) (Reservation, error) {
	if s == nil || s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	if newDate.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return Reservation{}, vErr
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationStoreError(err)
	}

	if reservation.Status != booking.StatusActive {
		return Reservation{}, policyViolation(fmt.Sprintf("only active reservations can be rescheduled, status is %s", reservation.Status))
	}

	earliest := s.today().AddDays(s.editWindow)
	if newDate.Before(earliest) {
		return Reservation{}, policyViolation(fmt.Sprintf("new date must be %s or later", earliest))
	}

	if err := s.reservations.UpdateReservationDate(ctx, reservationID, newDate, reservation.SlotIDs); err != nil {
		return Reservation{}, mapReservationStoreError(err)
	}
	reservation.Date = newDate

	serviceLogger(ctx, s.logger, "reservation", "edit_date",
		"actor", principal.ParticipantID, "reservation_id", reservationID,
		"date", newDate.String()).Info("reservation rescheduled")
	return reservation, nil
}

// SweepExpired transitions every overdue active reservation: to no-show when
// nobody was marked present, to completed otherwise. A second sweep with the
// same clock finds nothing left to do. Per-item failures do not stop the
// sweep.
func (s *ReservationService) SweepExpired(ctx context.Context, now time.Time) ([]SweepResult, []BatchFailure, error) {
	if s == nil || s.reservations == nil {
		return nil, nil, fmt.Errorf("reservation store not configured")
	}
	logger := serviceLogger(ctx, s.logger, "reservation", "sweep")

	today := civil.DateOf(now, s.location)
	due, err := s.reservations.ListReservations(ctx, ReservationStoreFilter{
		Statuses:  []booking.Status{booking.StatusActive},
		DueBefore: &today,
	})
	if err != nil {
		return nil, nil, mapReservationStoreError(err)
	}

	results := make([]SweepResult, 0, len(due))
	var failures []BatchFailure
	for _, reservation := range due {
		target := booking.StatusNoShow
		if reservation.HasPresentParticipant() {
			target = booking.StatusCompleted
		}

		err := s.reservations.UpdateReservationStatus(ctx, reservation.ID, booking.StatusActive, target)
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			// Another sweep got there first.
			continue
		}
		if err != nil {
			logger.Warn("sweep item failed", "reservation_id", reservation.ID,
				"error", err, "error_kind", ErrorKind(err))
			failures = append(failures, BatchFailure{ReservationID: reservation.ID, Err: err})
			continue
		}

		results = append(results, SweepResult{
			ReservationID:  reservation.ID,
			NewStatus:      target,
			ParticipantIDs: participantIDs(reservation),
		})
	}

	logger.Info("sweep finished", "transitioned", len(results), "failed", len(failures))
	return results, failures, nil
}

func (s *ReservationService) ensureParticipantsExist(ctx context.Context, ids []string) error {
	if s.participants == nil {
		return nil
	}
	missing, err := s.participants.MissingParticipantIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("participants", fmt.Sprintf("unknown participant ids: %s", strings.Join(missing, ", ")))
	return vErr
}

func (s *ReservationService) ensureRoomExists(ctx context.Context, roomID string) error {
	if s.rooms == nil {
		return nil
	}
	exists, err := s.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("room_id", "room does not exist")
	return vErr
}

// resolveSlots maps requested slot ids onto the catalog for the room and
// date, validates the selection and checks current availability.
func (s *ReservationService) resolveSlots(ctx context.Context, roomID string, date civil.Date, requested []string) ([]Slot, error) {
	if s.slots == nil {
		return nil, fmt.Errorf("slot catalog not configured")
	}

	catalog, err := s.slots.QuerySlots(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Slot, len(catalog))
	for _, slot := range catalog {
		byID[slot.ID] = slot
	}

	selected := make([]Slot, 0, len(requested))
	for _, id := range requested {
		slot, ok := byID[id]
		if !ok {
			vErr := &ValidationError{}
			vErr.add("slots", fmt.Sprintf("slot %s is not offered for this room and date", id))
			return nil, vErr
		}
		selected = append(selected, slot)
	}

	ordered, err := s.ValidateSlotSelection(selected)
	if err != nil {
		return nil, err
	}

	for _, slot := range ordered {
		if !slot.Available {
			return nil, fmt.Errorf("slot %s is no longer available: %w", slot.ID, ErrSlotConflict)
		}
	}
	return ordered, nil
}

func toBookingSlot(slot Slot) booking.Slot {
	return booking.Slot{ID: slot.ID, RoomID: slot.RoomID, Start: slot.Start, End: slot.End, Available: slot.Available}
}

func fromBookingSlot(slot booking.Slot) Slot {
	return Slot{ID: slot.ID, RoomID: slot.RoomID, Start: slot.Start, End: slot.End, Available: slot.Available}
}

func slotIDs(slots []Slot) []string {
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.ID)
	}
	return ids
}

func participantIDs(reservation Reservation) []string {
	ids := make([]string, 0, len(reservation.Participants))
	for _, p := range reservation.Participants {
		ids = append(ids, p.ParticipantID)
	}
	return ids
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func mapReservationStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ErrSlotConflict) {
		return err
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("room, date and slot are already booked: %w", ErrSlotConflict)
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("participants", "related records are missing")
		return vErr
	}
	return err
}
