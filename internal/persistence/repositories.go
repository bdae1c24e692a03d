package persistence

import (
	"context"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
)

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	ParticipantID string
	Statuses      []booking.Status
	DateFrom      *civil.Date
	DateTo        *civil.Date
	// DueBefore selects reservations whose date is strictly earlier than
	// the given day; the sweep uses it to find overdue active bookings.
	DueBefore *civil.Date
}

// ReservationRepository stores reservation records and attendance marks.
//
// CreateReservation must check availability and insert atomically: when an
// active reservation already occupies any of the requested (room, date,
// slot) combinations the call fails with ErrDuplicate and writes nothing.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// UpdateReservationStatus moves a reservation between states. The
	// expected current status guards against concurrent transitions; a
	// mismatch reports ErrNotFound.
	UpdateReservationStatus(ctx context.Context, id string, from, to booking.Status) error
	UpdateReservationDate(ctx context.Context, id string, date civil.Date, slotIDs []string) error
	SetAttendance(ctx context.Context, reservationID, participantID string, mark booking.Attendance) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// SanctionFilter narrows sanction queries.
type SanctionFilter struct {
	ParticipantID string
	// ActiveOn limits results to sanctions whose closed interval contains
	// the given day.
	ActiveOn *civil.Date
}

// SanctionRepository stores sanction intervals.
//
// CreateSanction must be atomic per participant: when an existing sanction
// for the same participant overlaps the new interval the call fails with
// ErrDuplicate, which keeps concurrent reconciliation runs from stacking
// duplicate sanctions.
type SanctionRepository interface {
	CreateSanction(ctx context.Context, sanction Sanction) error
	GetSanction(ctx context.Context, id string) (Sanction, error)
	UpdateSanction(ctx context.Context, sanction Sanction) error
	ListSanctions(ctx context.Context, filter SanctionFilter) ([]Sanction, error)
	// DeleteSanctionsEndedBefore removes sanctions whose end date is
	// strictly earlier than the given day and returns how many were removed.
	DeleteSanctionsEndedBefore(ctx context.Context, day civil.Date) (int, error)
}

// RoomRepository exposes the room catalog.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	GetRoomByName(ctx context.Context, name, building string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// ParticipantRepository exposes the participant directory.
type ParticipantRepository interface {
	GetParticipant(ctx context.Context, id string) (Participant, error)
	ListParticipants(ctx context.Context) ([]Participant, error)
}

// SlotRepository exposes the slot catalog consumed when validating bookings.
type SlotRepository interface {
	// QuerySlots returns the candidate slots for a room on a date together
	// with their current availability.
	QuerySlots(ctx context.Context, roomID string, date civil.Date) ([]Slot, error)
}
