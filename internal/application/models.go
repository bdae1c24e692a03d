package application

import (
	"time"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
)

// Principal represents the already-authenticated identity invoking a service
// method. The engines receive it explicitly on every call; they never read
// session state from anywhere else.
type Principal struct {
	ParticipantID string
	IsAdmin       bool
}

// Room is the catalog view of a bookable room.
type Room struct {
	ID       string
	Name     string
	Building string
	Capacity int
	Category string
}

// Slot is a bookable interval of a room on a date. Start and End are
// minutes since midnight.
type Slot struct {
	ID        string
	RoomID    string
	Start     int
	End       int
	Available bool
}

// ParticipantAttendance pairs a participant with their attendance mark.
type ParticipantAttendance struct {
	ParticipantID string
	Attendance    booking.Attendance
}

// Reservation is a booking of one or two consecutive slots by a set of
// participants.
type Reservation struct {
	ID           string
	RoomID       string
	Date         civil.Date
	SlotIDs      []string
	Status       booking.Status
	Participants []ParticipantAttendance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPresentParticipant reports whether any participant is marked present.
func (r Reservation) HasPresentParticipant() bool {
	for _, p := range r.Participants {
		if p.Attendance == booking.AttendancePresent {
			return true
		}
	}
	return false
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal      Principal
	RoomID         string
	Date           civil.Date
	SlotIDs        []string
	ParticipantIDs []string
}

// Sanction is a closed calendar-date interval during which a participant may
// not create reservations.
type Sanction struct {
	ID            string
	ParticipantID string
	StartDate     civil.Date
	EndDate       civil.Date
	Reason        string
	CreatedAt     time.Time
}

// BlockStatus is the result of an eligibility check.
type BlockStatus struct {
	Blocked bool
	// Governing is the sanction that covers the queried day, when blocked.
	Governing Sanction
	// ReleaseDate is the maximum end date across all sanctions covering the
	// queried day; the participant may book again the day after.
	ReleaseDate civil.Date
}

// SweepResult reports one reservation transitioned by the expiry sweep.
type SweepResult struct {
	ReservationID  string
	NewStatus      booking.Status
	ParticipantIDs []string
}

// BatchFailure records one item the reconciliation batch could not process.
type BatchFailure struct {
	ReservationID string
	ParticipantID string
	Err           error
}

// BatchSummary aggregates the outcome of one reconciliation run.
type BatchSummary struct {
	ReservationsProcessed int
	SanctionsApplied      int
	SanctionsLifted       int
	Failures              []BatchFailure
}
