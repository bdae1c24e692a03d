package persistence

import (
	"time"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
)

// Room is a bookable room. Rooms are identified to users by the
// (Name, Building) pair; ID is the surrogate key referenced elsewhere.
type Room struct {
	ID        string
	Name      string
	Building  string
	Capacity  int
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot is a bookable interval of a room on a specific date. Start and End
// are minutes since midnight.
type Slot struct {
	ID        string
	RoomID    string
	Date      civil.Date
	Start     int
	End       int
	Available bool
}

// Participant is a person who may book rooms. The ID is their national
// identity number (CI).
type Participant struct {
	ID        string
	FirstName string
	LastName  string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationParticipant pairs a participant with their attendance mark on
// one reservation.
type ReservationParticipant struct {
	ParticipantID string
	Attendance    booking.Attendance
}

// Reservation is a booking of one or two consecutive slots of a room on a
// date by a non-empty set of participants.
type Reservation struct {
	ID           string
	RoomID       string
	Date         civil.Date
	SlotIDs      []string
	Status       booking.Status
	Participants []ReservationParticipant
	CreatedAt    time.Time
	UpdatedAt    time.Time
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
