package testfixtures

import (
	"time"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/civil"
)

// ReferenceTime is the shared starting instant for test clocks:
// 2025-06-01 09:00 UTC.
func ReferenceTime() time.Time {
	return time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
}

// RoomA101 is the canonical test room id.
const RoomA101 = "room-a101-x"

// ParticipantCI is the canonical test participant CI.
const ParticipantCI = "111"

// MorningSlots returns the standard pair of consecutive morning slots
// (08:00-09:00 and 09:00-10:00) for the given room.
func MorningSlots(roomID string) []application.Slot {
	return []application.Slot{
		{ID: "slot-0800", RoomID: roomID, Start: 8 * 60, End: 9 * 60, Available: true},
		{ID: "slot-0900", RoomID: roomID, Start: 9 * 60, End: 10 * 60, Available: true},
	}
}

// Date is shorthand for civil.MustParseDate in fixture setups.
func Date(value string) civil.Date {
	return civil.MustParseDate(value)
}
