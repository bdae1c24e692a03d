// Package booking holds the pure reservation rules: slot selection and the
// reservation status machine. It performs no I/O so the application services
// can exercise the rules without touching persistence.
package booking

import (
	"errors"
	"fmt"
)

// ErrSlotSelection is wrapped by every slot-selection failure so callers can
// classify the whole family with errors.Is.
var ErrSlotSelection = errors.New("booking: invalid slot selection")

// Slot is a bookable interval of a room on a specific date. Start and End
// are minutes since midnight; two slots are consecutive when one ends where
// the other begins.
type Slot struct {
	ID        string
	RoomID    string
	Start     int
	End       int
	Available bool
}

// MaxSlotsPerReservation bounds how many slots one reservation may span.
const MaxSlotsPerReservation = 2

// ValidateSlotSelection checks that the requested slots form a valid
// reservation span: one slot, or two consecutive slots in either input
// order. The returned slice is in chronological order.
func ValidateSlotSelection(slots []Slot) ([]Slot, error) {
	if len(slots) > MaxSlotsPerReservation {
		return nil, selectionError(fmt.Sprintf("a reservation spans at most %d slots", MaxSlotsPerReservation))
	}
	switch len(slots) {
	case 0:
		return nil, selectionError("at least one slot is required")
	case 1:
		if err := validateSlot(slots[0]); err != nil {
			return nil, err
		}
		return []Slot{slots[0]}, nil
	}

	first, second := slots[0], slots[1]
	if err := validateSlot(first); err != nil {
		return nil, err
	}
	if err := validateSlot(second); err != nil {
		return nil, err
	}
	if first.ID == second.ID {
		return nil, selectionError("the same slot was selected twice")
	}
	if second.Start > first.Start {
		first, second = second, first
	}
	// first now starts later; chronological order is second, first.
	if second.End != first.Start {
		return nil, selectionError("selected slots are not consecutive")
	}
	return []Slot{second, first}, nil
}

func validateSlot(slot Slot) error {
	if slot.ID == "" {
		return selectionError("slot is missing an identifier")
	}
	if slot.End <= slot.Start {
		return selectionError("slot end must be after its start")
	}
	return nil
}

func selectionError(reason string) error {
	return &slotSelectionError{reason: reason}
}

type slotSelectionError struct {
	reason string
}

func (e *slotSelectionError) Error() string {
	return "booking: " + e.reason
}

func (e *slotSelectionError) Unwrap() error {
	return ErrSlotSelection
}
