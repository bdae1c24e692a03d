package booking

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func slotAt(id string, start, end int) Slot {
	return Slot{ID: id, RoomID: "room-1", Start: start, End: end, Available: true}
}

func TestValidateSlotSelection(t *testing.T) {
	morning := slotAt("s1", 8*60, 9*60)
	next := slotAt("s2", 9*60, 10*60)
	late := slotAt("s3", 11*60, 12*60)

	t.Run("single slot passes through", func(t *testing.T) {
		ordered, err := ValidateSlotSelection([]Slot{morning})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ordered) != 1 || ordered[0].ID != "s1" {
			t.Fatalf("unexpected result: %v", ordered)
		}
	})

	t.Run("consecutive pair is ordered chronologically", func(t *testing.T) {
		ordered, err := ValidateSlotSelection([]Slot{morning, next})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ordered[0].ID != "s1" || ordered[1].ID != "s2" {
			t.Fatalf("unexpected order: %v", ordered)
		}
	})

	t.Run("input order does not matter", func(t *testing.T) {
		ordered, err := ValidateSlotSelection([]Slot{next, morning})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ordered[0].ID != "s1" || ordered[1].ID != "s2" {
			t.Fatalf("unexpected order: %v", ordered)
		}
	})

	t.Run("non-adjacent pair is rejected", func(t *testing.T) {
		if _, err := ValidateSlotSelection([]Slot{morning, late}); !errors.Is(err, ErrSlotSelection) {
			t.Fatalf("expected ErrSlotSelection, got %v", err)
		}
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		if _, err := ValidateSlotSelection(nil); !errors.Is(err, ErrSlotSelection) {
			t.Fatalf("expected ErrSlotSelection, got %v", err)
		}
	})

	t.Run("more than the slot limit is rejected", func(t *testing.T) {
		_, err := ValidateSlotSelection([]Slot{morning, next, late})
		if !errors.Is(err, ErrSlotSelection) {
			t.Fatalf("expected ErrSlotSelection, got %v", err)
		}
		want := fmt.Sprintf("at most %d slots", MaxSlotsPerReservation)
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected message to mention %q, got %q", want, err.Error())
		}
	})

	t.Run("duplicate slot is rejected", func(t *testing.T) {
		if _, err := ValidateSlotSelection([]Slot{morning, morning}); !errors.Is(err, ErrSlotSelection) {
			t.Fatalf("expected ErrSlotSelection, got %v", err)
		}
	})

	t.Run("inverted slot interval is rejected", func(t *testing.T) {
		if _, err := ValidateSlotSelection([]Slot{slotAt("bad", 9*60, 8*60)}); !errors.Is(err, ErrSlotSelection) {
			t.Fatalf("expected ErrSlotSelection, got %v", err)
		}
	})
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusActive, StatusCancelled},
		{StatusActive, StatusNoShow},
		{StatusActive, StatusCompleted},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	terminals := []Status{StatusCancelled, StatusNoShow, StatusCompleted}
	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, to := range []Status{StatusActive, StatusCancelled, StatusNoShow, StatusCompleted} {
			if CanTransition(from, to) {
				t.Fatalf("expected %s -> %s to be rejected", from, to)
			}
		}
	}

	if CanTransition(StatusActive, StatusActive) {
		t.Fatalf("expected self transition to be rejected")
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"activa":         StatusActive,
		"activo":         StatusActive,
		"cancelada":      StatusCancelled,
		"cancelado":      StatusCancelled,
		"sin_asistencia": StatusNoShow,
		"finalizada":     StatusCompleted,
	}
	for value, want := range cases {
		got, ok := ParseStatus(value)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", value, got, ok, want)
		}
	}
	if _, ok := ParseStatus("pendiente"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}
