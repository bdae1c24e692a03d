package civil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("accepts ISO dates", func(t *testing.T) {
		d, err := ParseDate("2025-06-10")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Year != 2025 || d.Month != time.June || d.Day != 10 {
			t.Fatalf("unexpected date: %v", d)
		}
	})

	t.Run("rejects legacy formats", func(t *testing.T) {
		for _, value := range []string{"10/06/2025", "10-06-2025", "June 10, 2025", "2025-6-1", ""} {
			if _, err := ParseDate(value); err == nil {
				t.Fatalf("expected error for %q", value)
			}
		}
	})
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UYT", -3*60*60)
	late := time.Date(2025, time.June, 10, 23, 30, 0, 0, loc)

	if got := DateOf(late, loc); got != MustParseDate("2025-06-10") {
		t.Fatalf("expected local calendar day, got %v", got)
	}
	// The same instant viewed in UTC falls on the next day.
	if got := DateOf(late, time.UTC); got != MustParseDate("2025-06-11") {
		t.Fatalf("expected UTC calendar day, got %v", got)
	}
}

func TestDateComparisons(t *testing.T) {
	a := MustParseDate("2025-01-01")
	b := MustParseDate("2025-03-01")

	if !a.Before(b) || b.Before(a) {
		t.Fatalf("expected %v before %v", a, b)
	}
	if !b.After(a) {
		t.Fatalf("expected %v after %v", b, a)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected equal comparison")
	}
}

func TestAddDays(t *testing.T) {
	start := MustParseDate("2025-06-11")

	if got := start.AddDays(60); got != MustParseDate("2025-08-10") {
		t.Fatalf("expected 2025-08-10, got %v", got)
	}
	if got := start.AddDays(-11); got != MustParseDate("2025-05-31") {
		t.Fatalf("expected month rollover, got %v", got)
	}
	if got := start.AddDays(60).DaysSince(start); got != 60 {
		t.Fatalf("expected 60 days, got %d", got)
	}
}

func TestScanValueRoundTrip(t *testing.T) {
	d := MustParseDate("2025-02-28")

	value, err := d.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "2025-02-28" {
		t.Fatalf("unexpected driver value: %v", value)
	}

	var scanned Date
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scanned != d {
		t.Fatalf("round trip mismatch: %v", scanned)
	}

	var zero Date
	if err := zero.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("expected zero date after NULL scan")
	}
}
