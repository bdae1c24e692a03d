package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/testfixtures"
)

func TestIsBlocked(t *testing.T) {
	f := newEngineFixture(t)
	f.clock.Set(time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC))
	// Covers 2025-01-01 through 2025-03-01 inclusive.
	if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-01-01"), 59); err != nil {
		t.Fatalf("applying sanction: %v", err)
	}

	cases := []struct {
		name    string
		at      civil.Date
		blocked bool
	}{
		{"start date", testfixtures.Date("2025-01-01"), true},
		{"middle of the interval", testfixtures.Date("2025-02-15"), true},
		{"end date", testfixtures.Date("2025-03-01"), true},
		{"day after the end", testfixtures.Date("2025-03-02"), false},
		{"day before the start", testfixtures.Date("2024-12-31"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, err := f.sanction.IsBlocked(context.Background(), testfixtures.ParticipantCI, tc.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status.Blocked != tc.blocked {
				t.Fatalf("IsBlocked(%s) = %v, want %v", tc.at, status.Blocked, tc.blocked)
			}
			if tc.blocked && status.ReleaseDate != testfixtures.Date("2025-03-01") {
				t.Fatalf("unexpected release date: %v", status.ReleaseDate)
			}
		})
	}

	t.Run("unknown participant is not blocked", func(t *testing.T) {
		status, err := f.sanction.IsBlocked(context.Background(), "222", testfixtures.Date("2025-02-15"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Blocked {
			t.Fatalf("expected 222 to be unblocked")
		}
	})
}

func TestApplySanction(t *testing.T) {
	t.Run("uses the configured duration when none is given", func(t *testing.T) {
		f := newEngineFixture(t)
		sanction, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sanction.EndDate != testfixtures.Date("2025-08-10") {
			t.Fatalf("expected end 2025-08-10, got %v", sanction.EndDate)
		}
	})

	t.Run("rejects overlapping intervals instead of merging", func(t *testing.T) {
		f := newEngineFixture(t)
		if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 60); err != nil {
			t.Fatalf("applying sanction: %v", err)
		}

		_, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-07-01"), 10)
		if !errors.Is(err, application.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("allows a sanction that starts after an earlier one ends", func(t *testing.T) {
		f := newEngineFixture(t)
		if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 10); err != nil {
			t.Fatalf("applying sanction: %v", err)
		}
		if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-22"), 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("distinct participants never collide", func(t *testing.T) {
		f := newEngineFixture(t)
		if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 60); err != nil {
			t.Fatalf("applying sanction: %v", err)
		}
		if _, err := f.sanction.ApplySanction(context.Background(), "222", testfixtures.Date("2025-06-11"), 60); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLiftExpired(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 10); err != nil {
		t.Fatalf("applying sanction: %v", err)
	}

	t.Run("keeps sanctions that end today", func(t *testing.T) {
		lifted, err := f.sanction.LiftExpired(context.Background(), time.Date(2025, time.June, 21, 2, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lifted != 0 {
			t.Fatalf("expected nothing lifted on the end date, got %d", lifted)
		}
	})

	t.Run("removes sanctions once the end date has passed", func(t *testing.T) {
		lifted, err := f.sanction.LiftExpired(context.Background(), time.Date(2025, time.June, 22, 2, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lifted != 1 {
			t.Fatalf("expected 1 lifted, got %d", lifted)
		}

		status, err := f.sanction.IsBlocked(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-15"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Blocked {
			t.Fatalf("expected lifted sanction to stop blocking")
		}
	})
}

func TestProcessDueReservations(t *testing.T) {
	t.Run("sanctions every participant of an unattended reservation", func(t *testing.T) {
		f := newEngineFixture(t)
		f.createMorningReservation(t, testfixtures.Date("2025-06-10"), testfixtures.ParticipantCI, "222")

		now := time.Date(2025, time.June, 11, 2, 0, 0, 0, time.UTC)
		f.clock.Set(now)
		summary, err := f.sanction.ProcessDueReservations(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.ReservationsProcessed != 1 {
			t.Fatalf("expected 1 reservation processed, got %d", summary.ReservationsProcessed)
		}
		if summary.SanctionsApplied != 2 {
			t.Fatalf("expected 2 sanctions, got %d", summary.SanctionsApplied)
		}
		if len(summary.Failures) != 0 {
			t.Fatalf("unexpected failures: %v", summary.Failures)
		}

		for _, participantID := range []string{testfixtures.ParticipantCI, "222"} {
			sanctions, err := f.sanctions.ListSanctions(context.Background(), application.SanctionStoreFilter{ParticipantID: participantID})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sanctions) != 1 {
				t.Fatalf("expected 1 sanction for %s, got %d", participantID, len(sanctions))
			}
			if sanctions[0].StartDate != testfixtures.Date("2025-06-11") || sanctions[0].EndDate != testfixtures.Date("2025-08-10") {
				t.Fatalf("unexpected interval for %s: %v..%v", participantID, sanctions[0].StartDate, sanctions[0].EndDate)
			}
		}
	})

	t.Run("skips attended reservations", func(t *testing.T) {
		f := newEngineFixture(t)
		reservation := f.createMorningReservation(t, testfixtures.Date("2025-06-10"))
		if err := f.reservation.RecordAttendance(context.Background(), reservation.ID, testfixtures.ParticipantCI, true, actor); err != nil {
			t.Fatalf("recording attendance: %v", err)
		}

		now := time.Date(2025, time.June, 11, 2, 0, 0, 0, time.UTC)
		f.clock.Set(now)
		summary, err := f.sanction.ProcessDueReservations(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.SanctionsApplied != 0 {
			t.Fatalf("expected no sanctions, got %d", summary.SanctionsApplied)
		}

		status, err := f.sanction.IsBlocked(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Blocked {
			t.Fatalf("expected attended participant to stay eligible")
		}
	})

	t.Run("rerunning the batch applies nothing twice", func(t *testing.T) {
		f := newEngineFixture(t)
		f.createMorningReservation(t, testfixtures.Date("2025-06-10"))

		now := time.Date(2025, time.June, 11, 2, 0, 0, 0, time.UTC)
		f.clock.Set(now)
		if _, err := f.sanction.ProcessDueReservations(context.Background(), now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		summary, err := f.sanction.ProcessDueReservations(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.ReservationsProcessed != 0 || summary.SanctionsApplied != 0 {
			t.Fatalf("expected an idle rerun, got %+v", summary)
		}
	})

	t.Run("an existing overlapping sanction is not a failure", func(t *testing.T) {
		f := newEngineFixture(t)
		f.createMorningReservation(t, testfixtures.Date("2025-06-10"))
		if _, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-05"), 30); err != nil {
			t.Fatalf("applying sanction: %v", err)
		}

		now := time.Date(2025, time.June, 11, 2, 0, 0, 0, time.UTC)
		f.clock.Set(now)
		summary, err := f.sanction.ProcessDueReservations(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.SanctionsApplied != 0 {
			t.Fatalf("expected the overlap to be skipped, got %d applied", summary.SanctionsApplied)
		}
		if len(summary.Failures) != 0 {
			t.Fatalf("unexpected failures: %v", summary.Failures)
		}
	})

	t.Run("lifts expired sanctions in the same run", func(t *testing.T) {
		f := newEngineFixture(t)
		if _, err := f.sanction.ApplySanction(context.Background(), "333", testfixtures.Date("2025-06-02"), 5); err != nil {
			t.Fatalf("applying sanction: %v", err)
		}

		now := time.Date(2025, time.June, 20, 2, 0, 0, 0, time.UTC)
		f.clock.Set(now)
		summary, err := f.sanction.ProcessDueReservations(context.Background(), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.SanctionsLifted != 1 {
			t.Fatalf("expected 1 lifted, got %d", summary.SanctionsLifted)
		}
	})
}

func TestValidateSanctionDates(t *testing.T) {
	f := newEngineFixture(t)
	today := testfixtures.Date("2025-06-01")

	cases := []struct {
		name  string
		start civil.Date
		end   civil.Date
		field string
	}{
		{"valid interval", testfixtures.Date("2025-06-05"), testfixtures.Date("2025-06-20"), ""},
		{"starting today", today, testfixtures.Date("2025-06-20"), ""},
		{"start in the past", testfixtures.Date("2025-05-30"), testfixtures.Date("2025-06-20"), "start_date"},
		{"end before start", testfixtures.Date("2025-06-10"), testfixtures.Date("2025-06-08"), "end_date"},
		{"end equal to start", testfixtures.Date("2025-06-10"), testfixtures.Date("2025-06-10"), "end_date"},
		{"end not after today", testfixtures.Date("2025-06-01"), testfixtures.Date("2025-06-01"), "end_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.sanction.ValidateSanctionDates(tc.start, tc.end, today)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *application.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s field error, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestUpdateSanctionDates(t *testing.T) {
	t.Run("rewrites the interval", func(t *testing.T) {
		f := newEngineFixture(t)
		sanction, err := f.sanction.ApplySanction(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-11"), 60)
		if err != nil {
			t.Fatalf("applying sanction: %v", err)
		}

		updated, err := f.sanction.UpdateSanctionDates(context.Background(), sanction.ID, testfixtures.Date("2025-06-15"), testfixtures.Date("2025-07-01"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.StartDate != testfixtures.Date("2025-06-15") || updated.EndDate != testfixtures.Date("2025-07-01") {
			t.Fatalf("unexpected interval: %v..%v", updated.StartDate, updated.EndDate)
		}

		status, err := f.sanction.IsBlocked(context.Background(), testfixtures.ParticipantCI, testfixtures.Date("2025-06-12"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Blocked {
			t.Fatalf("expected the shrunk interval to unblock 2025-06-12")
		}
	})

	t.Run("unknown sanction ids return NotFound", func(t *testing.T) {
		f := newEngineFixture(t)
		_, err := f.sanction.UpdateSanctionDates(context.Background(), "missing", testfixtures.Date("2025-06-15"), testfixtures.Date("2025-07-01"))
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
