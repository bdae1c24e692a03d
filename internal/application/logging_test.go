package application_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/logging"
	"github.com/example/reserva/internal/testfixtures"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("lookup: %w", application.ErrNotFound), "not_found"},
		{"already exists", application.ErrAlreadyExists, "already_exists"},
		{"policy violation", application.ErrPolicyViolation, "policy_violation"},
		{"slot conflict", fmt.Errorf("room taken: %w", application.ErrSlotConflict), "slot_conflict"},
		{"sanction blocked", &application.SanctionBlockedError{ParticipantID: "111"}, "sanction_blocked"},
		{"unauthorized", application.ErrUnauthorized, "unauthorized"},
		{"validation", &application.ValidationError{FieldErrors: map[string]string{"date": "bad"}}, "validation"},
		{"unexpected", errors.New("disk full"), "unexpected"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := application.ErrorKind(tc.err); got != tc.want {
				t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

// loggedFixture wires the lifecycle engine with a capturing logger so tests
// can assert on emitted attributes.
type loggedFixture struct {
	out         *bytes.Buffer
	clock       *testfixtures.Clock
	catalog     *testfixtures.SlotCatalog
	reservation *application.ReservationService
}

func newLoggedFixture(t *testing.T, policy application.NoShowPolicy) *loggedFixture {
	t.Helper()

	out := &bytes.Buffer{}
	clock := testfixtures.NewClock(time.Time{})
	catalog := testfixtures.NewSlotCatalog()
	reservationSvc := application.NewReservationService(application.ReservationServiceConfig{
		Reservations: testfixtures.NewReservationStore(),
		Participants: testfixtures.NewDirectory([]string{testfixtures.ParticipantCI}, []string{testfixtures.RoomA101}),
		Rooms:        testfixtures.NewDirectory([]string{testfixtures.ParticipantCI}, []string{testfixtures.RoomA101}),
		Slots:        catalog,
		NoShowPolicy: policy,
		IDGenerator:  testfixtures.NewIDGenerator("reservation").NextFunc(),
		Now:          clock.NowFunc(),
		Logger:       logging.NewLogger(out, "debug"),
	})

	return &loggedFixture{
		out:         out,
		clock:       clock,
		catalog:     catalog,
		reservation: reservationSvc,
	}
}

func (f *loggedFixture) createMorningReservation(t *testing.T) application.Reservation {
	t.Helper()
	slots := testfixtures.MorningSlots(testfixtures.RoomA101)
	f.catalog.Offer(testfixtures.RoomA101, testfixtures.Date("2025-06-10"), slots...)

	reservation, err := f.reservation.CreateReservation(context.Background(), application.CreateReservationParams{
		Principal:      actor,
		RoomID:         testfixtures.RoomA101,
		Date:           testfixtures.Date("2025-06-10"),
		SlotIDs:        []string{slots[0].ID},
		ParticipantIDs: []string{testfixtures.ParticipantCI},
	})
	if err != nil {
		t.Fatalf("creating reservation: %v", err)
	}
	return reservation
}

func TestMutationsLogActingParticipant(t *testing.T) {
	f := newLoggedFixture(t, nil)
	reservation := f.createMorningReservation(t)

	if _, err := f.reservation.UpdateStatus(context.Background(), reservation.ID, booking.StatusCancelled, actor); err != nil {
		t.Fatalf("cancelling: %v", err)
	}

	logged := f.out.String()
	if !strings.Contains(logged, `"actor":"`+testfixtures.ParticipantCI+`"`) {
		t.Fatalf("expected the acting participant in the log output, got %q", logged)
	}
}

type failingNoShowPolicy struct {
	err error
}

func (p failingNoShowPolicy) OnNoShow(ctx context.Context, reservation application.Reservation) error {
	return p.err
}

func TestManualNoShowSurvivesSanctionFailure(t *testing.T) {
	f := newLoggedFixture(t, failingNoShowPolicy{err: errors.New("sanction store offline")})
	reservation := f.createMorningReservation(t)
	f.clock.Set(time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC))

	updated, err := f.reservation.UpdateStatus(context.Background(), reservation.ID, booking.StatusNoShow, actor)
	if err != nil {
		t.Fatalf("the committed transition must not surface the sanction failure, got %v", err)
	}
	if updated.Status != booking.StatusNoShow {
		t.Fatalf("expected sin_asistencia, got %s", updated.Status)
	}

	logged := f.out.String()
	if !strings.Contains(logged, `"error_kind":"unexpected"`) {
		t.Fatalf("expected the sanction failure logged with its kind, got %q", logged)
	}
}
