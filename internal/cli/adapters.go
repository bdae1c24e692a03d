package cli

import (
	"context"
	"errors"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// The services speak in application models while the repositories persist
// store models; the adapters below translate between the two at the wiring
// boundary.

type reservationStoreAdapter struct {
	repo persistence.ReservationRepository
}

func (a reservationStoreAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toStoreReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	return reservation, nil
}

func (a reservationStoreAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return fromStoreReservation(stored), nil
}

func (a reservationStoreAdapter) UpdateReservationStatus(ctx context.Context, id string, from, to booking.Status) error {
	return a.repo.UpdateReservationStatus(ctx, id, from, to)
}

func (a reservationStoreAdapter) UpdateReservationDate(ctx context.Context, id string, date civil.Date, slotIDs []string) error {
	return a.repo.UpdateReservationDate(ctx, id, date, slotIDs)
}

func (a reservationStoreAdapter) SetAttendance(ctx context.Context, reservationID, participantID string, mark booking.Attendance) error {
	return a.repo.SetAttendance(ctx, reservationID, participantID, mark)
}

func (a reservationStoreAdapter) ListReservations(ctx context.Context, filter application.ReservationStoreFilter) ([]application.Reservation, error) {
	stored, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		ParticipantID: filter.ParticipantID,
		Statuses:      filter.Statuses,
		DateFrom:      filter.DateFrom,
		DateTo:        filter.DateTo,
		DueBefore:     filter.DueBefore,
	})
	if err != nil {
		return nil, err
	}
	result := make([]application.Reservation, 0, len(stored))
	for _, reservation := range stored {
		result = append(result, fromStoreReservation(reservation))
	}
	return result, nil
}

type sanctionStoreAdapter struct {
	repo persistence.SanctionRepository
}

func (a sanctionStoreAdapter) CreateSanction(ctx context.Context, sanction application.Sanction) (application.Sanction, error) {
	if err := a.repo.CreateSanction(ctx, toStoreSanction(sanction)); err != nil {
		return application.Sanction{}, err
	}
	return sanction, nil
}

func (a sanctionStoreAdapter) GetSanction(ctx context.Context, id string) (application.Sanction, error) {
	stored, err := a.repo.GetSanction(ctx, id)
	if err != nil {
		return application.Sanction{}, err
	}
	return fromStoreSanction(stored), nil
}

func (a sanctionStoreAdapter) UpdateSanction(ctx context.Context, sanction application.Sanction) (application.Sanction, error) {
	if err := a.repo.UpdateSanction(ctx, toStoreSanction(sanction)); err != nil {
		return application.Sanction{}, err
	}
	return sanction, nil
}

func (a sanctionStoreAdapter) ListSanctions(ctx context.Context, filter application.SanctionStoreFilter) ([]application.Sanction, error) {
	stored, err := a.repo.ListSanctions(ctx, persistence.SanctionFilter{
		ParticipantID: filter.ParticipantID,
		ActiveOn:      filter.ActiveOn,
	})
	if err != nil {
		return nil, err
	}
	result := make([]application.Sanction, 0, len(stored))
	for _, sanction := range stored {
		result = append(result, fromStoreSanction(sanction))
	}
	return result, nil
}

func (a sanctionStoreAdapter) DeleteSanctionsEndedBefore(ctx context.Context, day civil.Date) (int, error) {
	return a.repo.DeleteSanctionsEndedBefore(ctx, day)
}

type directoryAdapter struct {
	participants persistence.ParticipantRepository
	rooms        persistence.RoomRepository
}

func (a directoryAdapter) MissingParticipantIDs(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		_, err := a.participants.GetParticipant(ctx, id)
		if errors.Is(err, persistence.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return missing, nil
}

func (a directoryAdapter) RoomExists(ctx context.Context, id string) (bool, error) {
	_, err := a.rooms.GetRoom(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type slotCatalogAdapter struct {
	repo persistence.SlotRepository
}

func (a slotCatalogAdapter) QuerySlots(ctx context.Context, roomID string, date civil.Date) ([]application.Slot, error) {
	stored, err := a.repo.QuerySlots(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	result := make([]application.Slot, 0, len(stored))
	for _, slot := range stored {
		result = append(result, application.Slot{
			ID:        slot.ID,
			RoomID:    slot.RoomID,
			Start:     slot.Start,
			End:       slot.End,
			Available: slot.Available,
		})
	}
	return result, nil
}

func toStoreReservation(reservation application.Reservation) persistence.Reservation {
	participants := make([]persistence.ReservationParticipant, 0, len(reservation.Participants))
	for _, p := range reservation.Participants {
		participants = append(participants, persistence.ReservationParticipant{
			ParticipantID: p.ParticipantID,
			Attendance:    p.Attendance,
		})
	}
	return persistence.Reservation{
		ID:           reservation.ID,
		RoomID:       reservation.RoomID,
		Date:         reservation.Date,
		SlotIDs:      reservation.SlotIDs,
		Status:       reservation.Status,
		Participants: participants,
		CreatedAt:    reservation.CreatedAt,
		UpdatedAt:    reservation.UpdatedAt,
	}
}

func fromStoreReservation(reservation persistence.Reservation) application.Reservation {
	participants := make([]application.ParticipantAttendance, 0, len(reservation.Participants))
	for _, p := range reservation.Participants {
		participants = append(participants, application.ParticipantAttendance{
			ParticipantID: p.ParticipantID,
			Attendance:    p.Attendance,
		})
	}
	return application.Reservation{
		ID:           reservation.ID,
		RoomID:       reservation.RoomID,
		Date:         reservation.Date,
		SlotIDs:      reservation.SlotIDs,
		Status:       reservation.Status,
		Participants: participants,
		CreatedAt:    reservation.CreatedAt,
		UpdatedAt:    reservation.UpdatedAt,
	}
}

func toStoreSanction(sanction application.Sanction) persistence.Sanction {
	return persistence.Sanction{
		ID:            sanction.ID,
		ParticipantID: sanction.ParticipantID,
		StartDate:     sanction.StartDate,
		EndDate:       sanction.EndDate,
		Reason:        sanction.Reason,
		CreatedAt:     sanction.CreatedAt,
	}
}

func fromStoreSanction(sanction persistence.Sanction) application.Sanction {
	return application.Sanction{
		ID:            sanction.ID,
		ParticipantID: sanction.ParticipantID,
		StartDate:     sanction.StartDate,
		EndDate:       sanction.EndDate,
		Reason:        sanction.Reason,
		CreatedAt:     sanction.CreatedAt,
	}
}
