package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository returns a SQLite-backed reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// CreateReservation inserts a reservation with its slots and participants.
// The partial unique index over active slot rows makes the availability
// check and the insert one atomic step: the second writer for the same
// (room, date, slot) receives ErrDuplicate.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if len(reservation.SlotIDs) == 0 || len(reservation.Participants) == 0 {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (id, room_id, reservation_date, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			reservation.ID,
			reservation.RoomID,
			reservation.Date.String(),
			string(reservation.Status),
			formatTime(reservation.CreatedAt),
			formatTime(reservation.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		active := 0
		if reservation.Status == booking.StatusActive {
			active = 1
		}
		for position, slotID := range reservation.SlotIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reservation_slots (reservation_id, room_id, reservation_date, slot_id, position, active)
				VALUES (?, ?, ?, ?, ?, ?)
			`, reservation.ID, reservation.RoomID, reservation.Date.String(), slotID, position, active)
			if err != nil {
				return mapError(err)
			}
		}

		for _, participant := range reservation.Participants {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reservation_participants (reservation_id, participant_id, attendance)
				VALUES (?, ?, ?)
			`, reservation.ID, participant.ParticipantID, string(participant.Attendance))
			if err != nil {
				return mapError(err)
			}
		}

		return nil
	})
}

// GetReservation loads one reservation with its slots and attendance marks.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, room_id, reservation_date, status, created_at, updated_at
		FROM reservations
		WHERE id = ?
	`, id)

	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if err := r.loadDetails(ctx, &reservation); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// UpdateReservationStatus moves a reservation from one status to another.
// The expected current status is part of the WHERE clause; when it no
// longer matches, ErrNotFound is reported and nothing changes. Leaving the
// active state releases the slot claims.
func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, id string, from, to booking.Status) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?
		`, string(to), formatTime(time.Now().UTC()), id, string(from))
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if to != booking.StatusActive {
			if _, err := tx.ExecContext(ctx,
				"UPDATE reservation_slots SET active = 0 WHERE reservation_id = ?", id); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// UpdateReservationDate moves an active reservation to a new date, carrying
// its slot claims along. A claim collision on the new date surfaces as
// ErrDuplicate from the partial unique index.
func (r *ReservationRepository) UpdateReservationDate(ctx context.Context, id string, date civil.Date, slotIDs []string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE reservations SET reservation_date = ?, updated_at = ? WHERE id = ? AND status = ?
		`, date.String(), formatTime(time.Now().UTC()), id, string(booking.StatusActive))
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM reservation_slots WHERE reservation_id = ?", id); err != nil {
			return mapError(err)
		}

		var roomID string
		if err := tx.QueryRowContext(ctx,
			"SELECT room_id FROM reservations WHERE id = ?", id).Scan(&roomID); err != nil {
			return mapError(err)
		}

		for position, slotID := range slotIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reservation_slots (reservation_id, room_id, reservation_date, slot_id, position, active)
				VALUES (?, ?, ?, ?, ?, 1)
			`, id, roomID, date.String(), slotID, position)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// SetAttendance stores one participant's attendance mark.
func (r *ReservationRepository) SetAttendance(ctx context.Context, reservationID, participantID string, mark booking.Attendance) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE reservation_participants SET attendance = ? WHERE reservation_id = ? AND participant_id = ?
	`, string(mark), reservationID, participantID)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListReservations returns reservations matching the filter, ordered by
// date then id.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildReservationQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range reservations {
		if err := r.loadDetails(ctx, &reservations[i]); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

func (r *ReservationRepository) loadDetails(ctx context.Context, reservation *persistence.Reservation) error {
	slotRows, err := r.pool.DB().QueryContext(ctx, `
		SELECT slot_id FROM reservation_slots WHERE reservation_id = ? ORDER BY position ASC
	`, reservation.ID)
	if err != nil {
		return mapError(err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var slotID string
		if err := slotRows.Scan(&slotID); err != nil {
			return err
		}
		reservation.SlotIDs = append(reservation.SlotIDs, slotID)
	}
	if err := slotRows.Err(); err != nil {
		return mapError(err)
	}

	participantRows, err := r.pool.DB().QueryContext(ctx, `
		SELECT participant_id, attendance
		FROM reservation_participants
		WHERE reservation_id = ?
		ORDER BY participant_id ASC
	`, reservation.ID)
	if err != nil {
		return mapError(err)
	}
	defer participantRows.Close()

	for participantRows.Next() {
		var participantID, attendance string
		if err := participantRows.Scan(&participantID, &attendance); err != nil {
			return err
		}
		reservation.Participants = append(reservation.Participants, persistence.ReservationParticipant{
			ParticipantID: participantID,
			Attendance:    booking.Attendance(attendance),
		})
	}
	return participantRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var dateStr, statusStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&dateStr,
		&statusStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, mapError(err)
	}

	if reservation.Date, err = civil.ParseDate(dateStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parsing reservation_date: %w", err)
	}
	status, ok := booking.ParseStatus(statusStr)
	if !ok {
		return persistence.Reservation{}, fmt.Errorf("sqlite: unknown reservation status %q", statusStr)
	}
	reservation.Status = status

	if reservation.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parsing created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: parsing updated_at: %w", err)
	}
	return reservation, nil
}

func buildReservationQuery(filter persistence.ReservationFilter) (string, []any) {
	query := `
		SELECT DISTINCT r.id, r.room_id, r.reservation_date, r.status, r.created_at, r.updated_at
		FROM reservations r
	`

	var conditions []string
	var args []any

	if filter.ParticipantID != "" {
		query += " JOIN reservation_participants rp ON r.id = rp.reservation_id"
		conditions = append(conditions, "rp.participant_id = ?")
		args = append(args, filter.ParticipantID)
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, fmt.Sprintf("r.status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filter.DateFrom != nil {
		conditions = append(conditions, "r.reservation_date >= ?")
		args = append(args, filter.DateFrom.String())
	}
	if filter.DateTo != nil {
		conditions = append(conditions, "r.reservation_date <= ?")
		args = append(args, filter.DateTo.String())
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "r.reservation_date < ?")
		args = append(args, filter.DueBefore.String())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.reservation_date ASC, r.id ASC"
	return query, args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
