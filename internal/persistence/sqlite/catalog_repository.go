package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository. Room records are
// maintained by the administrative CRUD outside this service; the engines
// only read them.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository returns a SQLite-backed room catalog.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

// GetRoom loads one room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, building, capacity, category, created_at, updated_at
		FROM rooms WHERE id = ?
	`, id)
	return scanRoom(row)
}

// GetRoomByName loads a room by its user-facing (name, building) identity.
func (r *RoomRepository) GetRoomByName(ctx context.Context, name, building string) (persistence.Room, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, name, building, capacity, category, created_at, updated_at
		FROM rooms WHERE name = ? AND building = ?
	`, name, building)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by building then name.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, name, building, capacity, category, created_at, updated_at
		FROM rooms ORDER BY building ASC, name ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var createdAtStr, updatedAtStr string

	err := row.Scan(&room.ID, &room.Name, &room.Building, &room.Capacity, &room.Category, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapError(err)
	}

	if room.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: parsing created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: parsing updated_at: %w", err)
	}
	return room, nil
}

// ParticipantRepository implements persistence.ParticipantRepository.
type ParticipantRepository struct {
	pool *ConnectionPool
}

// NewParticipantRepository returns a SQLite-backed participant directory.
func NewParticipantRepository(pool *ConnectionPool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetParticipant loads one participant by CI.
func (r *ParticipantRepository) GetParticipant(ctx context.Context, id string) (persistence.Participant, error) {
	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, first_name, last_name, category, created_at, updated_at
		FROM participants WHERE id = ?
	`, id)
	return scanParticipant(row)
}

// ListParticipants returns all participants ordered by CI.
func (r *ParticipantRepository) ListParticipants(ctx context.Context) ([]persistence.Participant, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, first_name, last_name, category, created_at, updated_at
		FROM participants ORDER BY id ASC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

func scanParticipant(row rowScanner) (persistence.Participant, error) {
	var participant persistence.Participant
	var createdAtStr, updatedAtStr string

	err := row.Scan(&participant.ID, &participant.FirstName, &participant.LastName, &participant.Category, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Participant{}, persistence.ErrNotFound
		}
		return persistence.Participant{}, mapError(err)
	}

	if participant.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("sqlite: parsing created_at: %w", err)
	}
	if participant.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Participant{}, fmt.Errorf("sqlite: parsing updated_at: %w", err)
	}
	return participant, nil
}

// SlotRepository implements persistence.SlotRepository over the slot
// catalog table.
type SlotRepository struct {
	pool *ConnectionPool
}

// NewSlotRepository returns a SQLite-backed slot catalog.
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// QuerySlots returns the candidate slots for a room on a date ordered by
// start time. A slot is reported unavailable when the catalog flags it or
// an active reservation claims it.
func (r *SlotRepository) QuerySlots(ctx context.Context, roomID string, date civil.Date) ([]persistence.Slot, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT s.id, s.room_id, s.slot_date, s.start_minute, s.end_minute,
			s.available AND NOT EXISTS (
				SELECT 1 FROM reservation_slots rs
				WHERE rs.room_id = s.room_id
					AND rs.reservation_date = s.slot_date
					AND rs.slot_id = s.id
					AND rs.active = 1
			)
		FROM slots s
		WHERE s.room_id = ? AND s.slot_date = ?
		ORDER BY s.start_minute ASC
	`, roomID, date.String())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var slots []persistence.Slot
	for rows.Next() {
		var slot persistence.Slot
		var dateStr string
		if err := rows.Scan(&slot.ID, &slot.RoomID, &dateStr, &slot.Start, &slot.End, &slot.Available); err != nil {
			return nil, mapError(err)
		}
		if slot.Date, err = civil.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("sqlite: parsing slot_date: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
