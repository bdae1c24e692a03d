package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/reserva/internal/application"
	"github.com/example/reserva/internal/booking"
	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// ReservationStore is an in-memory application.ReservationStore enforcing
// the same uniqueness rules as the SQLite layer.
type ReservationStore struct {
	mu           sync.RWMutex
	reservations map[string]application.Reservation
}

// NewReservationStore returns an empty in-memory reservation store.
func NewReservationStore() *ReservationStore {
	return &ReservationStore{reservations: make(map[string]application.Reservation)}
}

// CreateReservation stores a new reservation, rejecting slot claims that
// collide with an existing active reservation.
func (s *ReservationStore) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; ok {
		return application.Reservation{}, persistence.ErrDuplicate
	}
	if reservation.Status == booking.StatusActive {
		for _, existing := range s.reservations {
			if existing.Status != booking.StatusActive || existing.RoomID != reservation.RoomID || existing.Date != reservation.Date {
				continue
			}
			for _, slotID := range reservation.SlotIDs {
				for _, claimed := range existing.SlotIDs {
					if slotID == claimed {
						return application.Reservation{}, persistence.ErrDuplicate
					}
				}
			}
		}
	}

	s.reservations[reservation.ID] = cloneReservation(reservation)
	return reservation, nil
}

// GetReservation retrieves a reservation by id.
func (s *ReservationStore) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return application.Reservation{}, persistence.ErrNotFound
	}
	return cloneReservation(reservation), nil
}

// UpdateReservationStatus transitions a reservation guarded by its expected
// current status.
func (s *ReservationStore) UpdateReservationStatus(ctx context.Context, id string, from, to booking.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok || reservation.Status != from {
		return persistence.ErrNotFound
	}
	reservation.Status = to
	s.reservations[id] = reservation
	return nil
}

// UpdateReservationDate moves an active reservation to a new date.
func (s *ReservationStore) UpdateReservationDate(ctx context.Context, id string, date civil.Date, slotIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok || reservation.Status != booking.StatusActive {
		return persistence.ErrNotFound
	}

	for _, existing := range s.reservations {
		if existing.ID == id || existing.Status != booking.StatusActive || existing.RoomID != reservation.RoomID || existing.Date != date {
			continue
		}
		for _, slotID := range slotIDs {
			for _, claimed := range existing.SlotIDs {
				if slotID == claimed {
					return persistence.ErrDuplicate
				}
			}
		}
	}

	reservation.Date = date
	reservation.SlotIDs = append([]string(nil), slotIDs...)
	s.reservations[id] = reservation
	return nil
}

// SetAttendance records a participant's attendance mark.
func (s *ReservationStore) SetAttendance(ctx context.Context, reservationID, participantID string, mark booking.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return persistence.ErrNotFound
	}
	for i, participant := range reservation.Participants {
		if participant.ParticipantID == participantID {
			reservation.Participants[i].Attendance = mark
			s.reservations[reservationID] = reservation
			return nil
		}
	}
	return persistence.ErrNotFound
}

// ListReservations returns reservations matching the filter ordered by date
// then id.
func (s *ReservationStore) ListReservations(ctx context.Context, filter application.ReservationStoreFilter) ([]application.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.Reservation
	for _, reservation := range s.reservations {
		if !matchesFilter(reservation, filter) {
			continue
		}
		result = append(result, cloneReservation(reservation))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date == result[j].Date {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func matchesFilter(reservation application.Reservation, filter application.ReservationStoreFilter) bool {
	if filter.ParticipantID != "" {
		found := false
		for _, participant := range reservation.Participants {
			if participant.ParticipantID == filter.ParticipantID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if reservation.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.DateFrom != nil && reservation.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && reservation.Date.After(*filter.DateTo) {
		return false
	}
	if filter.DueBefore != nil && !reservation.Date.Before(*filter.DueBefore) {
		return false
	}
	return true
}

func cloneReservation(reservation application.Reservation) application.Reservation {
	clone := reservation
	clone.SlotIDs = append([]string(nil), reservation.SlotIDs...)
	clone.Participants = append([]application.ParticipantAttendance(nil), reservation.Participants...)
	return clone
}

// SanctionStore is an in-memory application.SanctionStore with the same
// overlap guard as the SQLite layer.
type SanctionStore struct {
	mu        sync.RWMutex
	sanctions map[string]application.Sanction
}

// NewSanctionStore returns an empty in-memory sanction store.
func NewSanctionStore() *SanctionStore {
	return &SanctionStore{sanctions: make(map[string]application.Sanction)}
}

// CreateSanction stores a sanction, rejecting overlaps per participant.
func (s *SanctionStore) CreateSanction(ctx context.Context, sanction application.Sanction) (application.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sanctions[sanction.ID]; ok {
		return application.Sanction{}, persistence.ErrDuplicate
	}
	for _, existing := range s.sanctions {
		if existing.ParticipantID != sanction.ParticipantID {
			continue
		}
		if !sanction.StartDate.After(existing.EndDate) && !existing.StartDate.After(sanction.EndDate) {
			return application.Sanction{}, persistence.ErrDuplicate
		}
	}

	s.sanctions[sanction.ID] = sanction
	return sanction, nil
}

// GetSanction retrieves a sanction by id.
func (s *SanctionStore) GetSanction(ctx context.Context, id string) (application.Sanction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sanction, ok := s.sanctions[id]
	if !ok {
		return application.Sanction{}, persistence.ErrNotFound
	}
	return sanction, nil
}

// UpdateSanction rewrites an existing sanction.
func (s *SanctionStore) UpdateSanction(ctx context.Context, sanction application.Sanction) (application.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sanctions[sanction.ID]; !ok {
		return application.Sanction{}, persistence.ErrNotFound
	}
	s.sanctions[sanction.ID] = sanction
	return sanction, nil
}

// ListSanctions returns sanctions matching the filter ordered by start date.
func (s *SanctionStore) ListSanctions(ctx context.Context, filter application.SanctionStoreFilter) ([]application.Sanction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.Sanction
	for _, sanction := range s.sanctions {
		if filter.ParticipantID != "" && sanction.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.ActiveOn != nil {
			day := *filter.ActiveOn
			if day.Before(sanction.StartDate) || day.After(sanction.EndDate) {
				continue
			}
		}
		result = append(result, sanction)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate == result[j].StartDate {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

// DeleteSanctionsEndedBefore removes expired sanctions and returns the count.
func (s *SanctionStore) DeleteSanctionsEndedBefore(ctx context.Context, day civil.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sanction := range s.sanctions {
		if sanction.EndDate.Before(day) {
			delete(s.sanctions, id)
			removed++
		}
	}
	return removed, nil
}

// Directory is an in-memory participant directory and room catalog.
type Directory struct {
	mu           sync.RWMutex
	participants map[string]struct{}
	rooms        map[string]struct{}
}

// NewDirectory returns a directory seeded with the given participant and
// room ids.
func NewDirectory(participantIDs, roomIDs []string) *Directory {
	d := &Directory{
		participants: make(map[string]struct{}),
		rooms:        make(map[string]struct{}),
	}
	for _, id := range participantIDs {
		d.participants[id] = struct{}{}
	}
	for _, id := range roomIDs {
		d.rooms[id] = struct{}{}
	}
	return d
}

// MissingParticipantIDs reports which of the given ids are unknown.
func (d *Directory) MissingParticipantIDs(ctx context.Context, ids []string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := d.participants[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// RoomExists reports whether the room id is known.
func (d *Directory) RoomExists(ctx context.Context, id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[id]
	return ok, nil
}

// SlotCatalog is an in-memory application.SlotCatalog keyed by room and date.
type SlotCatalog struct {
	mu    sync.RWMutex
	slots map[string][]application.Slot
}

// NewSlotCatalog returns an empty in-memory slot catalog.
func NewSlotCatalog() *SlotCatalog {
	return &SlotCatalog{slots: make(map[string][]application.Slot)}
}

// Offer registers catalog slots for a room and date.
func (c *SlotCatalog) Offer(roomID string, date civil.Date, slots ...application.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := catalogKey(roomID, date)
	c.slots[key] = append(c.slots[key], slots...)
}

// QuerySlots returns the slots registered for a room and date.
func (c *SlotCatalog) QuerySlots(ctx context.Context, roomID string, date civil.Date) ([]application.Slot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]application.Slot(nil), c.slots[catalogKey(roomID, date)]...), nil
}

func catalogKey(roomID string, date civil.Date) string {
	return fmt.Sprintf("%s|%s", roomID, date)
}
