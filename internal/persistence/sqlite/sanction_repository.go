package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/reserva/internal/civil"
	"github.com/example/reserva/internal/persistence"
)

// SanctionRepository implements persistence.SanctionRepository.
type SanctionRepository struct {
	pool *ConnectionPool
}

// NewSanctionRepository returns a SQLite-backed sanction repository.
func NewSanctionRepository(pool *ConnectionPool) *SanctionRepository {
	return &SanctionRepository{pool: pool}
}

// CreateSanction inserts a sanction after verifying, inside the same
// transaction, that no existing sanction of the participant overlaps the
// new interval. SQLite holds the write lock for the whole transaction, so
// two concurrent reconciliation runs cannot both pass the check.
func (r *SanctionRepository) CreateSanction(ctx context.Context, sanction persistence.Sanction) error {
	if sanction.ID == "" || sanction.ParticipantID == "" {
		return persistence.ErrConstraintViolation
	}
	if !sanction.EndDate.After(sanction.StartDate) {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var overlapping int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sanctions
			WHERE participant_id = ? AND start_date <= ? AND end_date >= ?
		`, sanction.ParticipantID, sanction.EndDate.String(), sanction.StartDate.String()).Scan(&overlapping)
		if err != nil {
			return mapError(err)
		}
		if overlapping > 0 {
			return persistence.ErrDuplicate
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sanctions (id, participant_id, start_date, end_date, reason, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			sanction.ID,
			sanction.ParticipantID,
			sanction.StartDate.String(),
			sanction.EndDate.String(),
			sanction.Reason,
			formatTime(sanction.CreatedAt),
		)
		return mapError(err)
	})
}

// GetSanction loads one sanction by id.
func (r *SanctionRepository) GetSanction(ctx context.Context, id string) (persistence.Sanction, error) {
	if id == "" {
		return persistence.Sanction{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, participant_id, start_date, end_date, reason, created_at
		FROM sanctions
		WHERE id = ?
	`, id)
	return scanSanction(row)
}

// UpdateSanction rewrites the interval and reason of an existing sanction.
func (r *SanctionRepository) UpdateSanction(ctx context.Context, sanction persistence.Sanction) error {
	if !sanction.EndDate.After(sanction.StartDate) {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE sanctions SET start_date = ?, end_date = ?, reason = ? WHERE id = ?
	`, sanction.StartDate.String(), sanction.EndDate.String(), sanction.Reason, sanction.ID)
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

// ListSanctions returns sanctions matching the filter ordered by start date.
func (r *SanctionRepository) ListSanctions(ctx context.Context, filter persistence.SanctionFilter) ([]persistence.Sanction, error) {
	query := `
		SELECT id, participant_id, start_date, end_date, reason, created_at
		FROM sanctions
	`

	var conditions []string
	var args []any
	if filter.ParticipantID != "" {
		conditions = append(conditions, "participant_id = ?")
		args = append(args, filter.ParticipantID)
	}
	if filter.ActiveOn != nil {
		day := filter.ActiveOn.String()
		conditions = append(conditions, "start_date <= ?", "end_date >= ?")
		args = append(args, day, day)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sanctions []persistence.Sanction
	for rows.Next() {
		sanction, err := scanSanction(rows)
		if err != nil {
			return nil, err
		}
		sanctions = append(sanctions, sanction)
	}
	return sanctions, rows.Err()
}

// DeleteSanctionsEndedBefore removes sanctions whose end date is strictly
// earlier than day and reports how many were removed.
func (r *SanctionRepository) DeleteSanctionsEndedBefore(ctx context.Context, day civil.Date) (int, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		"DELETE FROM sanctions WHERE end_date < ?", day.String())
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func scanSanction(row rowScanner) (persistence.Sanction, error) {
	var sanction persistence.Sanction
	var startStr, endStr, createdAtStr string

	err := row.Scan(
		&sanction.ID,
		&sanction.ParticipantID,
		&startStr,
		&endStr,
		&sanction.Reason,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Sanction{}, persistence.ErrNotFound
		}
		return persistence.Sanction{}, mapError(err)
	}

	if sanction.StartDate, err = civil.ParseDate(startStr); err != nil {
		return persistence.Sanction{}, fmt.Errorf("sqlite: parsing start_date: %w", err)
	}
	if sanction.EndDate, err = civil.ParseDate(endStr); err != nil {
		return persistence.Sanction{}, fmt.Errorf("sqlite: parsing end_date: %w", err)
	}
	if sanction.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Sanction{}, fmt.Errorf("sqlite: parsing created_at: %w", err)
	}
	return sanction, nil
}
