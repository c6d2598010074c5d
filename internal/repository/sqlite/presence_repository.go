package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/google/uuid"
)

// PresenceRepository implements domain.PresenceRepository using SQLite
type PresenceRepository struct {
	db *Database
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(db *Database) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Find retrieves the records matching the filter
func (r *PresenceRepository) Find(ctx context.Context, filter domain.PresenceFilter) ([]*domain.PresenceRecord, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Location != "" {
		conds = append(conds, "location = ?")
		args = append(args, string(filter.Location))
	}
	if filter.Period != nil {
		conds = append(conds, "period = ?")
		args = append(args, domain.FormatPeriod(*filter.Period))
	}

	query := `
		SELECT id, user_id, user_name, location, period, created_at, updated_at
		FROM presence
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY period, user_name"

	rows, err := r.db.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find presence: %w", err)
	}
	defer rows.Close()

	var records []*domain.PresenceRecord

	for rows.Next() {
		record, err := scanPresence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presence: %w", err)
	}

	return records, nil
}

// Upsert replaces the location of the user's record for that period, or inserts a new one
func (r *PresenceRepository) Upsert(ctx context.Context, record *domain.PresenceRecord) error {
	period := record.Period
	existing, err := r.Find(ctx, domain.PresenceFilter{
		UserID: record.UserID,
		Period: &period,
	})
	if err != nil {
		return err
	}

	now := time.Now()

	if len(existing) > 0 {
		query := `
			UPDATE presence
			SET location = ?, user_name = ?, updated_at = ?
			WHERE id = ?
		`

		_, err := r.db.GetDB().ExecContext(ctx, query,
			string(record.Location),
			record.UserName,
			now,
			existing[0].ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update presence: %w", err)
		}

		record.ID = existing[0].ID
		record.CreatedAt = existing[0].CreatedAt
		record.UpdatedAt = now
		return nil
	}

	query := `
		INSERT INTO presence (id, user_id, user_name, location, period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	id := uuid.NewString()
	_, err = r.db.GetDB().ExecContext(ctx, query,
		id,
		record.UserID,
		record.UserName,
		string(record.Location),
		domain.FormatPeriod(record.Period),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create presence: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now

	return nil
}

func scanPresence(rows *sql.Rows) (*domain.PresenceRecord, error) {
	record := &domain.PresenceRecord{}
	var location, period string

	err := rows.Scan(
		&record.ID,
		&record.UserID,
		&record.UserName,
		&location,
		&period,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan presence: %w", err)
	}

	record.Location = domain.Location(location)
	record.Period, err = domain.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("failed to parse period %q: %w", period, err)
	}

	return record, nil
}
