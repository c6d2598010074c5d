package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite
type UserRepository struct {
	db *Database
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

// Save creates the user or refreshes its name
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name = '' THEN users.name ELSE excluded.name END,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	_, err := r.db.GetDB().ExecContext(ctx, query,
		user.ID,
		user.Name,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	user.UpdatedAt = now

	return nil
}

// GetByName retrieves the most recently seen user with the given name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	query := `
		SELECT id, name, updated_at
		FROM users
		WHERE name = ? COLLATE NOCASE
		ORDER BY updated_at DESC
		LIMIT 1
	`

	user := &domain.User{}

	err := r.db.GetDB().QueryRowContext(ctx, query, name).Scan(
		&user.ID,
		&user.Name,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
