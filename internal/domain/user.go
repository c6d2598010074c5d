package domain

import (
	"context"
	"time"
)

// User is someone who talked to the bot
type User struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}

// UserRepository defines the interface for the user directory
type UserRepository interface {
	// Save creates the user or refreshes its name
	Save(ctx context.Context, user *User) error
	// GetByName returns the user with the given display name, or nil if unknown
	GetByName(ctx context.Context, name string) (*User, error)
}
