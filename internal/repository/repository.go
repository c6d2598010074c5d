// Package repository builds the configured storage backend.
package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/glebk/whoshere-bot/internal/config"
	"github.com/glebk/whoshere-bot/internal/domain"
	"github.com/glebk/whoshere-bot/internal/repository/mongostore"
	"github.com/glebk/whoshere-bot/internal/repository/sqlite"

	"go.uber.org/zap"
)

// Store groups the repositories of one backend
type Store struct {
	Presence domain.PresenceRepository
	Users    domain.UserRepository

	closer io.Closer
}

// Close releases the backend connection
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// New opens the backend named in cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig, log *zap.SugaredLogger) (*Store, error) {
	log = log.Named("repository")

	switch cfg.Backend {
	case "sqlite":
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Infow("sqlite ready", "path", cfg.SQLitePath)

		return &Store{
			Presence: sqlite.NewPresenceRepository(db),
			Users:    sqlite.NewUserRepository(db),
			closer:   db,
		}, nil
	case "mongo":
		db, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		log.Infow("mongo ready", "database", cfg.MongoDatabase)

		return &Store{
			Presence: mongostore.NewPresenceRepository(db),
			Users:    mongostore.NewUserRepository(db),
			closer:   db,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, cfg.Backend)
	}
}
