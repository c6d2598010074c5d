package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// UserRepository implements domain.UserRepository on a Mongo collection
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{coll: db.db.Collection(usersCollection)}
}

// Save upserts the user document, keeping the stored name when user.Name is empty
func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()

	set := bson.M{"updated_at": now}
	if user.Name != "" {
		set["name"] = user.Name
	}
	update := bson.M{"$set": set}
	if user.Name == "" {
		update["$setOnInsert"] = bson.M{"name": ""}
	}

	_, err := r.coll.UpdateByID(ctx, user.ID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	user.UpdatedAt = now
	return nil
}

// GetByName returns the most recently seen user with that name, ignoring case
func (r *UserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	var doc userDocument
	err := r.coll.FindOne(ctx, bson.M{"name": name}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &domain.User{ID: doc.ID, Name: doc.Name, UpdatedAt: doc.UpdatedAt}, nil
}
