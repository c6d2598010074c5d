package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type presenceDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user"`
	UserName  string    `bson:"user_name"`
	Location  string    `bson:"location"`
	Period    string    `bson:"period"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d presenceDocument) toDomain() (*domain.PresenceRecord, error) {
	period, err := domain.ParsePeriod(d.Period)
	if err != nil {
		return nil, fmt.Errorf("parse period %q: %w", d.Period, err)
	}

	return &domain.PresenceRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		UserName:  d.UserName,
		Location:  domain.Location(d.Location),
		Period:    period,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// PresenceRepository implements domain.PresenceRepository on a Mongo collection
type PresenceRepository struct {
	coll *mongo.Collection
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(db *Database) *PresenceRepository {
	return &PresenceRepository{coll: db.db.Collection(presenceCollection)}
}

// Find returns the documents matching the filter
func (r *PresenceRepository) Find(ctx context.Context, filter domain.PresenceFilter) ([]*domain.PresenceRecord, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user"] = filter.UserID
	}
	if filter.Location != "" {
		query["location"] = string(filter.Location)
	}
	if filter.Period != nil {
		query["period"] = domain.FormatPeriod(*filter.Period)
	}

	opts := options.Find().SetSort(bson.D{{Key: "period", Value: 1}, {Key: "user_name", Value: 1}})

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find presence: %w", err)
	}

	var docs []presenceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode presence: %w", err)
	}

	records := make([]*domain.PresenceRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Upsert looks the (user, period) document up and either replaces its location or inserts a new one
func (r *PresenceRepository) Upsert(ctx context.Context, record *domain.PresenceRecord) error {
	period := domain.FormatPeriod(record.Period)
	now := time.Now().UTC()

	var existing presenceDocument
	err := r.coll.FindOne(ctx, bson.M{"user": record.UserID, "period": period}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		doc := presenceDocument{
			ID:        uuid.NewString(),
			UserID:    record.UserID,
			UserName:  record.UserName,
			Location:  string(record.Location),
			Period:    period,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("insert presence: %w", err)
		}

		record.ID = doc.ID
		record.CreatedAt = now
		record.UpdatedAt = now
		return nil
	case err != nil:
		return fmt.Errorf("find presence: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"location":   string(record.Location),
		"user_name":  record.UserName,
		"updated_at": now,
	}}
	if _, err := r.coll.UpdateByID(ctx, existing.ID, update); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = now
	return nil
}
