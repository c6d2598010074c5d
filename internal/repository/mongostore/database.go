// Package mongostore implements the repositories against a MongoDB document store.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	presenceCollection = "presence"
	usersCollection    = "users"
)

// Database wraps a connected Mongo client and the bot's database
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to uri and ensures the indexes the repositories rely on
func New(ctx context.Context, uri, name string) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	database := &Database{client: client, db: client.Database(name)}

	if err := database.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return database, nil
}

// Close disconnects the client
func (d *Database) Close() error {
	return d.client.Disconnect(context.Background())
}

// Drop removes the whole database
func (d *Database) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

func (d *Database) ensureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(presenceCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "period", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "period", Value: 1}, {Key: "location", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	})
	return err
}
