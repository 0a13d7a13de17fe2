package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/roastparty/server/internal/infrastructure/env"
)

const (
	CollectionRooms        = "rooms"
	CollectionParticipants = "participants"
	CollectionMessages     = "messages"
)

// messageRetention bounds how long chat history lives in mongo. Enforced by
// a TTL index, not application code.
const messageRetention = 7 * 24 * time.Hour

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

func NewMongoConfig() MongoConfig {
	return MongoConfig{
		URI:            env.GetString("MONGO_URI", "mongodb://localhost:27017"),
		Database:       env.GetString("MONGO_DATABASE", "roastparty"),
		ConnectTimeout: env.GetDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
	}
}

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func Connect(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Mongo{Client: client, Database: client.Database(cfg.Database)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the queries rely on. Idempotent; mongo
// skips indexes that already exist.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	rooms := m.Database.Collection(CollectionRooms)
	_, err := rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create room indexes: %w", err)
	}

	participants := m.Database.Collection(CollectionParticipants)
	_, err = participants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_code", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "last_seen_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create participant indexes: %w", err)
	}

	messages := m.Database.Collection(CollectionMessages)
	_, err = messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_code", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(messageRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	return nil
}
