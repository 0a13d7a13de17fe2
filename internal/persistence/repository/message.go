package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/persistence/db"
)

type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(database *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: database.Collection(db.CollectionMessages)}
}

func (r *MongoMessageRepository) Save(ctx context.Context, m *domain.Message) error {
	_, err := r.collection.InsertOne(ctx, m)
	return err
}

// FindByRoom returns the most recent messages in chronological order.
func (r *MongoMessageRepository) FindByRoom(ctx context.Context, roomCode string, limit int) ([]domain.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"room_code": roomCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Newest-first from the query, oldest-first for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MongoMessageRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": before}})
	return err
}
