package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/persistence/db"
)

type MongoRoomRepository struct {
	collection *mongo.Collection
}

func NewMongoRoomRepository(database *mongo.Database) *MongoRoomRepository {
	return &MongoRoomRepository{collection: database.Collection(db.CollectionRooms)}
}

func (r *MongoRoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": code}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *MongoRoomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": code})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": room.Code}, room, opts)
	return err
}

func (r *MongoRoomRepository) FindActiveByCreator(ctx context.Context, creatorID string, now time.Time) ([]domain.Room, error) {
	return r.findAll(ctx, bson.M{
		"creator_id": creatorID,
		"is_active":  true,
		"expires_at": bson.M{"$gt": now},
	}, nil)
}

func (r *MongoRoomRepository) FindByCreator(ctx context.Context, creatorID string) ([]domain.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.findAll(ctx, bson.M{"creator_id": creatorID}, opts)
}

func (r *MongoRoomRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Room, error) {
	return r.findAll(ctx, bson.M{
		"is_active":  true,
		"expires_at": bson.M{"$lte": now},
	}, nil)
}

func (r *MongoRoomRepository) FindByCodes(ctx context.Context, codes []string) ([]domain.Room, error) {
	if len(codes) == 0 {
		return []domain.Room{}, nil
	}
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": codes}}, nil)
}

func (r *MongoRoomRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Room, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []domain.Room{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
