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

type MongoParticipantRepository struct {
	collection *mongo.Collection
}

func NewMongoParticipantRepository(database *mongo.Database) *MongoParticipantRepository {
	return &MongoParticipantRepository{collection: database.Collection(db.CollectionParticipants)}
}

func (r *MongoParticipantRepository) FindByRoomAndUser(ctx context.Context, roomCode, userID string) (*domain.Participant, error) {
	var p domain.Participant
	err := r.collection.FindOne(ctx, bson.M{"room_code": roomCode, "user_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotParticipant
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoParticipantRepository) FindActiveByRoom(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"room_code": roomCode, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := []domain.Participant{}
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *MongoParticipantRepository) CountActiveByRoom(ctx context.Context, roomCode string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"room_code": roomCode, "is_active": true})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *MongoParticipantRepository) FindRoomCodesByUser(ctx context.Context, userID string) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "room_code", bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(raw))
	for _, v := range raw {
		if code, ok := v.(string); ok {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (r *MongoParticipantRepository) Save(ctx context.Context, p *domain.Participant) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, opts)
	return err
}

func (r *MongoParticipantRepository) UpdateLastSeen(ctx context.Context, userID, roomCode string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"room_code": roomCode, "user_id": userID},
		bson.M{"$set": bson.M{"last_seen_at": at}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *MongoParticipantRepository) Deactivate(ctx context.Context, userID, roomCode string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"room_code": roomCode, "user_id": userID},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *MongoParticipantRepository) FindSeenBefore(ctx context.Context, threshold time.Time) ([]domain.Participant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"last_seen_at": bson.M{"$lt": threshold}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := []domain.Participant{}
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *MongoParticipantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
