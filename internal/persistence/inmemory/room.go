package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/roastparty/server/internal/domain"
)

type RoomRepository struct {
	store *Store
}

func (r *RoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	room, ok := r.store.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return &room, nil
}

func (r *RoomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.rooms[code]
	return ok, nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.rooms[room.Code] = *room
	return nil
}

func (r *RoomRepository) FindActiveByCreator(ctx context.Context, creatorID string, now time.Time) ([]domain.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rooms := []domain.Room{}
	for _, room := range r.store.rooms {
		if room.CreatorID == creatorID && room.IsActive && !room.IsExpired(now) {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (r *RoomRepository) FindByCreator(ctx context.Context, creatorID string) ([]domain.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rooms := []domain.Room{}
	for _, room := range r.store.rooms {
		if room.CreatorID == creatorID {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (r *RoomRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rooms := []domain.Room{}
	for _, room := range r.store.rooms {
		if room.IsActive && room.IsExpired(now) {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (r *RoomRepository) FindByCodes(ctx context.Context, codes []string) ([]domain.Room, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rooms := []domain.Room{}
	for _, code := range codes {
		if room, ok := r.store.rooms[code]; ok {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}
