package inmemory

import (
	"context"
	"time"

	"github.com/roastparty/server/internal/domain"
)

type MessageRepository struct {
	store *Store
}

func (r *MessageRepository) Save(ctx context.Context, m *domain.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.messages = append(r.store.messages, *m)
	return nil
}

// FindByRoom returns the last messages for the room in insertion order.
func (r *MessageRepository) FindByRoom(ctx context.Context, roomCode string, limit int) ([]domain.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := []domain.Message{}
	for _, m := range r.store.messages {
		if m.RoomCode == roomCode {
			matched = append(matched, m)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (r *MessageRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if !m.CreatedAt.Before(before) {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}
