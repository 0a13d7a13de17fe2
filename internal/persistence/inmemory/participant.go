package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/roastparty/server/internal/domain"
)

type ParticipantRepository struct {
	store *Store
}

func (r *ParticipantRepository) FindByRoomAndUser(ctx context.Context, roomCode, userID string) (*domain.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.participants {
		if p.RoomCode == roomCode && p.UserID == userID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotParticipant
}

func (r *ParticipantRepository) FindActiveByRoom(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	participants := []domain.Participant{}
	for _, p := range r.store.participants {
		if p.RoomCode == roomCode && p.IsActive {
			participants = append(participants, p)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

func (r *ParticipantRepository) CountActiveByRoom(ctx context.Context, roomCode string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, p := range r.store.participants {
		if p.RoomCode == roomCode && p.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *ParticipantRepository) FindRoomCodesByUser(ctx context.Context, userID string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := map[string]struct{}{}
	codes := []string{}
	for _, p := range r.store.participants {
		if p.UserID != userID {
			continue
		}
		if _, ok := seen[p.RoomCode]; ok {
			continue
		}
		seen[p.RoomCode] = struct{}{}
		codes = append(codes, p.RoomCode)
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *ParticipantRepository) Save(ctx context.Context, p *domain.Participant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.participants[p.ID] = *p
	return nil
}

func (r *ParticipantRepository) UpdateLastSeen(ctx context.Context, userID, roomCode string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, p := range r.store.participants {
		if p.RoomCode == roomCode && p.UserID == userID {
			p.LastSeenAt = at
			r.store.participants[id] = p
			return nil
		}
	}
	return domain.ErrNotParticipant
}

func (r *ParticipantRepository) Deactivate(ctx context.Context, userID, roomCode string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, p := range r.store.participants {
		if p.RoomCode == roomCode && p.UserID == userID {
			p.IsActive = false
			r.store.participants[id] = p
			return nil
		}
	}
	return domain.ErrNotParticipant
}

func (r *ParticipantRepository) FindSeenBefore(ctx context.Context, threshold time.Time) ([]domain.Participant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	participants := []domain.Participant{}
	for _, p := range r.store.participants {
		if p.LastSeenAt.Before(threshold) {
			participants = append(participants, p)
		}
	}
	return participants, nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.participants, id)
	return nil
}
