package domain

import (
	"context"
	"time"
)

// RoomRepository is keyed storage for rooms. Implementations must enforce
// code uniqueness at the store level.
type RoomRepository interface {
	FindByCode(ctx context.Context, code string) (*Room, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, room *Room) error
	FindActiveByCreator(ctx context.Context, creatorID string, now time.Time) ([]Room, error)
	FindByCreator(ctx context.Context, creatorID string) ([]Room, error)
	FindExpired(ctx context.Context, now time.Time) ([]Room, error)
	FindByCodes(ctx context.Context, codes []string) ([]Room, error)
}

// ParticipantRepository is keyed storage for membership rows, joined to rooms
// by room code. Implementations must enforce (room_code, user_id) uniqueness.
type ParticipantRepository interface {
	FindByRoomAndUser(ctx context.Context, roomCode, userID string) (*Participant, error)
	FindActiveByRoom(ctx context.Context, roomCode string) ([]Participant, error)
	CountActiveByRoom(ctx context.Context, roomCode string) (int, error)
	FindRoomCodesByUser(ctx context.Context, userID string) ([]string, error)
	Save(ctx context.Context, p *Participant) error
	UpdateLastSeen(ctx context.Context, userID, roomCode string, at time.Time) error
	Deactivate(ctx context.Context, userID, roomCode string) error
	FindSeenBefore(ctx context.Context, threshold time.Time) ([]Participant, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository stores room and global messages, including system
// announcements.
type MessageRepository interface {
	Save(ctx context.Context, m *Message) error
	FindByRoom(ctx context.Context, roomCode string, limit int) ([]Message, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
}

// TxRunner serializes a multi-step write. The mongo backend runs fn inside a
// session transaction; the in-memory backend holds a coarse lock. fn must use
// the ctx it is handed for every store call.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Announcer persists and broadcasts a short system-authored lifecycle
// notification. Scope is a room code or GlobalScope. Best effort: callers
// never fail an operation on announcement errors.
type Announcer interface {
	Announce(ctx context.Context, scope, text string)
}
