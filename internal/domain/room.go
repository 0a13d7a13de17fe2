package domain

import (
	"strings"
	"time"
)

const (
	CodeLength = 8
	CodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultMaxParticipants = 20
	DefaultDurationHours   = 24

	// MaxRoomsPerCreator bounds how many active, unexpired rooms a single
	// creator may hold at once.
	MaxRoomsPerCreator = 3
)

// Room is an ephemeral, code-joinable group session. The code is assigned
// once and never changes; rooms are deactivated rather than deleted.
type Room struct {
	Code            string    `bson:"_id" json:"roomCode"`
	Name            string    `bson:"name" json:"roomName"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatorID       string    `bson:"creator_id" json:"creatorId"`
	MaxParticipants int       `bson:"max_participants" json:"maxParticipants"`
	IsActive        bool      `bson:"is_active" json:"isActive"`
	IsPrivate       bool      `bson:"is_private" json:"isPrivate"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
	ExpiresAt       time.Time `bson:"expires_at" json:"expiresAt"`
}

type RoomSpec struct {
	Name            string
	Description     string
	MaxParticipants int
	IsPrivate       bool
	DurationHours   int
}

func NewRoom(code string, spec RoomSpec, creatorID string, now time.Time) *Room {
	maxParticipants := spec.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = DefaultMaxParticipants
	}
	durationHours := spec.DurationHours
	if durationHours == 0 {
		durationHours = DefaultDurationHours
	}

	return &Room{
		Code:            code,
		Name:            strings.TrimSpace(spec.Name),
		Description:     strings.TrimSpace(spec.Description),
		CreatorID:       creatorID,
		MaxParticipants: maxParticipants,
		IsActive:        true,
		IsPrivate:       spec.IsPrivate,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(durationHours) * time.Hour),
	}
}

// IsExpired reports whether the deadline has been reached. The boundary
// instant itself counts as expired, matching the store-side sweep queries.
func (r *Room) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

func (r *Room) IsFull(activeParticipants int) bool {
	return activeParticipants >= r.MaxParticipants
}

func (r *Room) IsCreator(userID string) bool {
	return r.CreatorID == userID
}

// ExtendExpiry pushes expiresAt forward. Expiry only ever grows; the original
// deadline is never replaced.
func (r *Room) ExtendExpiry(hours int, now time.Time) {
	r.ExpiresAt = r.ExpiresAt.Add(time.Duration(hours) * time.Hour)
	r.Touch(now)
}

func (r *Room) Touch(now time.Time) {
	r.UpdatedAt = now
}

// NormalizeCode canonicalizes a caller-supplied room code. Codes are
// case-insensitive on input and always stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
