package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleCreator   ParticipantRole = "CREATOR"
	RoleModerator ParticipantRole = "MODERATOR"
	RoleMember    ParticipantRole = "MEMBER"
)

// Participant is one user's membership record within one room. There is at
// most one row per (room, user); rejoining reactivates the existing row.
type Participant struct {
	ID          string          `bson:"_id" json:"id"`
	RoomCode    string          `bson:"room_code" json:"roomCode"`
	UserID      string          `bson:"user_id" json:"userId"`
	DisplayName string          `bson:"display_name" json:"displayName"`
	Role        ParticipantRole `bson:"role" json:"role"`
	IsActive    bool            `bson:"is_active" json:"isActive"`
	JoinedAt    time.Time       `bson:"joined_at" json:"joinedAt"`
	LastSeenAt  time.Time       `bson:"last_seen_at" json:"lastSeenAt"`
}

func NewParticipant(roomCode, userID, displayName string, role ParticipantRole, now time.Time) *Participant {
	return &Participant{
		ID:          uuid.NewString(),
		RoomCode:    roomCode,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		IsActive:    true,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
}

// Reactivate flips a left participant back to active on rejoin.
func (p *Participant) Reactivate(now time.Time) {
	p.IsActive = true
	p.LastSeenAt = now
}

func (p *Participant) Deactivate() {
	p.IsActive = false
}

func (p *Participant) UpdateLastSeen(now time.Time) {
	p.LastSeenAt = now
}

// IsOnline reports whether the participant was seen within the last five
// minutes. Purely informational; activity sweeps use their own thresholds.
func (p *Participant) IsOnline(now time.Time) bool {
	if p.LastSeenAt.IsZero() {
		return false
	}
	return p.LastSeenAt.After(now.Add(-5 * time.Minute))
}
