package service

import (
	"time"

	"github.com/roastparty/server/internal/domain"
)

// RoomView is the read model returned by room operations: the room record
// plus derived state and, optionally, its participant list.
type RoomView struct {
	RoomCode            string            `json:"roomCode"`
	RoomName            string            `json:"roomName"`
	Description         string            `json:"description,omitempty"`
	CreatorID           string            `json:"creatorId,omitempty"`
	MaxParticipants     int               `json:"maxParticipants"`
	CurrentParticipants int               `json:"currentParticipants"`
	IsActive            bool              `json:"isActive"`
	IsPrivate           bool              `json:"isPrivate"`
	CreatedAt           time.Time         `json:"createdAt"`
	ExpiresAt           time.Time         `json:"expiresAt"`
	IsExpired           bool              `json:"isExpired"`
	IsFull              bool              `json:"isFull"`
	Participants        []ParticipantView `json:"participants,omitempty"`
}

type ParticipantView struct {
	UserID      string                 `json:"userId"`
	DisplayName string                 `json:"displayName"`
	Role        domain.ParticipantRole `json:"role"`
	IsActive    bool                   `json:"isActive"`
	IsOnline    bool                   `json:"isOnline"`
	JoinedAt    time.Time              `json:"joinedAt"`
	LastSeenAt  time.Time              `json:"lastSeenAt"`
}

func newRoomView(room *domain.Room, participants []domain.Participant, now time.Time) *RoomView {
	active := 0
	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		if p.IsActive {
			active++
		}
		views = append(views, ParticipantView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Role:        p.Role,
			IsActive:    p.IsActive,
			IsOnline:    p.IsOnline(now),
			JoinedAt:    p.JoinedAt,
			LastSeenAt:  p.LastSeenAt,
		})
	}

	return &RoomView{
		RoomCode:            room.Code,
		RoomName:            room.Name,
		Description:         room.Description,
		CreatorID:           room.CreatorID,
		MaxParticipants:     room.MaxParticipants,
		CurrentParticipants: active,
		IsActive:            room.IsActive,
		IsPrivate:           room.IsPrivate,
		CreatedAt:           room.CreatedAt,
		ExpiresAt:           room.ExpiresAt,
		IsExpired:           room.IsExpired(now),
		IsFull:              room.IsFull(active),
		Participants:        views,
	}
}

// newBasicRoomView omits the participant roster; it is what outsiders see.
func newBasicRoomView(room *domain.Room, activeCount int, now time.Time) *RoomView {
	return &RoomView{
		RoomCode:            room.Code,
		RoomName:            room.Name,
		Description:         room.Description,
		MaxParticipants:     room.MaxParticipants,
		CurrentParticipants: activeCount,
		IsActive:            room.IsActive,
		IsPrivate:           room.IsPrivate,
		CreatedAt:           room.CreatedAt,
		ExpiresAt:           room.ExpiresAt,
		IsExpired:           room.IsExpired(now),
		IsFull:              room.IsFull(activeCount),
	}
}
