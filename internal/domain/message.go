package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeChat   MessageType = "CHAT"
	MessageTypeSystem MessageType = "SYSTEM"
)

// SystemUserID authors every lifecycle announcement.
const SystemUserID = "System"

// GlobalScope addresses announcements that are not bound to a single room.
const GlobalScope = "global"

// Message is a persisted room (or global) message. Lifecycle announcements
// are SYSTEM messages written by the announcer.
type Message struct {
	ID        string      `bson:"_id" json:"id"`
	RoomCode  string      `bson:"room_code" json:"roomCode"`
	UserID    string      `bson:"user_id" json:"userId"`
	Content   string      `bson:"content" json:"content"`
	Type      MessageType `bson:"type" json:"type"`
	CreatedAt time.Time   `bson:"created_at" json:"createdAt"`
}

func NewChatMessage(roomCode, userID, content string, now time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		UserID:    userID,
		Content:   content,
		Type:      MessageTypeChat,
		CreatedAt: now,
	}
}

func NewSystemMessage(scope, content string, now time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		RoomCode:  scope,
		UserID:    SystemUserID,
		Content:   content,
		Type:      MessageTypeSystem,
		CreatedAt: now,
	}
}
