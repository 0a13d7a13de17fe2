package contracts

import "time"

// Routing keys for events published to the rooms exchange.
const (
	RoutingKeyRoomCreated  = "room.created"
	RoutingKeyRoomExpired  = "room.expired"
	RoutingKeyMemberJoined = "member.joined"
	RoutingKeyMemberLeft   = "member.left"
	RoutingKeyAnnouncement = "announcement.posted"
)

type RoomCreatedMessage struct {
	RoomCode  string    `json:"roomCode"`
	RoomName  string    `json:"roomName"`
	CreatorID string    `json:"creatorId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomExpiredMessage struct {
	RoomCode  string    `json:"roomCode"`
	ExpiredAt time.Time `json:"expiredAt"`
}

type MemberJoinedMessage struct {
	RoomCode    string    `json:"roomCode"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type MemberLeftMessage struct {
	RoomCode string    `json:"roomCode"`
	UserID   string    `json:"userId"`
	LeftAt   time.Time `json:"leftAt"`
}

type AnnouncementMessage struct {
	Scope   string    `json:"scope"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
}
