package ws

// Action is the verb of an inbound client frame.
type Action string

const (
	// ActionSubscribe attaches the client to a room's chat and presence
	// channels and bumps the room's subscriber count.
	ActionSubscribe Action = "subscribe"
	// ActionUnsubscribe detaches the client from a room.
	ActionUnsubscribe Action = "unsubscribe"
	// ActionAssociate binds the session to a user id so disconnects can be
	// attributed.
	ActionAssociate Action = "associate"
	// ActionChat sends a chat message to a subscribed room.
	ActionChat Action = "chat"
)

type InboundFrame struct {
	Action   Action `json:"action"`
	RoomCode string `json:"roomCode,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Content  string `json:"content,omitempty"`
}

type OutboundFrame struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Error string `json:"error"`
}
