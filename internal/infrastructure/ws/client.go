package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/events"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. The read pump turns inbound frames
// into hub commands; the write pump drains the send queue.
type Client struct {
	core *Core
	conn *connWrapper
	send chan []byte

	// done is closed by the hub when the client is dropped. The send queue
	// itself is never closed; the read pump keeps a reference to it and may
	// still try to queue frames after the drop.
	done      chan struct{}
	closeOnce sync.Once

	sessionID string
	userID    string

	// rooms the client is subscribed to. Owned by the hub goroutine.
	rooms map[string]struct{}
}

func newClient(core *Core, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		core:      core,
		conn:      newConnWrapper(conn),
		send:      make(chan []byte, 64),
		done:      make(chan struct{}),
		sessionID: sessionID,
		rooms:     make(map[string]struct{}),
	}
}

// shutdown signals both pumps to wind down. Safe to call more than once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) subscribedTo(channel string) bool {
	if channel == presence.GlobalChannel || channel == events.ChatChannel(domain.GlobalScope) {
		return true
	}
	rest, ok := strings.CutPrefix(channel, "room/")
	if !ok {
		return false
	}
	code, _, ok := strings.Cut(rest, "/")
	if !ok {
		return false
	}
	_, subscribed := c.rooms[code]
	return subscribed
}

func (c *Client) readPump() {
	defer func() {
		// The hub may already be gone after Stop; never block on it.
		select {
		case c.core.unregister <- c:
		case <-c.core.done:
		}
		c.conn.Close()
	}()

	c.conn.conn.SetReadLimit(maxMessageSize)
	c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.core.logger.Warn(logging.Presence, logging.Connection, "unexpected close", map[logging.ExtraKey]any{
					"session_id":   c.sessionID,
					"errorMessage": err.Error(),
				})
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendError("malformed frame")
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame InboundFrame) {
	switch frame.Action {
	case ActionAssociate:
		if frame.UserID == "" {
			c.sendError("userId is required")
			return
		}
		c.userID = frame.UserID
		if c.core.tracker != nil {
			c.core.tracker.Associate(c.sessionID, frame.UserID)
		}

	case ActionSubscribe:
		code := domain.NormalizeCode(frame.RoomCode)
		if code == "" {
			c.sendError("roomCode is required")
			return
		}
		select {
		case c.core.subscribe <- subscription{client: c, roomCode: code}:
		case <-c.core.done:
		}

	case ActionUnsubscribe:
		code := domain.NormalizeCode(frame.RoomCode)
		if code == "" {
			c.sendError("roomCode is required")
			return
		}
		select {
		case c.core.unsubscribe <- subscription{client: c, roomCode: code}:
		case <-c.core.done:
		}

	case ActionChat:
		c.handleChat(frame)

	default:
		c.sendError("unknown action")
	}
}

func (c *Client) handleChat(frame InboundFrame) {
	if c.userID == "" {
		c.sendError("associate a user before chatting")
		return
	}
	code := domain.NormalizeCode(frame.RoomCode)
	content := strings.TrimSpace(frame.Content)
	if code == "" || content == "" {
		c.sendError("roomCode and content are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !c.core.rooms.IsUserInRoom(ctx, code, c.userID) {
		c.sendError("not a participant of this room")
		return
	}

	msg := domain.NewChatMessage(code, c.userID, content, time.Now())
	if err := c.core.messages.Save(ctx, msg); err != nil {
		c.core.logger.Warn(logging.Presence, logging.Connection, "failed to persist chat message", map[logging.ExtraKey]any{
			"room_code":    code,
			"errorMessage": err.Error(),
		})
	}

	c.core.rooms.UpdateActivity(ctx, code, c.userID)

	if err := c.core.Publish(events.ChatChannel(code), msg); err != nil {
		c.core.logger.Warn(logging.Presence, logging.Connection, "failed to broadcast chat message", map[logging.ExtraKey]any{
			"room_code":    code,
			"errorMessage": err.Error(),
		})
	}
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(OutboundFrame{Channel: "errors", Payload: errorPayload{Error: message}})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
