package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/events"
	"github.com/roastparty/server/internal/infrastructure/logging"
)

// ErrBufferFull is returned when the outbound queue cannot accept another
// frame. The frame is dropped, not queued.
var ErrBufferFull = errors.New("ws: broadcast buffer full")

const broadcastBuffer = 256

// PresenceTracker mirrors connection and subscription changes into live
// counters.
type PresenceTracker interface {
	Connect(sessionID string) int
	Disconnect(sessionID string) int
	Associate(sessionID, userID string)
	Subscribe(roomCode string) int
	Unsubscribe(roomCode string) int
}

// RoomGuard answers membership questions and records activity for chat
// traffic.
type RoomGuard interface {
	IsUserInRoom(ctx context.Context, code, userID string) bool
	UpdateActivity(ctx context.Context, code, userID string)
}

type subscription struct {
	client   *Client
	roomCode string
}

type envelope struct {
	channel string
	data    []byte
}

// Core is the websocket hub. All client registration, channel membership and
// fan-out runs on the single Run goroutine; everything else talks to it over
// channels.
type Core struct {
	tracker  PresenceTracker
	rooms    RoomGuard
	messages domain.MessageRepository
	logger   logging.Logger

	historyLimit int

	clients     map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan envelope

	done chan struct{}
}

func NewCore(messages domain.MessageRepository, historyLimit int, logger logging.Logger) *Core {
	return &Core{
		messages:     messages,
		logger:       logger,
		historyLimit: historyLimit,
		clients:      make(map[*Client]struct{}),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		subscribe:    make(chan subscription),
		unsubscribe:  make(chan subscription),
		broadcast:    make(chan envelope, broadcastBuffer),
		done:         make(chan struct{}),
	}
}

// AttachTracker wires the presence tracker in after construction. The
// tracker broadcasts through this core, so the two reference each other.
func (c *Core) AttachTracker(tracker PresenceTracker) {
	c.tracker = tracker
}

// AttachRooms wires the room guard in after construction, breaking the
// construction cycle between the hub and the room service.
func (c *Core) AttachRooms(rooms RoomGuard) {
	c.rooms = rooms
}

// Publish queues a frame for every client subscribed to the channel. Never
// blocks; drops the frame when the buffer is full.
func (c *Core) Publish(channel string, payload any) error {
	data, err := json.Marshal(OutboundFrame{Channel: channel, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case c.broadcast <- envelope{channel: channel, data: data}:
		return nil
	default:
		return ErrBufferFull
	}
}

func (c *Core) Run() {
	for {
		select {
		case client := <-c.register:
			c.clients[client] = struct{}{}
			if c.tracker != nil {
				c.tracker.Connect(client.sessionID)
			}

		case client := <-c.unregister:
			if _, ok := c.clients[client]; !ok {
				continue
			}
			for roomCode := range client.rooms {
				if c.tracker != nil {
					c.tracker.Unsubscribe(roomCode)
				}
			}
			delete(c.clients, client)
			client.shutdown()
			if c.tracker != nil {
				c.tracker.Disconnect(client.sessionID)
			}

		case sub := <-c.subscribe:
			if _, ok := sub.client.rooms[sub.roomCode]; ok {
				continue
			}
			sub.client.rooms[sub.roomCode] = struct{}{}
			if c.tracker != nil {
				c.tracker.Subscribe(sub.roomCode)
			}
			c.sendHistory(sub.client, sub.roomCode)

		case sub := <-c.unsubscribe:
			if _, ok := sub.client.rooms[sub.roomCode]; !ok {
				continue
			}
			delete(sub.client.rooms, sub.roomCode)
			if c.tracker != nil {
				c.tracker.Unsubscribe(sub.roomCode)
			}

		case env := <-c.broadcast:
			for client := range c.clients {
				if !client.subscribedTo(env.channel) {
					continue
				}
				select {
				case client.send <- env.data:
				default:
					// Slow consumer, drop it.
					for roomCode := range client.rooms {
						if c.tracker != nil {
							c.tracker.Unsubscribe(roomCode)
						}
					}
					delete(c.clients, client)
					client.shutdown()
					if c.tracker != nil {
						c.tracker.Disconnect(client.sessionID)
					}
				}
			}

		case <-c.done:
			for client := range c.clients {
				client.shutdown()
			}
			c.clients = make(map[*Client]struct{})
			return
		}
	}
}

func (c *Core) Stop() {
	close(c.done)
}

// sendHistory replays the recent room messages to a fresh subscriber,
// directly on its queue rather than through broadcast.
func (c *Core) sendHistory(client *Client, roomCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	history, err := c.messages.FindByRoom(ctx, roomCode, c.historyLimit)
	if err != nil {
		c.logger.Warn(logging.Presence, logging.Connection, "failed to load room history", map[logging.ExtraKey]any{
			"room_code":    roomCode,
			"errorMessage": err.Error(),
		})
		return
	}

	channel := events.ChatChannel(roomCode)
	for i := range history {
		data, err := json.Marshal(OutboundFrame{Channel: channel, Payload: &history[i]})
		if err != nil {
			continue
		}
		select {
		case client.send <- data:
		default:
			return
		}
	}
}
