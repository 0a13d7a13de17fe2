package presence

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/metrics"
)

// GlobalChannel carries the global connection count; room counts go to
// RoomChannel(code).
const GlobalChannel = "presence"

func RoomChannel(roomCode string) string {
	return fmt.Sprintf("room/%s/presence", roomCode)
}

// Broadcaster pushes a payload to a well-known channel, fire and forget.
type Broadcaster interface {
	Publish(channel string, payload any) error
}

// Tracker keeps in-process live counters: one global connection count and one
// subscriber count per room. Nothing here is persisted. Every mutation
// broadcasts the new value; a failed broadcast never affects the counters.
type Tracker struct {
	global atomic.Int64

	mu    sync.Mutex
	rooms map[string]int

	sessions sync.Map // session id -> user id

	broadcaster Broadcaster
	logger      logging.Logger
}

func NewTracker(broadcaster Broadcaster, logger logging.Logger) *Tracker {
	return &Tracker{
		rooms:       make(map[string]int),
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Connect registers a new live connection and returns the global count.
func (t *Tracker) Connect(sessionID string) int {
	count := int(t.global.Add(1))
	metrics.OpenConnections.Set(float64(count))

	t.logger.Info(logging.Presence, logging.Connection, "connection established", map[logging.ExtraKey]any{
		"session_id":  sessionID,
		"connections": count,
	})

	t.broadcast(GlobalChannel, count)
	return count
}

// Disconnect drops a live connection and forgets any user association
// recorded for the session.
func (t *Tracker) Disconnect(sessionID string) int {
	count := int(t.global.Add(-1))
	metrics.OpenConnections.Set(float64(count))

	if userID, ok := t.sessions.LoadAndDelete(sessionID); ok {
		t.logger.Info(logging.Presence, logging.Connection, "user disconnected", map[logging.ExtraKey]any{
			"session_id": sessionID,
			"user_id":    userID,
		})
	}

	t.broadcast(GlobalChannel, count)
	return count
}

// Associate records which user a session belongs to, so Disconnect can
// report it.
func (t *Tracker) Associate(sessionID, userID string) {
	t.sessions.Store(sessionID, userID)
}

// Subscribe bumps the room's subscriber count, creating the counter on first
// use, and returns the new count.
func (t *Tracker) Subscribe(roomCode string) int {
	t.mu.Lock()
	t.rooms[roomCode]++
	count := t.rooms[roomCode]
	t.mu.Unlock()

	metrics.RoomSubscribers.WithLabelValues(roomCode).Set(float64(count))
	t.broadcast(RoomChannel(roomCode), count)
	return count
}

// Unsubscribe drops the room's subscriber count and removes the counter once
// it drains to zero. Safe against concurrent first-use and drain races: all
// map mutations happen under one lock.
func (t *Tracker) Unsubscribe(roomCode string) int {
	t.mu.Lock()
	count, ok := t.rooms[roomCode]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	count--
	if count <= 0 {
		delete(t.rooms, roomCode)
		count = 0
	} else {
		t.rooms[roomCode] = count
	}
	t.mu.Unlock()

	if count == 0 {
		metrics.RoomSubscribers.DeleteLabelValues(roomCode)
	} else {
		metrics.RoomSubscribers.WithLabelValues(roomCode).Set(float64(count))
		t.broadcast(RoomChannel(roomCode), count)
	}
	return count
}

// GlobalCount returns the current number of live connections.
func (t *Tracker) GlobalCount() int {
	return int(t.global.Load())
}

// RoomCount returns the current subscriber count for a room, zero if the
// counter does not exist.
func (t *Tracker) RoomCount(roomCode string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms[roomCode]
}

func (t *Tracker) broadcast(channel string, count int) {
	if t.broadcaster == nil {
		return
	}
	if err := t.broadcaster.Publish(channel, countPayload{Count: count}); err != nil {
		t.logger.Warn(logging.Presence, logging.Connection, "failed to broadcast presence count", map[logging.ExtraKey]any{
			"channel":      channel,
			"errorMessage": err.Error(),
		})
	}
}

type countPayload struct {
	Count int `json:"count"`
}
