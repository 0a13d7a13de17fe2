package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/persistence/inmemory"
	"github.com/roastparty/server/internal/presence"
)

type stubTracker struct {
	disconnected chan string
}

func newStubTracker() *stubTracker {
	return &stubTracker{disconnected: make(chan string, 4)}
}

func (s *stubTracker) Connect(string) int       { return 1 }
func (s *stubTracker) Associate(string, string) {}
func (s *stubTracker) Subscribe(string) int     { return 1 }
func (s *stubTracker) Unsubscribe(string) int   { return 0 }

func (s *stubTracker) Disconnect(sessionID string) int {
	s.disconnected <- sessionID
	return 0
}

func newHubClient(core *Core, sessionID string, queueSize int) *Client {
	return &Client{
		core:      core,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
		sessionID: sessionID,
		rooms:     make(map[string]struct{}),
	}
}

func Test_SlowConsumer_DropKeepsQueueUsable(t *testing.T) {
	req := require.New(t)

	store := inmemory.NewStore()
	core := NewCore(store.Messages(), 10, logging.NewNop())
	tracker := newStubTracker()
	core.AttachTracker(tracker)

	go core.Run()
	defer core.Stop()

	// Nothing drains the queue, so the second frame overflows it and the
	// hub drops the client.
	client := newHubClient(core, "session-1", 1)
	core.register <- client

	req.NoError(core.Publish(presence.GlobalChannel, 1))
	req.NoError(core.Publish(presence.GlobalChannel, 2))

	select {
	case sessionID := <-tracker.disconnected:
		req.Equal("session-1", sessionID)
	case <-time.After(time.Second):
		t.Fatal("slow client was not dropped")
	}

	// The read side can still report errors after the drop without
	// panicking on its queue.
	client.sendError("malformed frame")
	client.sendError("unknown action")

	select {
	case <-client.done:
	default:
		t.Fatal("dropped client was not shut down")
	}
}

func Test_Stop_ShutsDownClients(t *testing.T) {
	req := require.New(t)

	store := inmemory.NewStore()
	core := NewCore(store.Messages(), 10, logging.NewNop())

	go core.Run()

	client := newHubClient(core, "session-1", 64)
	core.register <- client

	core.Stop()

	select {
	case <-client.done:
	case <-time.After(time.Second):
		t.Fatal("client was not shut down on hub stop")
	}

	// Late inbound traffic after shutdown is dropped, not a crash.
	client.sendError("malformed frame")
	client.handleFrame(InboundFrame{Action: ActionSubscribe, RoomCode: "ABCD1234"})

	// The read pump's unregister handoff must not block once the hub is gone.
	released := make(chan struct{})
	go func() {
		select {
		case core.unregister <- client:
		case <-core.done:
		}
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after stop")
	}

	req.NotPanics(client.shutdown)
}
