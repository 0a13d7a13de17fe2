package presence

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roastparty/server/internal/infrastructure/logging"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	channels []string
	fail     bool
}

func (b *recordingBroadcaster) Publish(channel string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broadcast down")
	}
	b.channels = append(b.channels, channel)
	return nil
}

func (b *recordingBroadcaster) published(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, c := range b.channels {
		if c == channel {
			count++
		}
	}
	return count
}

func Test_Tracker_ConnectDisconnect(t *testing.T) {
	req := require.New(t)
	broadcaster := &recordingBroadcaster{}
	tracker := NewTracker(broadcaster, logging.NewNop())

	req.Equal(1, tracker.Connect("s1"))
	req.Equal(2, tracker.Connect("s2"))
	req.Equal(2, tracker.GlobalCount())

	req.Equal(1, tracker.Disconnect("s1"))
	req.Equal(0, tracker.Disconnect("s2"))
	req.Equal(0, tracker.GlobalCount())

	req.Equal(4, broadcaster.published(GlobalChannel))
}

func Test_Tracker_RoomCounters(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker(&recordingBroadcaster{}, logging.NewNop())

	req.Equal(1, tracker.Subscribe("ABCD1234"))
	req.Equal(2, tracker.Subscribe("ABCD1234"))
	req.Equal(1, tracker.Subscribe("ZZZZ9999"))

	req.Equal(2, tracker.RoomCount("ABCD1234"))

	req.Equal(1, tracker.Unsubscribe("ABCD1234"))
	req.Equal(0, tracker.Unsubscribe("ABCD1234"))
	req.Equal(0, tracker.RoomCount("ABCD1234"))
	req.Equal(1, tracker.RoomCount("ZZZZ9999"))

	// Unsubscribing a drained or unknown room is a no-op.
	req.Equal(0, tracker.Unsubscribe("ABCD1234"))
	req.Equal(0, tracker.Unsubscribe("NEVER"))
}

func Test_Tracker_ConcurrentSubscribes(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker(&recordingBroadcaster{}, logging.NewNop())

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Subscribe("ABCD1234")
		}()
	}
	wg.Wait()
	req.Equal(workers, tracker.RoomCount("ABCD1234"))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Unsubscribe("ABCD1234")
		}()
	}
	wg.Wait()
	req.Equal(0, tracker.RoomCount("ABCD1234"))
}

func Test_Tracker_BroadcastFailureDoesNotAffectCounts(t *testing.T) {
	req := require.New(t)
	broadcaster := &recordingBroadcaster{fail: true}
	tracker := NewTracker(broadcaster, logging.NewNop())

	req.Equal(1, tracker.Connect("s1"))
	req.Equal(1, tracker.Subscribe("ABCD1234"))
	req.Equal(1, tracker.GlobalCount())
	req.Equal(1, tracker.RoomCount("ABCD1234"))
}

func Test_Tracker_Associate(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker(&recordingBroadcaster{}, logging.NewNop())

	tracker.Connect("s1")
	tracker.Associate("s1", "user-1")
	req.Equal(0, tracker.Disconnect("s1"))

	// A second disconnect for the same session no longer finds a user.
	userID, ok := tracker.sessions.Load("s1")
	req.False(ok)
	req.Nil(userID)
}
