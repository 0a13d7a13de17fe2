package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/persistence/inmemory"
)

type recordingAnnouncer struct {
	mu    sync.Mutex
	notes []string
}

func (a *recordingAnnouncer) Announce(_ context.Context, scope, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes = append(a.notes, scope+": "+text)
}

func (a *recordingAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.notes)
}

type nopPublisher struct{}

func (nopPublisher) RoomCreated(context.Context, *domain.Room)         {}
func (nopPublisher) RoomExpired(context.Context, string)               {}
func (nopPublisher) MemberJoined(context.Context, *domain.Participant) {}
func (nopPublisher) MemberLeft(context.Context, string, string)        {}

func newTestService(t *testing.T) (*RoomService, *recordingAnnouncer) {
	t.Helper()

	store := inmemory.NewStore()
	announcer := &recordingAnnouncer{}
	svc := NewRoomService(store.Rooms(), store.Participants(), store.Messages(), store.Tx(), announcer, nopPublisher{}, logging.NewNop())
	return svc, announcer
}

func Test_CreateRoom_Defaults(t *testing.T) {
	req := require.New(t)
	svc, announcer := newTestService(t)
	ctx := context.Background()

	view, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	req.Len(view.RoomCode, domain.CodeLength)
	req.Equal("Friday Roast", view.RoomName)
	req.Equal(domain.DefaultMaxParticipants, view.MaxParticipants)
	req.Equal(1, view.CurrentParticipants)
	req.True(view.IsActive)
	req.Len(view.Participants, 1)
	req.Equal(domain.RoleCreator, view.Participants[0].Role)
	req.Equal(1, announcer.count())
}

func Test_CreateRoom_LimitPerCreator(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < domain.MaxRoomsPerCreator; i++ {
		_, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Roast Room"}, "creator-1")
		req.NoError(err)
	}

	_, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "One Too Many"}, "creator-1")
	req.ErrorIs(err, domain.ErrRoomLimitExceeded)

	// A different creator is unaffected.
	_, err = svc.CreateRoom(ctx, domain.RoomSpec{Name: "Other Roast"}, "creator-2")
	req.NoError(err)
}

func Test_JoinRoom(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	view, err := svc.JoinRoom(ctx, created.RoomCode, "user-2", "Roast Master")
	req.NoError(err)
	req.Equal(2, view.CurrentParticipants)

	found := false
	for _, p := range view.Participants {
		if p.UserID == "user-2" {
			found = true
			req.Equal("Roast Master", p.DisplayName)
			req.Equal(domain.RoleMember, p.Role)
		}
	}
	req.True(found)
}

func Test_JoinRoom_CodeIsCaseInsensitive(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	lower := "  " + strings.ToLower(created.RoomCode) + " "
	view, err := svc.JoinRoom(ctx, lower, "user-2", "")
	req.NoError(err)
	req.Equal(created.RoomCode, view.RoomCode)
}

func Test_JoinRoom_GeneratedDisplayName(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	view, err := svc.JoinRoom(ctx, created.RoomCode, "user-2", "   ")
	req.NoError(err)

	for _, p := range view.Participants {
		if p.UserID == "user-2" {
			req.NotEmpty(p.DisplayName)
			req.Equal(GenerateDisplayName("user-2"), p.DisplayName)
		}
	}
}

func Test_JoinRoom_AlreadyJoined(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.ErrorIs(err, domain.ErrAlreadyJoined)
}

func Test_JoinRoom_ReactivatesAfterLeave(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "Roast Master")
	req.NoError(err)
	req.NoError(svc.LeaveRoom(ctx, created.RoomCode, "user-2"))

	view, err := svc.JoinRoom(ctx, created.RoomCode, "user-2", "Ignored Name")
	req.NoError(err)

	for _, p := range view.Participants {
		if p.UserID == "user-2" {
			// The original row is reactivated, original name kept.
			req.Equal("Roast Master", p.DisplayName)
			req.True(p.IsActive)
		}
	}
}

func Test_JoinRoom_NotFound(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)

	_, err := svc.JoinRoom(context.Background(), "ZZZZZZZZ", "user-2", "")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func Test_JoinRoom_Full(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Tiny Roast", MaxParticipants: 2}, "creator-1")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-3", "")
	req.ErrorIs(err, domain.ErrRoomFull)
}

func Test_JoinRoom_InactiveBeatsExpired(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast", DurationHours: 1}, "creator-1")
	req.NoError(err)

	inactive := false
	_, err = svc.UpdateSettings(ctx, created.RoomCode, SettingsPatch{IsActive: &inactive}, "creator-1")
	req.NoError(err)

	// Push time past expiry; the room is now both inactive and expired.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.ErrorIs(err, domain.ErrRoomInactive)
}

func Test_JoinRoom_Expired(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast", DurationHours: 1}, "creator-1")
	req.NoError(err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.ErrorIs(err, domain.ErrRoomExpired)
}

func Test_JoinRoom_ConcurrentLastSlot(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Tiny Roast", MaxParticipants: 2}, "creator-1")
	req.NoError(err)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.JoinRoom(ctx, created.RoomCode, "contender-"+string(rune('a'+i)), "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			req.ErrorIs(err, domain.ErrRoomFull)
		}
	}
	req.Equal(1, succeeded)
}

func Test_LeaveRoom_NotParticipant(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	err = svc.LeaveRoom(ctx, created.RoomCode, "stranger")
	req.ErrorIs(err, domain.ErrNotParticipant)
}

func Test_UpdateSettings_CreatorOnly(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	name := "Renamed"
	_, err = svc.UpdateSettings(ctx, created.RoomCode, SettingsPatch{Name: &name}, "user-2")
	req.ErrorIs(err, domain.ErrUnauthorized)
}

func Test_UpdateSettings_AppliesFields(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast", DurationHours: 1}, "creator-1")
	req.NoError(err)

	name := "  Saturday Roast  "
	limit := 10
	extend := 2
	view, err := svc.UpdateSettings(ctx, created.RoomCode, SettingsPatch{
		Name:            &name,
		MaxParticipants: &limit,
		ExtendHours:     &extend,
	}, "creator-1")
	req.NoError(err)

	req.Equal("Saturday Roast", view.RoomName)
	req.Equal(10, view.MaxParticipants)
	req.Equal(created.ExpiresAt.Add(2*time.Hour), view.ExpiresAt)
}

func Test_UpdateSettings_LimitBelowCurrent(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)
	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.NoError(err)
	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-3", "")
	req.NoError(err)

	limit := 2
	_, err = svc.UpdateSettings(ctx, created.RoomCode, SettingsPatch{MaxParticipants: &limit}, "creator-1")
	req.ErrorIs(err, domain.ErrInvalidParticipantLimit)
}

func Test_UpdateSettings_ReopensExpiredRoom(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast", DurationHours: 1}, "creator-1")
	req.NoError(err)

	base := time.Now()
	svc.now = func() time.Time { return base.Add(90 * time.Minute) }

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.ErrorIs(err, domain.ErrRoomExpired)

	extend := 3
	_, err = svc.UpdateSettings(ctx, created.RoomCode, SettingsPatch{ExtendHours: &extend}, "creator-1")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.NoError(err)
}

func Test_GetBasicRoomByCode_HidesRoster(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	view, err := svc.GetBasicRoomByCode(ctx, created.RoomCode)
	req.NoError(err)
	req.Empty(view.Participants)
	req.Empty(view.CreatorID)
	req.Equal(1, view.CurrentParticipants)
}

func Test_GetUserRooms_IncludesLeftRooms(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "First Roast"}, "creator-1")
	req.NoError(err)
	second, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Second Roast"}, "creator-2")
	req.NoError(err)

	_, err = svc.JoinRoom(ctx, second.RoomCode, "creator-1", "")
	req.NoError(err)
	req.NoError(svc.LeaveRoom(ctx, second.RoomCode, "creator-1"))

	views, err := svc.GetUserRooms(ctx, "creator-1")
	req.NoError(err)
	req.Len(views, 2)

	codes := map[string]bool{}
	for _, v := range views {
		codes[v.RoomCode] = true
	}
	req.True(codes[first.RoomCode])
	req.True(codes[second.RoomCode])
}

func Test_DeactivateExpiredRooms(t *testing.T) {
	req := require.New(t)
	svc, announcer := newTestService(t)
	ctx := context.Background()

	short, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Short Roast", DurationHours: 1}, "creator-1")
	req.NoError(err)
	long, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Long Roast", DurationHours: 48}, "creator-2")
	req.NoError(err)

	base := time.Now()
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }

	before := announcer.count()
	count, err := svc.DeactivateExpiredRooms(ctx)
	req.NoError(err)
	req.Equal(1, count)
	req.Equal(before+1, announcer.count())

	view, err := svc.GetBasicRoomByCode(ctx, short.RoomCode)
	req.NoError(err)
	req.False(view.IsActive)

	view, err = svc.GetBasicRoomByCode(ctx, long.RoomCode)
	req.NoError(err)
	req.True(view.IsActive)

	// Second sweep finds nothing new.
	count, err = svc.DeactivateExpiredRooms(ctx)
	req.NoError(err)
	req.Zero(count)
}

func Test_IsUserInRoom(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, domain.RoomSpec{Name: "Friday Roast"}, "creator-1")
	req.NoError(err)

	req.True(svc.IsUserInRoom(ctx, created.RoomCode, "creator-1"))
	req.False(svc.IsUserInRoom(ctx, created.RoomCode, "stranger"))

	_, err = svc.JoinRoom(ctx, created.RoomCode, "user-2", "")
	req.NoError(err)
	req.NoError(svc.LeaveRoom(ctx, created.RoomCode, "user-2"))
	req.False(svc.IsUserInRoom(ctx, created.RoomCode, "user-2"))
}
