package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/persistence/inmemory"
	"github.com/roastparty/server/internal/service"
)

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(context.Context, string, string) {}

type nopPublisher struct{}

func (nopPublisher) RoomCreated(context.Context, *domain.Room)         {}
func (nopPublisher) RoomExpired(context.Context, string)               {}
func (nopPublisher) MemberJoined(context.Context, *domain.Participant) {}
func (nopPublisher) MemberLeft(context.Context, string, string)        {}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := inmemory.NewStore()
	svc := service.NewRoomService(store.Rooms(), store.Participants(), store.Messages(), store.Tx(), nopAnnouncer{}, nopPublisher{}, logging.NewNop())
	handler := NewHandler(svc, logging.NewNop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func Test_Create_RequiresUserHeader(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/rooms", "", map[string]any{"name": "Friday Roast"})
	req.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_Create(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{
		"name":            "Friday Roast",
		"maxParticipants": 5,
		"durationHours":   2,
	})
	req.Equal(http.StatusCreated, rec.Code)

	view := decode[service.RoomView](t, rec)
	req.Len(view.RoomCode, domain.CodeLength)
	req.Equal(5, view.MaxParticipants)
	req.Equal(1, view.CurrentParticipants)
	req.True(view.IsPrivate)
}

func Test_Create_ValidationErrors(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	cases := []map[string]any{
		{"name": ""},
		{"name": "ab"},
		{"name": "Friday Roast", "maxParticipants": 1},
		{"name": "Friday Roast", "maxParticipants": 100},
		{"name": "Friday Roast", "durationHours": 0},
		{"name": "Friday Roast", "durationHours": 100},
	}
	for _, body := range cases {
		rec := doJSON(t, router, http.MethodPost, "/rooms", "creator-1", body)
		req.Equal(http.StatusBadRequest, rec.Code)

		resp := decode[map[string]string](t, rec)
		req.Equal("VALIDATION_ERROR", resp["error"])
	}
}

func Test_Join_UnknownRoom(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/rooms/join", "user-2", map[string]any{"roomCode": "ZZZZZZZZ"})
	req.Equal(http.StatusNotFound, rec.Code)

	resp := decode[map[string]string](t, rec)
	req.Equal("ROOM_NOT_FOUND", resp["error"])
}

func Test_Join_BadCodeShape(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/rooms/join", "user-2", map[string]any{"roomCode": "nope"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_JoinLeaveFlow(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"})
	req.Equal(http.StatusCreated, rec.Code)
	created := decode[service.RoomView](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/rooms/join", "user-2", map[string]any{
		"roomCode":    created.RoomCode,
		"displayName": "Roast Master",
	})
	req.Equal(http.StatusOK, rec.Code)
	joined := decode[service.RoomView](t, rec)
	req.Equal(2, joined.CurrentParticipants)

	rec = doJSON(t, router, http.MethodPost, "/rooms/join", "user-2", map[string]any{"roomCode": created.RoomCode})
	req.Equal(http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+created.RoomCode+"/leave", "user-2", nil)
	req.Equal(http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+created.RoomCode+"/leave", "stranger", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func Test_Get_MemberSeesRoster(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode, "creator-1", nil)
	req.Equal(http.StatusOK, rec.Code)
	member := decode[service.RoomView](t, rec)
	req.NotEmpty(member.Participants)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode, "stranger", nil)
	req.Equal(http.StatusOK, rec.Code)
	outsider := decode[service.RoomView](t, rec)
	req.Empty(outsider.Participants)
	req.Equal(1, outsider.CurrentParticipants)
}

func Test_UpdateSettings_ForbiddenForNonCreator(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodPatch, "/rooms/"+created.RoomCode+"/settings", "user-2", map[string]any{"roomName": "Hijacked"})
	req.Equal(http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/rooms/"+created.RoomCode+"/settings", "creator-1", map[string]any{"roomName": "Renamed Roast"})
	req.Equal(http.StatusOK, rec.Code)
	updated := decode[service.RoomView](t, rec)
	req.Equal("Renamed Roast", updated.RoomName)
}

func Test_UpdateSettings_PatchFieldNames(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	// The patch keys mirror the room view: roomName, not name.
	rec := doJSON(t, router, http.MethodPatch, "/rooms/"+created.RoomCode+"/settings", "creator-1", map[string]any{
		"roomName":        "Renamed Roast",
		"maxParticipants": 10,
	})
	req.Equal(http.StatusOK, rec.Code)
	updated := decode[service.RoomView](t, rec)
	req.Equal("Renamed Roast", updated.RoomName)
	req.Equal(10, updated.MaxParticipants)

	// Unknown keys are rejected outright.
	rec = doJSON(t, router, http.MethodPatch, "/rooms/"+created.RoomCode+"/settings", "creator-1", map[string]any{"name": "Sneaky"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_Joinable(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode+"/joinable", "user-2", nil)
	req.Equal(http.StatusOK, rec.Code)
	resp := decode[joinableResponse](t, rec)
	req.True(resp.CanJoin)
	req.False(resp.IsMember)
}

func Test_Activity(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodPost, "/rooms/"+created.RoomCode+"/activity", "creator-1", nil)
	req.Equal(http.StatusNoContent, rec.Code)

	// Unknown participant is still a 204: the update is best effort.
	rec = doJSON(t, router, http.MethodPost, "/rooms/"+created.RoomCode+"/activity", "stranger", nil)
	req.Equal(http.StatusNoContent, rec.Code)
}

func Test_Messages_ParticipantsOnly(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode+"/messages", "creator-1", nil)
	req.Equal(http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode+"/messages", "stranger", nil)
	req.Equal(http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+created.RoomCode+"/messages?limit=0", "creator-1", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}

func Test_MyRooms(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	created := decode[service.RoomView](t, doJSON(t, router, http.MethodPost, "/rooms", "creator-1", map[string]any{"name": "Friday Roast"}))

	rec := doJSON(t, router, http.MethodPost, "/rooms/join", "user-2", map[string]any{"roomCode": created.RoomCode})
	req.Equal(http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/rooms/my-rooms", "user-2", nil)
	req.Equal(http.StatusOK, rec.Code)
	views := decode[[]service.RoomView](t, rec)
	req.Len(views, 1)
	req.Equal(created.RoomCode, views[0].RoomCode)
}
