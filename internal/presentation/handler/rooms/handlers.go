package rooms

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/json"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/service"
)

// UserIDHeader identifies the caller. There is no account system; clients
// mint a stable id and send it with every request.
const UserIDHeader = "X-User-Id"

type Handler struct {
	rooms  *service.RoomService
	logger logging.Logger
}

func NewHandler(rooms *service.RoomService, logger logging.Logger) *Handler {
	return &Handler{rooms: rooms, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rooms", h.Create)
	r.Post("/rooms/join", h.Join)
	r.Get("/rooms/my-rooms", h.MyRooms)
	r.Get("/rooms/created", h.CreatedRooms)
	r.Get("/rooms/{code}", h.Get)
	r.Get("/rooms/{code}/joinable", h.Joinable)
	r.Get("/rooms/{code}/messages", h.Messages)
	r.Post("/rooms/{code}/leave", h.Leave)
	r.Patch("/rooms/{code}/settings", h.UpdateSettings)
	r.Post("/rooms/{code}/activity", h.Activity)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteBadRequestError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, domain.ValidationError(err.Error()))
		return
	}

	view, err := h.rooms.CreateRoom(r.Context(), req.toSpec(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, view)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteBadRequestError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, domain.ValidationError(err.Error()))
		return
	}

	view, err := h.rooms.JoinRoom(r.Context(), req.RoomCode, userID, req.DisplayName)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, view)
}

// Get returns the full view with the roster for participants, the basic
// view with counts only for everyone else.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	var view *service.RoomView
	var err error
	if h.rooms.IsUserInRoom(r.Context(), code, userID) {
		view, err = h.rooms.GetRoomByCode(r.Context(), code)
	} else {
		view, err = h.rooms.GetBasicRoomByCode(r.Context(), code)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, view)
}

func (h *Handler) Joinable(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	code := domain.NormalizeCode(chi.URLParam(r, "code"))

	json.Write(w, http.StatusOK, joinableResponse{
		RoomCode: code,
		CanJoin:  h.rooms.CanUserJoin(r.Context(), code, userID),
		IsMember: h.rooms.IsUserInRoom(r.Context(), code, userID),
	})
}

// Messages returns the room's recent history. Participants only; the limit
// is capped to keep the response bounded.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			json.WriteBadRequestError(w, "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	messages, err := h.rooms.GetRoomMessages(r.Context(), code, userID, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, messages)
}

func (h *Handler) MyRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	views, err := h.rooms.GetUserRooms(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, views)
}

func (h *Handler) CreatedRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	views, err := h.rooms.GetCreatedRooms(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, views)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	code := domain.NormalizeCode(chi.URLParam(r, "code"))

	if err := h.rooms.LeaveRoom(r.Context(), code, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, leaveResponse{RoomCode: code, Left: true})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")

	var req updateSettingsRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteBadRequestError(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, domain.ValidationError(err.Error()))
		return
	}

	patch := service.SettingsPatch{
		Name:            req.Name,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		ExtendHours:     req.ExtendHours,
		IsActive:        req.IsActive,
	}

	view, err := h.rooms.UpdateSettings(r.Context(), code, patch, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	json.Write(w, http.StatusOK, view)
}

// Activity marks the caller as seen in the room. Always 204: the update is
// best effort and the client cannot act on a failure anyway.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	h.rooms.UpdateActivity(r.Context(), chi.URLParam(r, "code"), userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		json.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
		return "", false
	}
	return userID, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)

	status, ok := statusByCode[code]
	if !ok {
		h.logger.Error(logging.Rooms, logging.Lifecycle, "unexpected error", map[logging.ExtraKey]any{
			"errorMessage": err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	json.WriteError(w, status, code, err.Error())
}

var statusByCode = map[string]int{
	"ROOM_NOT_FOUND":            http.StatusNotFound,
	"ROOM_INACTIVE":             http.StatusGone,
	"ROOM_EXPIRED":              http.StatusGone,
	"ROOM_FULL":                 http.StatusConflict,
	"ALREADY_JOINED":            http.StatusConflict,
	"NOT_PARTICIPANT":           http.StatusNotFound,
	"UNAUTHORIZED":              http.StatusForbidden,
	"ROOM_LIMIT_EXCEEDED":       http.StatusConflict,
	"CODE_GENERATION_FAILED":    http.StatusInternalServerError,
	"INVALID_PARTICIPANT_LIMIT": http.StatusBadRequest,
	"VALIDATION_ERROR":          http.StatusBadRequest,
}
