package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/roastparty/server/internal/infrastructure/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the CORS layer.
		return true
	},
}

// ServeWS upgrades the request and registers the client with the hub. An
// X-User-Id header pre-associates the session; clients can also associate
// later with a frame.
func ServeWS(core *Core, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		core.logger.Warn(logging.Presence, logging.Connection, "websocket upgrade failed", map[logging.ExtraKey]any{
			"errorMessage": err.Error(),
		})
		return
	}

	client := newClient(core, conn, uuid.NewString())

	if userID := r.Header.Get("X-User-Id"); userID != "" {
		client.userID = userID
		if core.tracker != nil {
			core.tracker.Associate(client.sessionID, userID)
		}
	}

	core.register <- client

	go client.writePump()
	go client.readPump()
}
