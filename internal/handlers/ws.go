package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tmrp/users-api/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsSubsBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins (CORS is handled at the middleware level).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler streams user change events to WebSocket clients.
type WSHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *events.Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

// Routes registers the WebSocket endpoint.
func (h *WSHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleWS)
}

// HandleWS subscribes to the hub, upgrades the connection and writes every
// event as a JSON text frame until the client goes away. Client frames are
// read and discarded so close and ping frames are processed.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the upgrade so no event published after the client
	// sees the handshake is missed.
	evts, unsubscribe := h.hub.Subscribe(wsSubsBuffer)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn().Err(err).Msg("websocket read error")
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-evts:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Warn().Err(err).Msg("websocket write error")
				return
			}
		}
	}
}
