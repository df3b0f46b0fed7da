package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pairgo/backend/internal/chathub"
)

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket. The connection
// gets a fresh transport id; the user identity is allocated later, by
// the register event. No authentication on purpose: sessions are
// anonymous and die with the connection.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(uuid.New().String(), conn, h.Hub, h.log)
	// The hub calls Run after it records the client.
	h.Hub.RegisterCh <- client
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	// Development allows everything, production only the allow-list.
	if !h.Cfg.Production() {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.Cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
