package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pairgo/backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames carry at most a short profile or a chat message;
	// WebRTC offers with many ICE candidates are the largest legitimate
	// payload.
	maxMessageSize = 16 * 1024

	// Outbound buffer per client. A full buffer marks the client slow
	// and the hub drops it.
	sendBufferSize = 64
)

// WebSocketClient реалізує інтерфейс chathub.Client поверх gorilla.
type WebSocketClient struct {
	transportID string
	conn        *websocket.Conn
	hub         *ManagerService
	send        chan models.ServerEvent

	closeOnce sync.Once
	log       zerolog.Logger
}

// NewWebSocketClient wraps an upgraded connection. The caller hands the
// client to the hub via RegisterCh; the hub calls Run.
func NewWebSocketClient(transportID string, conn *websocket.Conn, hub *ManagerService, log zerolog.Logger) *WebSocketClient {
	return &WebSocketClient{
		transportID: transportID,
		conn:        conn,
		hub:         hub,
		send:        make(chan models.ServerEvent, sendBufferSize),
		log:         log.With().Str("transport_id", transportID).Logger(),
	}
}

func (c *WebSocketClient) TransportID() string { return c.transportID }

// TrySend enqueues without blocking; false means the buffer is full.
func (c *WebSocketClient) TrySend(ev models.ServerEvent) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Run запускає 'pumps' для WebSocket.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump).
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump decodes inbound frames and feeds them to the hub. It owns
// the read side of the connection and the pong deadline.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.UnregisterCh <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			break
		}

		var ev models.ClientEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		c.hub.EventCh <- InboundEvent{Client: c, Event: ev}
	}
}

// writePump drains the send channel into the socket and keeps the
// connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				c.log.Error().Err(err).Str("event", ev.Type).Msg("encoding outbound event")
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Перевіряємо, чи є ще повідомлення у каналі (для ефективності).
			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if extra, err := json.Marshal(next); err == nil {
					if err := c.conn.WriteMessage(websocket.TextMessage, extra); err != nil {
						return
					}
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
