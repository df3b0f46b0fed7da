// Package handler wires the HTTP surface: the websocket upgrade, the
// health/stats endpoints and the non-production debug routes.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pairgo/backend/internal/chathub"
	"pairgo/backend/internal/config"
	"pairgo/backend/internal/metrics"
)

// Handler містить посилання на ChatHub та конфігурацію.
type Handler struct {
	Hub   *chathub.ManagerService
	Cfg   config.Config
	Clock chathub.Clock

	log zerolog.Logger
}

func NewHandler(hub *chathub.ManagerService, cfg config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		Hub:   hub,
		Cfg:   cfg,
		Clock: chathub.NewClock(),
		log:   log.With().Str("component", "handler").Logger(),
	}
}

// Routes mounts everything on the router. The debug group is absent in
// production.
func (h *Handler) Routes(r *gin.Engine) {
	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	r.GET("/ws", h.ServeWebSocket)

	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/config", h.ClientConfig)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if !h.Cfg.Production() {
		debug := r.Group("/debug")
		debug.GET("/sessions", h.DebugSessions)
		debug.GET("/queue", h.DebugQueue)
		debug.GET("/rooms", h.DebugRooms)
	}
}
