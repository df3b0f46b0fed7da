package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairgo/backend/internal/config"
)

// Health reports liveness plus a few headline numbers.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"version":        config.Version,
		"environment":    h.Cfg.Environment,
		"uptime_seconds": h.Clock.UptimeSeconds(),
		"online_users":   h.Hub.Core.Registry.Count(),
		"active_rooms":   h.Hub.Core.Rooms.Count(),
	})
}

// Stats is the public aggregate counters endpoint.
func (h *Handler) Stats(c *gin.Context) {
	core := h.Hub.Core
	c.JSON(http.StatusOK, gin.H{
		"online_users":         core.Registry.Count(),
		"active_rooms":         core.Rooms.Count(),
		"queue_depth":          core.Matcher.Len(),
		"total_connections":    core.Registry.TotalConnections(),
		"total_rooms":          core.History.TotalRooms(),
		"total_matches":        core.History.TotalMatches(),
		"average_wait_time_ms": core.History.AverageWait().Milliseconds(),
		"uptime_seconds":       h.Clock.UptimeSeconds(),
	})
}

// ClientConfig hands browsers what they need before connecting.
func (h *Handler) ClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ice_servers":        h.Cfg.ICEServers(),
		"max_message_length": h.Cfg.MaxMessageLength,
	})
}

// Debug endpoints. Not mounted in production.

func (h *Handler) DebugSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.Hub.Core.Registry.Snapshot()})
}

func (h *Handler) DebugQueue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queue": h.Hub.Core.Matcher.Snapshot()})
}

func (h *Handler) DebugRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recent": h.Hub.Core.History.Recent(50)})
}
