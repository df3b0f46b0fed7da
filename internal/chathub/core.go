package chathub

import (
	"time"

	"github.com/rs/zerolog"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/filter"
	"pairgo/backend/internal/history"
	"pairgo/backend/internal/matching"
	"pairgo/backend/internal/registry"
	"pairgo/backend/internal/rooms"
)

// Core bundles the three coordination subsystems plus their shared
// collaborators. One Core per process; it is passed into the hub
// explicitly instead of living in package globals.
type Core struct {
	Registry *registry.Service
	Rooms    *rooms.Service
	Matcher  *matching.Service
	History  *history.Ring
	Filter   *filter.Filter
}

// NewCore wires the subsystems from configuration.
func NewCore(cfg config.Config, log zerolog.Logger) *Core {
	ring := history.NewRing(history.DefaultCapacity)
	reg := registry.NewService(registry.DefaultIdleTimeout, log)
	return &Core{
		Registry: reg,
		Rooms:    rooms.NewService(reg, ring, cfg.MaxChatDuration, log),
		Matcher:  matching.NewService(reg, ring, matching.MatchInterval, log),
		History:  ring,
		Filter:   filter.New(cfg.ContentFilterEnabled, cfg.ProfanityFilterStrict, cfg.MaxMessageLength),
	}
}

// Uptime helpers for the admin surface.
type Clock struct{ start time.Time }

// NewClock records the process start.
func NewClock() Clock { return Clock{start: time.Now()} }

// UptimeSeconds reports elapsed seconds since start.
func (c Clock) UptimeSeconds() int64 { return int64(time.Since(c.start).Seconds()) }
