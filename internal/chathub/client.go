package chathub

import "pairgo/backend/internal/models"

// Client is the interface for one connected transport. It abstracts
// the underlying communication mechanism so the hub can manage
// different client types uniformly (the production implementation is
// WebSocketClient).
type Client interface {
	// TransportID returns the unique identifier of the underlying
	// connection. It exists before the user registers.
	TransportID() string

	// TrySend queues an outbound event without blocking. A false
	// return means the client's buffer is full; the hub treats that
	// as a slow client and disconnects it.
	TrySend(models.ServerEvent) bool

	// Run starts the client's read and write pumps.
	Run()

	// Close shuts down the client's connection and send channel.
	// Safe to call more than once.
	Close()
}

// InboundEvent pairs a decoded frame with the client it came from.
type InboundEvent struct {
	Client Client
	Event  models.ClientEvent
}
