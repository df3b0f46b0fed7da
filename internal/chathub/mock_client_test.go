package chathub_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pairgo/backend/internal/models"
)

// MockClient captures everything the hub sends so tests can assert on
// the outbound stream without a real socket.
type MockClient struct {
	transportID string
	Recv        chan models.ServerEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(transportID string) *MockClient {
	return &MockClient{
		transportID: transportID,
		Recv:        make(chan models.ServerEvent, 64),
	}
}

func (c *MockClient) TransportID() string { return c.transportID }

func (c *MockClient) TrySend(ev models.ServerEvent) bool {
	select {
	case c.Recv <- ev:
		return true
	default:
		return false
	}
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitEvent reads from the client's stream until an event of the wanted
// type arrives, skipping broadcasts interleaved by the hub.
func waitEvent(t *testing.T, c *MockClient, typ string) models.ServerEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.Recv:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", typ)
		}
	}
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}
