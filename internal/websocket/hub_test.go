package websocket

import (
	"testing"
	"time"

	"doc-assistant-be/internal/model"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

func registerAndWait(t *testing.T, h *Hub, c *Client) {
	t.Helper()
	h.register <- c

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		n := len(h.clients[c.SessionID])
		h.mu.RUnlock()
		if n > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client never registered")
}

func TestBroadcastDropsSlowClientsWithoutDeadlock(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	// Unbuffered Send with no pump draining it: both clients stall
	// on the first broadcast
	slow1 := &Client{Hub: h, SessionID: "s1", Send: make(chan []byte)}
	slow2 := &Client{Hub: h, SessionID: "s2", Send: make(chan []byte)}
	registerAndWait(t, h, slow1)
	registerAndWait(t, h, slow2)

	done := make(chan struct{})
	go func() {
		h.Broadcast(model.Notification{Type: "DOCUMENT_INGESTED", Title: "x"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast deadlocked on slow clients")
	}

	// Both clients end up unregistered, and each Send channel is
	// closed exactly once (a second close would panic Run)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	h.mu.RLock()
	remaining := len(h.clients)
	h.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("%d sessions still registered after broadcast to stalled clients", remaining)
	}

	for _, c := range []*Client{slow1, slow2} {
		select {
		case _, open := <-c.Send:
			if open {
				t.Errorf("session %s: unexpected message instead of closed channel", c.SessionID)
			}
		case <-time.After(time.Second):
			t.Errorf("session %s: Send never closed", c.SessionID)
		}
	}
}

func TestUnregisterTwiceIsHarmless(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	c := &Client{Hub: h, SessionID: "s1", Send: make(chan []byte, 1)}
	registerAndWait(t, h, c)

	h.unregister <- c
	h.unregister <- c

	// Run is still alive if it can process a registration
	c2 := &Client{Hub: h, SessionID: "s2", Send: make(chan []byte, 1)}
	registerAndWait(t, h, c2)
}
