package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu      sync.Mutex
	written []Envelope
	failing bool
	closed  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	env, ok := v.(Envelope)
	if !ok {
		return errors.New("unexpected payload type")
	}
	c.written = append(c.written, env)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) envelopes() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.written))
	copy(out, c.written)
	return out
}

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func TestRegisterUnregisterLifecycle(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	conn := &fakeConn{}

	if hub.IsOnline(userID) {
		t.Error("user must be offline before registration")
	}

	hub.Register(userID, conn)
	if !hub.IsOnline(userID) {
		t.Error("user must be online after registration")
	}
	if hub.SessionCount(userID) != 1 {
		t.Errorf("sessions = %d, want 1", hub.SessionCount(userID))
	}

	hub.Unregister(userID, conn)
	if hub.IsOnline(userID) {
		t.Error("user must be offline after unregistration")
	}
}

func TestPublishWithoutSessionIsNotAnError(t *testing.T) {
	hub := newTestHub()

	if err := hub.Publish(uuid.New(), "message-sent", "payload"); err != nil {
		t.Errorf("publish to offline user: err = %v, want nil", err)
	}
}

func TestPublishFansOutToAllSessions(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register(userID, first)
	hub.Register(userID, second)

	if err := hub.Publish(userID, "notification-sent", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i, conn := range []*fakeConn{first, second} {
		envs := conn.envelopes()
		if len(envs) != 1 {
			t.Fatalf("conn %d envelopes = %d, want 1", i, len(envs))
		}
		if envs[0].Topic != "notification-sent" {
			t.Errorf("conn %d topic = %s", i, envs[0].Topic)
		}
		if envs[0].SentAt.IsZero() {
			t.Errorf("conn %d missing sent_at", i)
		}
	}
}

func TestPublishDropsBrokenSessions(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	broken := &fakeConn{failing: true}
	hub.Register(userID, broken)

	err := hub.Publish(userID, "message-sent", "payload")
	if err == nil {
		t.Fatal("publish with only broken sessions must fail")
	}
	if hub.SessionCount(userID) != 0 {
		t.Errorf("broken session must be dropped, have %d", hub.SessionCount(userID))
	}
	if !broken.closed {
		t.Error("broken connection must be closed")
	}
}

func TestPublishSucceedsWhenAnySessionWorks(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	broken := &fakeConn{failing: true}
	healthy := &fakeConn{}
	hub.Register(userID, broken)
	hub.Register(userID, healthy)

	if err := hub.Publish(userID, "message-sent", "payload"); err != nil {
		t.Fatalf("one healthy session is enough, got %v", err)
	}
	if hub.SessionCount(userID) != 1 {
		t.Errorf("sessions = %d, want 1 (broken one dropped)", hub.SessionCount(userID))
	}
	if len(healthy.envelopes()) != 1 {
		t.Errorf("healthy session envelopes = %d, want 1", len(healthy.envelopes()))
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			hub.Register(userID, conn)
			_ = hub.Publish(userID, "message-sent", "payload")
			hub.Unregister(userID, conn)
		}()
	}
	wg.Wait()

	if hub.IsOnline(userID) {
		t.Error("all sessions unregistered, user must be offline")
	}
}
