package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Conn is the slice of a websocket connection the hub needs. The contrib
// websocket.Conn satisfies it; tests plug in fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Envelope wraps every payload pushed to a live session.
type Envelope struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

type session struct {
	conn Conn
	mu   sync.Mutex
}

func (s *session) write(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(env)
}

// Hub owns the registry of live sessions per user and fans published
// payloads out to them. It is the only holder of connection state; all
// access goes through the lock.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[Conn]*session
	log      *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[Conn]*session),
		log:      log,
	}
}

// Register adds a live session for the user. A user may hold several at once.
func (h *Hub) Register(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[Conn]*session)
	}
	h.sessions[userID][conn] = &session{conn: conn}
	h.log.Infow("session registered", "user_id", userID, "sessions", len(h.sessions[userID]))
}

// Unregister drops the session. Closing the connection is the caller's job.
func (h *Hub) Unregister(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.sessions[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.sessions, userID)
		}
	}
	h.log.Infow("session unregistered", "user_id", userID)
}

// IsOnline reports whether the user has at least one live session.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// SessionCount returns the number of live sessions for the user.
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Publish writes the payload to every live session of the user. No live
// session is success: the persisted row is the only durability. An error is
// returned only when sessions existed and none of them could be written,
// which is what callers record as FAILED. Broken sessions are dropped.
func (h *Hub) Publish(userID uuid.UUID, topic string, payload interface{}) error {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for _, sess := range h.sessions[userID] {
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	env := Envelope{Topic: topic, Payload: payload, SentAt: time.Now()}
	delivered := 0
	var lastErr error
	for _, sess := range targets {
		if err := sess.write(env); err != nil {
			lastErr = err
			h.log.Warnw("session write failed, dropping", "user_id", userID, "topic", topic, "error", err)
			h.Unregister(userID, sess.conn)
			_ = sess.conn.Close()
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("publish %s to user %s: %w", topic, userID, lastErr)
	}
	return nil
}
