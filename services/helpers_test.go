package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"github.com/jaujye/ocean-shopping-center-sub001/store"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return &user
}

type publishRecord struct {
	UserID  uuid.UUID
	Topic   string
	Payload any
}

// fakeDispatcher records publishes; ids in failFor simulate broken sessions.
type fakeDispatcher struct {
	mu        sync.Mutex
	published []publishRecord
	failFor   map[uuid.UUID]bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{failFor: make(map[uuid.UUID]bool)}
}

func (f *fakeDispatcher) Publish(userID uuid.UUID, topic string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return errors.New("session write failed")
	}
	f.published = append(f.published, publishRecord{UserID: userID, Topic: topic, Payload: payload})
	return nil
}

func (f *fakeDispatcher) records() []publishRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishRecord, len(f.published))
	copy(out, f.published)
	return out
}

func (f *fakeDispatcher) recordsFor(userID uuid.UUID, topic string) []publishRecord {
	var out []publishRecord
	for _, rec := range f.records() {
		if rec.UserID == userID && rec.Topic == topic {
			out = append(out, rec)
		}
	}
	return out
}

func newMessageService(t *testing.T, db *gorm.DB, dispatcher Dispatcher) *MessageService {
	t.Helper()
	return NewMessageService(store.NewMessageStore(db), store.NewUserDirectory(db), dispatcher, zap.NewNop().Sugar())
}

func newNotificationService(t *testing.T, db *gorm.DB, dispatcher Dispatcher) *NotificationService {
	t.Helper()
	return NewNotificationService(store.NewNotificationStore(db), store.NewUserDirectory(db), dispatcher, zap.NewNop().Sugar())
}
