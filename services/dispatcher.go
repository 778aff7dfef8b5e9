package services

import "github.com/google/uuid"

// Topics published to live user sessions.
const (
	TopicMessageSent         = "message-sent"
	TopicMessageReadReceipt  = "message-read-receipt"
	TopicNotificationSent    = "notification-sent"
	TopicNotificationRead    = "notification-read"
	TopicNotificationDeleted = "notification-deleted"
)

// Dispatcher pushes a payload to every live session of a user, best effort.
// A user without a live session is not an error. Durability comes from the
// persisted row, never from the push.
type Dispatcher interface {
	Publish(userID uuid.UUID, topic string, payload any) error
}
