package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeSystem MessageType = "SYSTEM"
)

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "SENT"
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// RedactedContent replaces the body of a deleted message. The row itself is
// never removed, so conversation ordering and counts stay intact.
const RedactedContent = "This message has been deleted"

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID      `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	MessageType    MessageType    `gorm:"size:20;not null;default:'TEXT'" json:"message_type"`
	DeliveryStatus DeliveryStatus `gorm:"size:20;not null;default:'SENT'" json:"delivery_status"`
	IsRead         bool           `gorm:"not null;default:false" json:"is_read"`
	ReadAt         *time.Time     `json:"read_at"`
	AttachmentURL  *string        `gorm:"size:512" json:"attachment_url,omitempty"`
	AttachmentName *string        `gorm:"size:255" json:"attachment_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
