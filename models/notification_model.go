package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

// Well-known notification types emitted by the platform. The column is free
// form, these are just the values the shopping side currently sends.
const (
	NotificationTypeOrderUpdate = "ORDER_UPDATE"
	NotificationTypePromotion   = "PROMOTION"
	NotificationTypeSystem      = "SYSTEM"
)

type Notification struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Message        string               `gorm:"type:text;not null" json:"message"`
	Type           string               `gorm:"size:50;not null;index" json:"type"`
	Priority       NotificationPriority `gorm:"size:20;not null;default:'NORMAL'" json:"priority"`
	TargetUserID   uuid.UUID            `gorm:"type:uuid;not null;index" json:"target_user_id"`
	ActionURL      *string              `gorm:"size:512" json:"action_url,omitempty"`
	IconURL        *string              `gorm:"size:512" json:"icon_url,omitempty"`
	Data           map[string]string    `gorm:"serializer:json" json:"data,omitempty"`
	DeliveryStatus DeliveryStatus       `gorm:"size:20;not null;default:'PENDING';index" json:"delivery_status"`
	IsRead         bool                 `gorm:"not null;default:false" json:"is_read"`
	ReadAt         *time.Time           `json:"read_at"`
	ExpiresAt      *time.Time           `gorm:"index" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
