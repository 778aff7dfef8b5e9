package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
)

type SendMessageRequest struct {
	ReceiverID     uuid.UUID  `json:"receiver_id" validate:"required"`
	ConversationID *uuid.UUID `json:"conversation_id"`
	Content        string     `json:"content" validate:"required"`
	AttachmentURL  *string    `json:"attachment_url"`
	AttachmentName *string    `json:"attachment_name"`
}

type SendNotificationRequest struct {
	Title     string                      `json:"title" validate:"required"`
	Message   string                      `json:"message" validate:"required"`
	Type      string                      `json:"type" validate:"required"`
	Priority  models.NotificationPriority `json:"priority"`
	ActionURL *string                     `json:"action_url"`
	IconURL   *string                     `json:"icon_url"`
	Data      map[string]string           `json:"data"`
	ExpiresAt *time.Time                  `json:"expires_at"`
}

type BulkNotificationRequest struct {
	SendNotificationRequest
	TargetUserIDs []uuid.UUID `json:"target_user_ids" validate:"required"`
}

type MessageResponse struct {
	ID             uuid.UUID             `json:"id"`
	ConversationID uuid.UUID             `json:"conversation_id"`
	SenderID       uuid.UUID             `json:"sender_id"`
	ReceiverID     uuid.UUID             `json:"receiver_id"`
	Content        string                `json:"content"`
	MessageType    models.MessageType    `json:"message_type"`
	DeliveryStatus models.DeliveryStatus `json:"delivery_status"`
	IsRead         bool                  `json:"is_read"`
	ReadAt         *time.Time            `json:"read_at,omitempty"`
	AttachmentURL  *string               `json:"attachment_url,omitempty"`
	AttachmentName *string               `json:"attachment_name,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

func toMessageResponse(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		MessageType:    m.MessageType,
		DeliveryStatus: m.DeliveryStatus,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		AttachmentURL:  m.AttachmentURL,
		AttachmentName: m.AttachmentName,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessageResponses(messages []models.Message) []MessageResponse {
	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toMessageResponse(&messages[i]))
	}
	return responses
}

type ConversationSummary struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	ParticipantIDs []uuid.UUID      `json:"participant_ids"`
	LastMessage    *MessageResponse `json:"last_message"`
	UnreadCount    int64            `json:"unread_count"`
}

type NotificationResponse struct {
	ID             uuid.UUID                   `json:"id"`
	Title          string                      `json:"title"`
	Message        string                      `json:"message"`
	Type           string                      `json:"type"`
	Priority       models.NotificationPriority `json:"priority"`
	TargetUserID   uuid.UUID                   `json:"target_user_id"`
	ActionURL      *string                     `json:"action_url,omitempty"`
	IconURL        *string                     `json:"icon_url,omitempty"`
	Data           map[string]string           `json:"data,omitempty"`
	DeliveryStatus models.DeliveryStatus       `json:"delivery_status"`
	IsRead         bool                        `json:"is_read"`
	ReadAt         *time.Time                  `json:"read_at,omitempty"`
	ExpiresAt      *time.Time                  `json:"expires_at,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
}

func toNotificationResponse(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		Priority:       n.Priority,
		TargetUserID:   n.TargetUserID,
		ActionURL:      n.ActionURL,
		IconURL:        n.IconURL,
		Data:           n.Data,
		DeliveryStatus: n.DeliveryStatus,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		ExpiresAt:      n.ExpiresAt,
		CreatedAt:      n.CreatedAt,
	}
}

func toNotificationResponses(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses
}

// ReadReceipt is published to senders when their messages are read.
type ReadReceipt struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	MessageID      *uuid.UUID `json:"message_id,omitempty"`
	ReaderID       uuid.UUID  `json:"reader_id"`
	Count          int        `json:"count"`
	ReadAt         time.Time  `json:"read_at"`
}

// NotificationEvent is published to the owner on read/delete so other live
// sessions of the same user stay in sync.
type NotificationEvent struct {
	NotificationIDs []uuid.UUID `json:"notification_ids"`
	Count           int         `json:"count"`
	ReadAt          *time.Time  `json:"read_at,omitempty"`
}
