package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationParticipant is the explicit membership record for a
// conversation. Rows are only ever inserted in the same transaction as the
// message that introduced the participant, so the table always equals the
// set of distinct sender/receiver ids seen across the conversation's rows.
type ConversationParticipant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
