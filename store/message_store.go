package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageStore is the persistence layer for messages and conversation
// membership.
type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts a message without touching conversation membership. Used for
// SYSTEM rows, whose reserved sender must not join the conversation.
func (s *MessageStore) Create(msg *models.Message) error {
	return s.db.Create(msg).Error
}

// CreateWithParticipants inserts a message and records its sender and
// receiver as conversation participants in the same transaction.
func (s *MessageStore) CreateWithParticipants(msg *models.Message) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: msg.ConversationID, UserID: msg.SenderID},
			{ConversationID: msg.ConversationID, UserID: msg.ReceiverID},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
	})
}

func (s *MessageStore) FindByID(id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := s.db.First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) FindByConversation(conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (s *MessageStore) LatestInConversation(conversationID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) FindUnreadByReceiver(userID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

func (s *MessageStore) CountUnread(conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, userID, false).
		Count(&count).Error
	return count, err
}

// ConversationIDs returns every conversation the user participates in.
func (s *MessageStore) ConversationIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

// Participants returns the member ids of a conversation, oldest first.
func (s *MessageStore) Participants(conversationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Order("joined_at asc").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *MessageStore) IsParticipant(conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *MessageStore) Save(msg *models.Message) error {
	return s.db.Save(msg).Error
}

func (s *MessageStore) SaveAll(messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	return s.db.Save(&messages).Error
}
