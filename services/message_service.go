package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"github.com/jaujye/ocean-shopping-center-sub001/store"
	"go.uber.org/zap"
)

const (
	defaultHistoryPageSize = 50
	maxHistoryPageSize     = 100
)

// MessageService owns the lifecycle of conversation messages: two-phase send
// (persist, push, persist status), participant authorization, read tracking
// and redaction-style deletes.
type MessageService struct {
	messages   *store.MessageStore
	users      *store.UserDirectory
	dispatcher Dispatcher
	log        *zap.SugaredLogger
}

func NewMessageService(messages *store.MessageStore, users *store.UserDirectory, dispatcher Dispatcher, log *zap.SugaredLogger) *MessageService {
	return &MessageService{messages: messages, users: users, dispatcher: dispatcher, log: log}
}

// SendMessage persists the message as SENT, pushes it to the receiver's live
// sessions and flips the row to DELIVERED or FAILED. The status is optimistic:
// a nil publish error means the fan-out was attempted, not that the receiver
// acknowledged anything. Omitting the conversation id always starts a new
// conversation.
func (s *MessageService) SendMessage(senderID uuid.UUID, req SendMessageRequest) (*MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	sender, err := s.users.FindByID(senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	receiver, err := s.users.FindByID(req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	conversationID := uuid.New()
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       sender.ID,
		ReceiverID:     receiver.ID,
		Content:        content,
		MessageType:    models.MessageTypeText,
		DeliveryStatus: models.DeliverySent,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	}
	if err := s.messages.CreateWithParticipants(msg); err != nil {
		return nil, err
	}

	status := models.DeliveryDelivered
	if err := s.dispatcher.Publish(msg.ReceiverID, TopicMessageSent, toMessageResponse(msg)); err != nil {
		s.log.Warnw("message publish failed", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "error", err)
		status = models.DeliveryFailed
	}

	msg.DeliveryStatus = status
	if err := s.messages.Save(msg); err != nil {
		return nil, err
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

// GetConversationHistory returns the conversation's messages, oldest first.
// Non-participants get ErrConversationNotFound rather than a forbidden error.
func (s *MessageService) GetConversationHistory(requesterID, conversationID uuid.UUID, page, pageSize int) ([]MessageResponse, error) {
	ok, err := s.messages.IsParticipant(conversationID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConversationNotFound
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	messages, err := s.messages.FindByConversation(conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages), nil
}

// GetUserConversations lists one summary per conversation the user is part
// of, newest activity first.
func (s *MessageService) GetUserConversations(userID uuid.UUID) ([]ConversationSummary, error) {
	ids, err := s.messages.ConversationIDs(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(ids))
	for _, id := range ids {
		participants, err := s.messages.Participants(id)
		if err != nil {
			return nil, err
		}
		latest, err := s.messages.LatestInConversation(id)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			// Membership rows are only written alongside messages, so an
			// empty conversation should not exist. Skip rather than fail.
			continue
		}
		unread, err := s.messages.CountUnread(id, userID)
		if err != nil {
			return nil, err
		}
		last := toMessageResponse(latest)
		summaries = append(summaries, ConversationSummary{
			ConversationID: id,
			ParticipantIDs: participants,
			LastMessage:    &last,
			UnreadCount:    unread,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})
	return summaries, nil
}

// MarkMessageAsRead flips read state once and tells the sender. Calling it on
// an already read message is a no-op, no re-publish.
func (s *MessageService) MarkMessageAsRead(userID, messageID uuid.UUID) (*MessageResponse, error) {
	msg, err := s.messages.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.ReceiverID != userID {
		return nil, ErrMessageNotFound
	}

	if msg.IsRead {
		resp := toMessageResponse(msg)
		return &resp, nil
	}

	now := time.Now()
	msg.IsRead = true
	msg.ReadAt = &now
	if err := s.messages.Save(msg); err != nil {
		return nil, err
	}

	receipt := ReadReceipt{
		ConversationID: msg.ConversationID,
		MessageID:      &msg.ID,
		ReaderID:       userID,
		Count:          1,
		ReadAt:         now,
	}
	if err := s.dispatcher.Publish(msg.SenderID, TopicMessageReadReceipt, receipt); err != nil {
		s.log.Warnw("read receipt publish failed", "message_id", msg.ID, "sender_id", msg.SenderID, "error", err)
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

// MarkConversationAsRead flips every unread message addressed to the user in
// the conversation as one batch and emits one aggregate receipt per distinct
// sender. Returns the number of messages flipped.
func (s *MessageService) MarkConversationAsRead(userID, conversationID uuid.UUID) (int, error) {
	ok, err := s.messages.IsParticipant(conversationID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrConversationNotFound
	}

	unread, err := s.messages.FindUnreadByReceiver(userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var flipped []models.Message
	senders := make(map[uuid.UUID]struct{})
	for i := range unread {
		if unread[i].ConversationID != conversationID {
			continue
		}
		unread[i].IsRead = true
		unread[i].ReadAt = &now
		flipped = append(flipped, unread[i])
		senders[unread[i].SenderID] = struct{}{}
	}
	if len(flipped) == 0 {
		return 0, nil
	}
	if err := s.messages.SaveAll(flipped); err != nil {
		return 0, err
	}

	receipt := ReadReceipt{
		ConversationID: conversationID,
		ReaderID:       userID,
		Count:          len(flipped),
		ReadAt:         now,
	}
	for senderID := range senders {
		if err := s.dispatcher.Publish(senderID, TopicMessageReadReceipt, receipt); err != nil {
			s.log.Warnw("aggregate read receipt publish failed", "conversation_id", conversationID, "sender_id", senderID, "error", err)
		}
	}
	return len(flipped), nil
}

// CreateSystemMessage appends a SYSTEM row to an existing conversation on
// behalf of the reserved system sender and pushes it to every participant.
// The system sender never joins the participant set.
func (s *MessageService) CreateSystemMessage(conversationID uuid.UUID, content string) (*MessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	participants, err := s.messages.Participants(conversationID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, ErrConversationNotFound
	}

	systemUser, err := s.users.FindSystemUser()
	if err != nil {
		return nil, err
	}
	if systemUser == nil {
		return nil, ErrUserNotFound
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       systemUser.ID,
		ReceiverID:     participants[0],
		Content:        content,
		MessageType:    models.MessageTypeSystem,
		DeliveryStatus: models.DeliverySent,
	}
	if err := s.messages.Create(msg); err != nil {
		return nil, err
	}

	status := models.DeliveryDelivered
	payload := toMessageResponse(msg)
	for _, participantID := range participants {
		if err := s.dispatcher.Publish(participantID, TopicMessageSent, payload); err != nil {
			s.log.Warnw("system message publish failed", "message_id", msg.ID, "participant_id", participantID, "error", err)
			status = models.DeliveryFailed
		}
	}

	msg.DeliveryStatus = status
	if err := s.messages.Save(msg); err != nil {
		return nil, err
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

// DeleteMessage redacts a message in place. Only the sender may delete; the
// row keeps its id, position and read state so history stays intact.
func (s *MessageService) DeleteMessage(userID, messageID uuid.UUID) (*MessageResponse, error) {
	msg, err := s.messages.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.SenderID != userID {
		return nil, ErrMessageNotFound
	}

	msg.Content = models.RedactedContent
	msg.AttachmentURL = nil
	msg.AttachmentName = nil
	msg.MessageType = models.MessageTypeSystem
	if err := s.messages.Save(msg); err != nil {
		return nil, err
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

// IsParticipantInConversation is the sole authorization predicate for
// history and read operations.
func (s *MessageService) IsParticipantInConversation(userID, conversationID uuid.UUID) (bool, error) {
	return s.messages.IsParticipant(conversationID, userID)
}
