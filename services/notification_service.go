package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"github.com/jaujye/ocean-shopping-center-sub001/store"
	"go.uber.org/zap"
)

// NotificationService owns notification lifecycle: single and bulk fan-out,
// read tracking, owner-scoped queries and the reconciliation primitives the
// background job re-invokes.
type NotificationService struct {
	notifications *store.NotificationStore
	users         *store.UserDirectory
	dispatcher    Dispatcher
	log           *zap.SugaredLogger
}

func NewNotificationService(notifications *store.NotificationStore, users *store.UserDirectory, dispatcher Dispatcher, log *zap.SugaredLogger) *NotificationService {
	return &NotificationService{notifications: notifications, users: users, dispatcher: dispatcher, log: log}
}

func (s *NotificationService) buildNotification(targetUserID uuid.UUID, req SendNotificationRequest) *models.Notification {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	return &models.Notification{
		Title:          req.Title,
		Message:        req.Message,
		Type:           req.Type,
		Priority:       priority,
		TargetUserID:   targetUserID,
		ActionURL:      req.ActionURL,
		IconURL:        req.IconURL,
		Data:           req.Data,
		DeliveryStatus: models.DeliveryPending,
		ExpiresAt:      req.ExpiresAt,
	}
}

// deliver pushes a persisted notification and flips its status. Publish
// failures are swallowed into the FAILED status, never returned.
func (s *NotificationService) deliver(n *models.Notification) error {
	status := models.DeliveryDelivered
	if err := s.dispatcher.Publish(n.TargetUserID, TopicNotificationSent, toNotificationResponse(n)); err != nil {
		s.log.Warnw("notification publish failed", "notification_id", n.ID, "target_user_id", n.TargetUserID, "error", err)
		status = models.DeliveryFailed
	}
	n.DeliveryStatus = status
	return s.notifications.Save(n)
}

// SendNotification persists a PENDING row, pushes it and re-persists the
// outcome as DELIVERED or FAILED.
func (s *NotificationService) SendNotification(targetUserID uuid.UUID, req SendNotificationRequest) (*NotificationResponse, error) {
	target, err := s.users.FindByID(targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	n := s.buildNotification(target.ID, req)
	if err := s.notifications.Create(n); err != nil {
		return nil, err
	}
	if err := s.deliver(n); err != nil {
		return nil, err
	}

	resp := toNotificationResponse(n)
	return &resp, nil
}

// SendBulkNotification fans a logical send out to N independent rows, one per
// resolved recipient. Each recipient is handled in isolation: a failure for
// one never blocks the rest, it is simply missing from the result.
func (s *NotificationService) SendBulkNotification(req BulkNotificationRequest) ([]NotificationResponse, error) {
	if len(req.TargetUserIDs) == 0 {
		return nil, ErrNoRecipients
	}

	users, err := s.users.FindAllByID(req.TargetUserIDs)
	if err != nil {
		return nil, err
	}

	created := make([]NotificationResponse, 0, len(users))
	for i := range users {
		n := s.buildNotification(users[i].ID, req.SendNotificationRequest)
		if err := s.notifications.Create(n); err != nil {
			s.log.Errorw("bulk notification create failed", "target_user_id", users[i].ID, "error", err)
			continue
		}
		if err := s.deliver(n); err != nil {
			s.log.Errorw("bulk notification status flip failed", "notification_id", n.ID, "error", err)
			continue
		}
		created = append(created, toNotificationResponse(n))
	}
	return created, nil
}

func (s *NotificationService) requireUser(userID uuid.UUID) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

func (s *NotificationService) GetUserNotifications(userID uuid.UUID, page, pageSize int) ([]NotificationResponse, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
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
	notifications, err := s.notifications.FindByTarget(userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return toNotificationResponses(notifications), nil
}

func (s *NotificationService) GetUnreadNotifications(userID uuid.UUID) ([]NotificationResponse, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.FindUnreadByTarget(userID)
	if err != nil {
		return nil, err
	}
	return toNotificationResponses(notifications), nil
}

func (s *NotificationService) GetNotificationsByType(userID uuid.UUID, notificationType string) ([]NotificationResponse, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.FindByType(userID, notificationType)
	if err != nil {
		return nil, err
	}
	return toNotificationResponses(notifications), nil
}

// GetHighPriorityNotifications returns the user's HIGH and URGENT rows.
func (s *NotificationService) GetHighPriorityNotifications(userID uuid.UUID) ([]NotificationResponse, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}
	notifications, err := s.notifications.FindHighPriority(userID)
	if err != nil {
		return nil, err
	}
	return toNotificationResponses(notifications), nil
}

// MarkNotificationAsRead flips read state once and acks the owner's other
// live sessions. Already-read rows are a no-op.
func (s *NotificationService) MarkNotificationAsRead(userID, notificationID uuid.UUID) (*NotificationResponse, error) {
	n, err := s.notifications.FindByID(notificationID)
	if err != nil {
		return nil, err
	}
	if n == nil || n.TargetUserID != userID {
		return nil, ErrNotificationNotFound
	}

	if n.IsRead {
		resp := toNotificationResponse(n)
		return &resp, nil
	}

	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	if err := s.notifications.Save(n); err != nil {
		return nil, err
	}

	event := NotificationEvent{NotificationIDs: []uuid.UUID{n.ID}, Count: 1, ReadAt: &now}
	if err := s.dispatcher.Publish(userID, TopicNotificationRead, event); err != nil {
		s.log.Warnw("notification read ack publish failed", "notification_id", n.ID, "error", err)
	}

	resp := toNotificationResponse(n)
	return &resp, nil
}

// MarkNotificationsAsRead is all-or-nothing on ownership: if any loaded row
// belongs to someone else, nothing is mutated. Returns the number of rows
// flipped.
func (s *NotificationService) MarkNotificationsAsRead(userID uuid.UUID, notificationIDs []uuid.UUID) (int, error) {
	notifications, err := s.notifications.FindAllByID(notificationIDs)
	if err != nil {
		return 0, err
	}
	for i := range notifications {
		if notifications[i].TargetUserID != userID {
			return 0, ErrNotOwner
		}
	}

	now := time.Now()
	var flipped []models.Notification
	var flippedIDs []uuid.UUID
	for i := range notifications {
		if notifications[i].IsRead {
			continue
		}
		notifications[i].IsRead = true
		notifications[i].ReadAt = &now
		flipped = append(flipped, notifications[i])
		flippedIDs = append(flippedIDs, notifications[i].ID)
	}
	if len(flipped) == 0 {
		return 0, nil
	}
	if err := s.notifications.SaveAll(flipped); err != nil {
		return 0, err
	}

	event := NotificationEvent{NotificationIDs: flippedIDs, Count: len(flipped), ReadAt: &now}
	if err := s.dispatcher.Publish(userID, TopicNotificationRead, event); err != nil {
		s.log.Warnw("aggregate notification read ack publish failed", "user_id", userID, "error", err)
	}
	return len(flipped), nil
}

// DeleteNotification removes the row for good and tells the owner's other
// live sessions.
func (s *NotificationService) DeleteNotification(userID, notificationID uuid.UUID) error {
	n, err := s.notifications.FindByID(notificationID)
	if err != nil {
		return err
	}
	if n == nil || n.TargetUserID != userID {
		return ErrNotificationNotFound
	}

	if err := s.notifications.Delete(n.ID); err != nil {
		return err
	}

	event := NotificationEvent{NotificationIDs: []uuid.UUID{n.ID}, Count: 1}
	if err := s.dispatcher.Publish(userID, TopicNotificationDeleted, event); err != nil {
		s.log.Warnw("notification delete event publish failed", "notification_id", n.ID, "error", err)
	}
	return nil
}

// ProcessPendingNotifications re-attempts delivery for every PENDING row. The
// status write is conditioned on the row still being PENDING, so a row
// flipped by a concurrent path is left alone; the worst case under races is a
// redundant re-publish. Returns the number of rows claimed.
func (s *NotificationService) ProcessPendingNotifications() (int, error) {
	pending, err := s.notifications.FindPending()
	if err != nil {
		return 0, err
	}

	claimed := 0
	for i := range pending {
		n := &pending[i]
		status := models.DeliveryDelivered
		if err := s.dispatcher.Publish(n.TargetUserID, TopicNotificationSent, toNotificationResponse(n)); err != nil {
			s.log.Warnw("pending notification re-publish failed", "notification_id", n.ID, "error", err)
			status = models.DeliveryFailed
		}
		ok, err := s.notifications.UpdateStatusIfPending(n.ID, status)
		if err != nil {
			s.log.Errorw("pending notification status flip failed", "notification_id", n.ID, "error", err)
			continue
		}
		if ok {
			claimed++
		}
	}
	return claimed, nil
}

// CleanupExpiredNotifications hard-deletes every row whose expiry has passed,
// read or not, delivered or not. Returns the number of rows removed.
func (s *NotificationService) CleanupExpiredNotifications() (int64, error) {
	return s.notifications.DeleteExpired(time.Now())
}

// CanReadNotification reports whether the row exists and belongs to the user.
func (s *NotificationService) CanReadNotification(userID, notificationID uuid.UUID) (bool, error) {
	n, err := s.notifications.FindByID(notificationID)
	if err != nil {
		return false, err
	}
	return n != nil && n.TargetUserID == userID, nil
}
