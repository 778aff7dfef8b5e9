package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"gorm.io/gorm"
)

// NotificationStore is the persistence layer for notifications.
type NotificationStore struct {
	db *gorm.DB
}

func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(n *models.Notification) error {
	return s.db.Create(n).Error
}

func (s *NotificationStore) FindByID(id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (s *NotificationStore) FindAllByID(ids []uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	if len(ids) == 0 {
		return notifications, nil
	}
	err := s.db.Where("id IN ?", ids).Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) FindByTarget(userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("target_user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) FindUnreadByTarget(userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("target_user_id = ? AND is_read = ?", userID, false).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) FindByType(userID uuid.UUID, notificationType string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("target_user_id = ? AND type = ?", userID, notificationType).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) FindHighPriority(userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("target_user_id = ? AND priority IN ?", userID, []models.NotificationPriority{models.PriorityHigh, models.PriorityUrgent}).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) FindPending() ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("delivery_status = ?", models.DeliveryPending).
		Order("created_at asc").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationStore) Save(n *models.Notification) error {
	return s.db.Save(n).Error
}

func (s *NotificationStore) SaveAll(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return s.db.Save(&notifications).Error
}

func (s *NotificationStore) Delete(id uuid.UUID) error {
	return s.db.Delete(&models.Notification{}, "id = ?", id).Error
}

// DeleteExpired removes every notification whose expiry is strictly before
// now, regardless of read or delivery state. Returns the number of rows
// removed.
func (s *NotificationStore) DeleteExpired(now time.Time) (int64, error) {
	res := s.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// UpdateStatusIfPending flips delivery status only when the row is still
// PENDING. A false return means another path already claimed the row.
func (s *NotificationStore) UpdateStatusIfPending(id uuid.UUID, status models.DeliveryStatus) (bool, error) {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND delivery_status = ?", id, models.DeliveryPending).
		Update("delivery_status", status)
	return res.RowsAffected > 0, res.Error
}
