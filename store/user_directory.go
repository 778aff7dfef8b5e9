package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"gorm.io/gorm"
)

// UserDirectory is the narrow user lookup the engine consumes. Absence is not
// an error: FindByID returns (nil, nil) for an unknown id.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (d *UserDirectory) FindAllByID(ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := d.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindSystemUser returns the reserved sender for SYSTEM messages.
func (d *UserDirectory) FindSystemUser() (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, "role = ?", models.RoleSystem).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
