package repositories

import (
	"errors"

	"gorm.io/gorm"

	"resumegen/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository stores one profile per user.
type ProfileRepository struct {
	DB *gorm.DB
}

func (r *ProfileRepository) GetByUserID(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.DB.First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	return &profile, err
}

// Upsert creates the user's profile or updates the existing one.
func (r *ProfileRepository) Upsert(profile *models.UserProfile) error {
	var existing models.UserProfile
	err := r.DB.First(&existing, "user_id = ?", profile.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(profile).Error
	}
	if err != nil {
		return err
	}
	profile.ID = existing.ID
	return r.DB.Model(&existing).Updates(profile).Error
}
