package repositories

import (
	"errors"

	"gorm.io/gorm"

	"resumegen/internal/models"
)

var ErrResumeNotFound = errors.New("resume not found")

// ResumeRepository persists resume records. Every query is scoped to the
// owning user; a resume belonging to someone else reads as not found.
type ResumeRepository struct {
	DB *gorm.DB
}

func (r *ResumeRepository) Create(resume *models.Resume) error {
	return r.DB.Create(resume).Error
}

func (r *ResumeRepository) ListByUser(userID uint) ([]models.Resume, error) {
	var resumes []models.Resume
	err := r.DB.Where("user_id = ?", userID).Order("updated_at DESC").Find(&resumes).Error
	return resumes, err
}

func (r *ResumeRepository) GetByID(id, userID uint) (*models.Resume, error) {
	var resume models.Resume
	err := r.DB.First(&resume, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResumeNotFound
	}
	return &resume, err
}

func (r *ResumeRepository) Update(id, userID uint, updates *models.Resume) (*models.Resume, error) {
	var resume models.Resume
	if err := r.DB.First(&resume, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	if err := r.DB.Model(&resume).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &resume, nil
}

func (r *ResumeRepository) Delete(id, userID uint) error {
	result := r.DB.Delete(&models.Resume{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResumeNotFound
	}
	return nil
}
