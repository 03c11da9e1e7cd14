package repositories

import (
	"errors"

	"gorm.io/gorm"

	"resumegen/internal/models"
)

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRepository struct {
	DB *gorm.DB
}

func (r *TemplateRepository) ListActive() ([]models.Template, error) {
	var templates []models.Template
	err := r.DB.Where("is_active = ?", true).Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) GetByID(id uint) (*models.Template, error) {
	var tpl models.Template
	err := r.DB.First(&tpl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	return &tpl, err
}
