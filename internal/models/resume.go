package models

import (
	"gorm.io/gorm"
)

// Resume is a stored resume document owned by one user. Collaborative edits
// are broadcast live and only persisted through the REST surface.
type Resume struct {
	gorm.Model
	Title      string `gorm:"size:200;not null" json:"title"`
	Content    string `gorm:"not null" json:"content"`
	TemplateID *uint  `json:"templateId,omitempty"`
	UserID     uint   `gorm:"index;not null" json:"userId"`
}

type Template struct {
	gorm.Model
	Name     string `gorm:"size:100;not null" json:"name"`
	Content  string `gorm:"not null" json:"content"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

type UserProfile struct {
	gorm.Model
	UserID    uint   `gorm:"uniqueIndex;not null" json:"userId"`
	FirstName string `gorm:"size:50" json:"firstName"`
	LastName  string `gorm:"size:50" json:"lastName"`
	Email     string `gorm:"size:100;not null" json:"email"`
}

type CreateResumeRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	TemplateID *uint  `json:"templateId,omitempty"`
}

type UpdateResumeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
