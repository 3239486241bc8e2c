package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Slug         string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	Description  *string   `gorm:"type:text"`
	DisplayOrder int       `gorm:"not null;default:0"` // "order" is reserved in SQL
	IsActive     bool      `gorm:"not null;default:true"`
	Services     []Service `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Service is a bookable offering within a category. Image holds the object
// key inside the service-images bucket, or is empty.
type Service struct {
	ID               string    `gorm:"type:varchar(36);primaryKey"`
	CategoryID       string    `gorm:"type:varchar(36);index;not null"`
	Category         *Category `gorm:"constraint:OnDelete:CASCADE"`
	Name             string    `gorm:"type:varchar(120);not null"`
	Slug             string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	Description      *string   `gorm:"type:text"`
	ShortDescription *string   `gorm:"type:varchar(255)"`
	Image            string    `gorm:"type:varchar(255)"`
	DisplayOrder     int       `gorm:"not null;default:0"`
	IsActive         bool      `gorm:"not null;default:true"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
