package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agency groups users that book on behalf of a cleaning agency.
type Agency struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Name      string `gorm:"type:varchar(120);not null"`
	Phone     string `gorm:"type:varchar(32);not null"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Postcode  string `gorm:"type:varchar(16);not null"`
	Address   string `gorm:"type:varchar(255);not null"`
	IsActive  bool   `gorm:"not null;default:true"`
	Users     []User
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Agency) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
