package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is a customer request for one or more services. TotalItems always
// equals len(Items) at creation.
type Booking struct {
	ID            string     `gorm:"type:varchar(36);primaryKey"`
	UserID        string     `gorm:"type:varchar(36);index;not null"`
	User          *User      `gorm:"constraint:OnDelete:RESTRICT"`
	ExecutionDate *time.Time // bookings.execution_date
	Postcode      *string    `gorm:"type:varchar(16)"`
	Address       *string    `gorm:"type:varchar(255)"`
	Notes         *string    `gorm:"type:text"`
	TotalItems    int        `gorm:"not null"`
	Items         []BookingItem
	Photos        []BookingPhoto
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type BookingItem struct {
	ID        string   `gorm:"type:varchar(36);primaryKey"`
	BookingID string   `gorm:"type:varchar(36);index;not null"`
	ServiceID string   `gorm:"type:varchar(36);index;not null"`
	Service   *Service `gorm:"constraint:OnDelete:RESTRICT"`
	Notes     *string  `gorm:"type:text"`
}

func (i *BookingItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// BookingPhoto records one successfully uploaded photo.
type BookingPhoto struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	BookingID string `gorm:"type:varchar(36);index;not null"`
	Filename  string `gorm:"type:varchar(255);not null"`
	URL       string `gorm:"type:varchar(1024);not null"`
	CreatedAt time.Time
}

func (p *BookingPhoto) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
