package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names a permission level. Guards compare against these values.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

type Language string

const (
	LanguageEnGB Language = "EN_GB"
	LanguagePtBR Language = "PT_BR"
)

// User is a row in the users table. Accounts are never hard deleted:
// DeleteAccount flips IsActive, stamps DeletedAt and anonymises Email.
type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey"`           // users.id
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"` // users.email
	PasswordHash string     `gorm:"column:password;not null"`               // users.password (bcrypt)
	Name         string     `gorm:"type:varchar(120);not null"`             // users.name
	Phone        *string    `gorm:"type:varchar(32)"`                       // users.phone
	Postcode     *string    `gorm:"type:varchar(16)"`                       // users.postcode
	Address      *string    `gorm:"type:varchar(255)"`                      // users.address
	Language     Language   `gorm:"type:varchar(8);not null;default:EN_GB"` // users.language
	Role         Role       `gorm:"type:varchar(16);not null;default:CUSTOMER;index"`
	IsActive     bool       `gorm:"not null;default:true"`
	DeletedAt    *time.Time // users.deleted_at (soft delete marker, not gorm.DeletedAt)
	AgencyID     *string    `gorm:"type:varchar(36);index"`
	Agency       *Agency    `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Deleted reports whether the account has been deactivated or soft deleted.
func (u User) Deleted() bool {
	return !u.IsActive || u.DeletedAt != nil
}
