package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is a row in refresh_tokens. Only the SHA-512 hex digest of the
// raw token is stored; the raw value lives in the client cookie.
type RefreshToken struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	UserID      string    `gorm:"type:varchar(36);index;not null"`
	HashedToken string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	Revoked     bool      `gorm:"not null;default:false;index"`
	ExpiresAt   time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
}

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ResetKind separates the two password reset flows sharing one table.
type ResetKind string

const (
	ResetKindCode ResetKind = "code" // 4-digit emailed code, must be verified before use
	ResetKindLink ResetKind = "link" // opaque token embedded in an emailed link
)

// ResetToken is a row in reset_tokens. Issuing a new one marks every prior
// unused row of the same user as used.
type ResetToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);index;not null"`
	Kind      ResetKind `gorm:"type:varchar(8);not null;default:code"`
	Token     string    `gorm:"type:varchar(128);index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Used      bool      `gorm:"not null;default:false"`
	Verified  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (t *ResetToken) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the token is past its expiry at now.
func (t ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
