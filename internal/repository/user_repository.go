package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// WithTx returns a copy bound to tx.
func (r *UserRepo) WithTx(tx *gorm.DB) *UserRepo { return &UserRepo{DB: tx} }

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AnonymizedEmail is the address a soft deleted account is rewritten to.
func AnonymizedEmail(userID string) string {
	return "deleted_" + userID + "@deleted.local"
}

// Create inserts u. A taken email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	return u, translate(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, translate(err)
}

// GetWithAgency is GetByID with the agency preloaded.
func (r *UserRepo) GetWithAgency(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Preload("Agency").Where("id = ?", id).First(&u).Error
	return u, translate(err)
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, translate(err)
}

// UpdateProfile applies the given column updates to one user. Callers check
// existence first.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	return translate(res.Error)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hash)
	return translate(res.Error)
}

// SoftDelete deactivates an active account and frees its email address.
// It returns ErrNotFound when no active account matches.
func (r *UserRepo) SoftDelete(ctx context.Context, id string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":  false,
			"deleted_at": now,
			"email":      AnonymizedEmail(id),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAgency assigns the user to agencyID, or detaches it when agencyID is nil.
func (r *UserRepo) SetAgency(ctx context.Context, userID string, agencyID *string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("agency_id", agencyID)
	return translate(res.Error)
}

// SetRole changes the user's role. An unknown email yields ErrNotFound.
func (r *UserRepo) SetRole(ctx context.Context, email string, role model.Role) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", NormalizeEmail(email)).
		Update("role", role)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
