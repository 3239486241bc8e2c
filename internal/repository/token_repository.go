package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

// TokenRepo persists refresh token hashes. Raw tokens never reach it.
type TokenRepo struct{ DB *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) WithTx(tx *gorm.DB) *TokenRepo { return &TokenRepo{DB: tx} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	row := model.RefreshToken{UserID: userID, HashedToken: tokenHash, ExpiresAt: exp}
	return translate(r.DB.WithContext(ctx).Create(&row).Error)
}

// FindByHash returns the row for tokenHash whatever its revocation state.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.WithContext(ctx).Where("hashed_token = ?", tokenHash).First(&t).Error
	return t, translate(err)
}

// RevokeByHash marks a token as revoked. It reports whether a live row was
// flipped, so concurrent rotations of the same token cannot both succeed.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("hashed_token = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)
	return res.RowsAffected == 1, translate(res.Error)
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	return translate(r.DB.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error)
}

// DeleteStale removes revoked rows and rows that expired before now.
func (r *TokenRepo) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("revoked = ? OR expires_at < ?", true, now).
		Delete(&model.RefreshToken{})
	return res.RowsAffected, translate(res.Error)
}
