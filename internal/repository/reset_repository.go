package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

// ResetRepo stores password reset codes and link tokens.
type ResetRepo struct{ DB *gorm.DB }

func NewResetRepo(db *gorm.DB) *ResetRepo { return &ResetRepo{DB: db} }

func (r *ResetRepo) WithTx(tx *gorm.DB) *ResetRepo { return &ResetRepo{DB: tx} }

// SupersedeForUser marks every unused reset row of the user as used.
func (r *ResetRepo) SupersedeForUser(ctx context.Context, userID string) error {
	return translate(r.DB.WithContext(ctx).Model(&model.ResetToken{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error)
}

func (r *ResetRepo) Create(ctx context.Context, t *model.ResetToken) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

// FindUnused returns the newest unused row of kind for the user matching
// token. Expiry is left to the caller so it can tell expired from invalid.
func (r *ResetRepo) FindUnused(ctx context.Context, userID string, kind model.ResetKind, token string) (model.ResetToken, error) {
	var t model.ResetToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND token = ? AND used = ?", userID, kind, token, false).
		Order("created_at DESC").
		First(&t).Error
	return t, translate(err)
}

// FindUnusedLink looks up an unused link token without knowing its owner.
func (r *ResetRepo) FindUnusedLink(ctx context.Context, token string) (model.ResetToken, error) {
	var t model.ResetToken
	err := r.DB.WithContext(ctx).
		Where("kind = ? AND token = ? AND used = ?", model.ResetKindLink, token, false).
		First(&t).Error
	return t, translate(err)
}

// MarkVerified moves an unused, unexpired row to the verified state.
func (r *ResetRepo) MarkVerified(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.ResetToken{}).
		Where("id = ? AND used = ? AND expires_at > ?", id, false, now).
		Update("verified", true)
	return res.RowsAffected == 1, translate(res.Error)
}

// Consume marks the row used. When requireVerified is set the row must have
// been verified first. The conditional update makes consumption single-use
// under concurrency: only one caller observes true.
func (r *ResetRepo) Consume(ctx context.Context, id string, requireVerified bool, now time.Time) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&model.ResetToken{}).
		Where("id = ? AND used = ? AND expires_at > ?", id, false, now)
	if requireVerified {
		q = q.Where("verified = ?", true)
	}
	res := q.Update("used", true)
	return res.RowsAffected == 1, translate(res.Error)
}

// DeleteStale removes used rows and rows that expired before now.
func (r *ResetRepo) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("used = ? OR expires_at < ?", true, now).
		Delete(&model.ResetToken{})
	return res.RowsAffected, translate(res.Error)
}
