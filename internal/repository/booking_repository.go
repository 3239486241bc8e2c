package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

type BookingRepo struct{ DB *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo { return &BookingRepo{DB: db} }

func (r *BookingRepo) WithTx(tx *gorm.DB) *BookingRepo { return &BookingRepo{DB: tx} }

// Create inserts the booking together with its items in a single statement
// batch. Run it on a WithTx repo to make it atomic with other writes.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return translate(r.DB.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepo) AddPhoto(ctx context.Context, p *model.BookingPhoto) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func withGraph(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items.Service.Category").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("User")
}

// GetByID loads the full booking graph regardless of owner.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	err := withGraph(r.DB.WithContext(ctx)).Where("id = ?", id).First(&b).Error
	return b, translate(err)
}

// GetForUser loads a booking only if userID owns it. Ownership is part of
// the predicate so another user's id is indistinguishable from a missing one.
func (r *BookingRepo) GetForUser(ctx context.Context, userID, id string) (model.Booking, error) {
	var b model.Booking
	err := withGraph(r.DB.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	return b, translate(err)
}

// ListForUser returns the user's bookings, newest first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var out []model.Booking
	err := withGraph(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}
