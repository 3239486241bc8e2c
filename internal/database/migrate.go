package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

// Migrate creates or updates every table.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(model.All()...)
}
