// Package model holds the gorm models persisted by the repositories.
package model

// All lists every model in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Agency{},
		&User{},
		&RefreshToken{},
		&ResetToken{},
		&Category{},
		&Service{},
		&Booking{},
		&BookingItem{},
		&BookingPhoto{},
	}
}
