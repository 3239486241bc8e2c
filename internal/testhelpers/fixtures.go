package testhelpers

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

// DefaultPassword is the plain password of users created by CreateUser.
const DefaultPassword = "secret-password"

// CreateUser inserts an active user with DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, email string, role model.Role) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Language:     model.LanguageEnGB,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateService inserts an active service inside a fresh category.
func CreateService(t *testing.T, db *gorm.DB, slug string) model.Service {
	t.Helper()
	cat := model.Category{Name: "Cat " + slug, Slug: "cat-" + slug, IsActive: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	svc := model.Service{CategoryID: cat.ID, Name: "Service " + slug, Slug: slug, IsActive: true}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	svc.Category = &cat
	return svc
}
