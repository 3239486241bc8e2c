package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/testhelpers"
)

func testConfig() config.Config {
	return config.Config{
		APIBaseURL: "http://api.test",
		BcryptCost: 4,
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		},
		Reset: config.ResetConfig{CodeTTL: 10 * time.Minute, TokenTTL: time.Hour},
		Storage: config.StorageConfig{
			PhotoBucket:        "booking-photos",
			ServiceImageBucket: "service-images",
			MaxPhotos:          5,
			MaxPhotoBytes:      5 << 20,
		},
		Mail: config.MailConfig{From: "office@example.com", NotifyTo: "office@example.com"},
	}
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeSender) sent() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.msgs...)
}

type fakeStore struct {
	mu      sync.Mutex
	keys    []string
	failFor string // filename substring that makes Upload fail
}

func (f *fakeStore) Upload(_ context.Context, bucket, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.failFor != "" && strings.Contains(key, f.failFor) {
		return "", errors.New("storage unavailable")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.keys = append(f.keys, bucket+"/"+key)
	f.mu.Unlock()
	return f.PublicURL(bucket, key), nil
}

func (f *fakeStore) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}

type fixture struct {
	db       *gorm.DB
	cfg      config.Config
	tokens   *TokenService
	accounts *AccountService
	resets   *PasswordResetService
	bookings *BookingService
	sender   *fakeSender
	store    *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	cfg := testConfig()
	log := zap.NewNop()
	sender := &fakeSender{}
	store := &fakeStore{}
	tokens := NewTokenService(cfg.JWT, db)
	return &fixture{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		accounts: NewAccountService(db, tokens, cfg.BcryptCost, log),
		resets:   NewPasswordResetService(db, cfg, sender, log),
		bookings: NewBookingService(db, store, sender, cfg, log),
		sender:   sender,
		store:    store,
	}
}

// latestReset returns the newest reset row of the user.
func latestReset(t *testing.T, db *gorm.DB, userID string) model.ResetToken {
	t.Helper()
	var row model.ResetToken
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").First(&row).Error; err != nil {
		t.Fatalf("load reset row: %v", err)
	}
	return row
}
