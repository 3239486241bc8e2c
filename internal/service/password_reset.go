package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/utils"
)

const resetCodeDigits = 4

// PasswordResetService drives both reset flows.
//
// Code flow: Issued -> Verified -> Consumed. A code is Expired once its
// expiry passes and Superseded when a newer reset is issued for the user.
// Link flow: Issued -> Consumed, with the same expiry and supersede rules.
type PasswordResetService struct {
	db         *gorm.DB
	users      *repository.UserRepo
	resets     *repository.ResetRepo
	tokenRepo  *repository.TokenRepo
	notify     *notifier
	cfg        config.ResetConfig
	apiBaseURL string
	bcryptCost int
	log        *zap.Logger
	now        func() time.Time
}

func NewPasswordResetService(db *gorm.DB, cfg config.Config, sender mail.Sender, log *zap.Logger) *PasswordResetService {
	return &PasswordResetService{
		db:         db,
		users:      repository.NewUserRepo(db),
		resets:     repository.NewResetRepo(db),
		tokenRepo:  repository.NewTokenRepo(db),
		notify:     newNotifier(sender, log),
		cfg:        cfg.Reset,
		apiBaseURL: cfg.APIBaseURL,
		bcryptCost: cfg.BcryptCost,
		log:        log,
		now:        time.Now,
	}
}

// Wait blocks until queued emails have been handed to the transport.
func (s *PasswordResetService) Wait() { s.notify.wait() }

// lookup returns the active user for email, or ok=false.
func (s *PasswordResetService) lookup(ctx context.Context, email string) (model.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	if u.Deleted() {
		return model.User{}, false, nil
	}
	return u, true, nil
}

// issue supersedes every pending reset of the user and stores a new one in
// a single transaction.
func (s *PasswordResetService) issue(ctx context.Context, userID string, kind model.ResetKind, token string, ttl time.Duration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resets := s.resets.WithTx(tx)
		if err := resets.SupersedeForUser(ctx, userID); err != nil {
			return err
		}
		return resets.Create(ctx, &model.ResetToken{
			UserID:    userID,
			Kind:      kind,
			Token:     token,
			ExpiresAt: s.now().UTC().Add(ttl),
		})
	})
}

// RequestReset issues a 4-digit code and emails it. The result is the same
// whether or not the email belongs to an account.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	u, ok, err := s.lookup(ctx, email)
	if err != nil || !ok {
		return err
	}
	code, err := utils.RandomDigits(resetCodeDigits)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := s.issue(ctx, u.ID, model.ResetKindCode, code, s.cfg.CodeTTL); err != nil {
		return err
	}

	msg, err := mail.ResetCodeEmail(u.Email, mail.ResetCodeData{Name: u.Name, Code: code, Minutes: minutes(s.cfg.CodeTTL)})
	if err != nil {
		s.notify.renderFailed(mail.KindResetCode, err)
		return nil
	}
	s.notify.send(ctx, msg)
	return nil
}

// activeRow finds the newest unused row of kind for the user and classifies
// it as invalid or expired.
func (s *PasswordResetService) activeRow(ctx context.Context, email, code string) (model.User, model.ResetToken, error) {
	u, ok, err := s.lookup(ctx, email)
	if err != nil {
		return model.User{}, model.ResetToken{}, err
	}
	if !ok {
		return model.User{}, model.ResetToken{}, ErrInvalidCode
	}
	row, err := s.resets.FindUnused(ctx, u.ID, model.ResetKindCode, code)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, model.ResetToken{}, ErrInvalidCode
	}
	if err != nil {
		return model.User{}, model.ResetToken{}, err
	}
	if row.Expired(s.now()) {
		return model.User{}, model.ResetToken{}, ErrExpiredCode
	}
	return u, row, nil
}

// VerifyCode moves a matching unused, unexpired code to Verified.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	_, row, err := s.activeRow(ctx, email, code)
	if err != nil {
		return err
	}
	if row.Verified {
		return nil
	}
	ok, err := s.resets.MarkVerified(ctx, row.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// ResetPassword consumes a verified code, overwrites the password and
// revokes every refresh token of the user in one transaction.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, row, err := s.activeRow(ctx, email, code)
	if err != nil {
		return err
	}
	if !row.Verified {
		return ErrInvalidCode
	}
	if err := s.consume(ctx, u.ID, row.ID, true, newPassword); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("user_id", u.ID), zap.String("flow", "code"))
	return nil
}

func (s *PasswordResetService) consume(ctx context.Context, userID, rowID string, requireVerified bool, newPassword string) error {
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.resets.WithTx(tx).Consume(ctx, rowID, requireVerified, s.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCode
		}
		if err := s.users.WithTx(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.tokenRepo.WithTx(tx).RevokeAllForUser(ctx, userID)
	})
}

// ForgotPassword issues a link token and emails the reset link. Like
// RequestReset it never reveals whether the email exists.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	u, ok, err := s.lookup(ctx, email)
	if err != nil || !ok {
		return err
	}
	token, err := utils.RandomHex(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.issue(ctx, u.ID, model.ResetKindLink, token, s.cfg.TokenTTL); err != nil {
		return err
	}

	link := s.apiBaseURL + "/reset-password?token=" + token
	msg, err := mail.ResetLinkEmail(u.Email, mail.ResetLinkData{Name: u.Name, Link: link, Minutes: minutes(s.cfg.TokenTTL)})
	if err != nil {
		s.notify.renderFailed(mail.KindResetLink, err)
		return nil
	}
	s.notify.send(ctx, msg)
	return nil
}

// ResetPasswordWithToken consumes a link token. There is no verify step.
func (s *PasswordResetService) ResetPasswordWithToken(ctx context.Context, token, newPassword string) error {
	row, err := s.resets.FindUnusedLink(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	if row.Expired(s.now()) {
		return ErrExpiredCode
	}
	if err := s.consume(ctx, row.UserID, row.ID, false, newPassword); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("user_id", row.UserID), zap.String("flow", "link"))
	return nil
}

func minutes(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}
