package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/utils"
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenService issues and verifies access and refresh tokens. Access and
// refresh tokens are signed with distinct secrets.
type TokenService struct {
	cfg    config.JWTConfig
	db     *gorm.DB
	users  *repository.UserRepo
	tokens *repository.TokenRepo
}

func NewTokenService(cfg config.JWTConfig, db *gorm.DB) *TokenService {
	return &TokenService{
		cfg:    cfg,
		db:     db,
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
	}
}

// IssueTokenPair signs a fresh pair for u. Nothing is persisted.
func (s *TokenService) IssueTokenPair(u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, string(u.Role), s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:      access.Token,
		AccessExpiresAt:  access.Exp,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.Exp,
	}, nil
}

// PersistRefreshToken stores the hash of raw. The raw token is not kept.
func (s *TokenService) PersistRefreshToken(ctx context.Context, userID, raw string, exp time.Time) error {
	return s.tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(raw), exp)
}

// IssueAndPersist is IssueTokenPair followed by PersistRefreshToken.
func (s *TokenService) IssueAndPersist(ctx context.Context, u model.User) (TokenPair, error) {
	pair, err := s.IssueTokenPair(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.PersistRefreshToken(ctx, u.ID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, nil
}

// VerifyAccessToken checks signature and expiry only. Callers that need the
// account to still be active load the user themselves.
func (s *TokenService) VerifyAccessToken(raw string) (*utils.AccessClaims, error) {
	claims, err := utils.ParseAccessToken(s.cfg.AccessSecret, raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken checks signature and expiry, then requires a stored,
// non-revoked row for the token hash and an active owner.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, raw string) (model.User, error) {
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, raw)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}
	row, err := s.tokens.FindByHash(ctx, utils.HashRefreshRaw(raw))
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, err
	}
	if row.Revoked {
		return model.User{}, ErrRevoked
	}
	if row.UserID != claims.UserID {
		return model.User{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, row.UserID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Deleted()) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Rotate verifies raw, revokes it and issues a replacement pair. If two
// requests race on the same token only one wins; the loser sees ErrRevoked.
func (s *TokenService) Rotate(ctx context.Context, raw string) (TokenPair, model.User, error) {
	u, err := s.VerifyRefreshToken(ctx, raw)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	pair, err := s.IssueTokenPair(u)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokens := s.tokens.WithTx(tx)
		ok, err := tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
		if err != nil {
			return err
		}
		if !ok {
			return ErrRevoked
		}
		return tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(pair.RefreshToken), pair.RefreshExpiresAt)
	})
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	return pair, u, nil
}

// Revoke revokes a single refresh token. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	_, err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	return err
}

func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// RefreshTTL is the lifetime of refresh tokens, used for the cookie Max-Age.
func (s *TokenService) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }
