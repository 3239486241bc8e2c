package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/utils"
)

// RegisterInput carries a validated registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Postcode *string
	Address  *string
	Language string
	AgencyID *string
}

// ProfileUpdate holds the profile fields a user may change. Nil means
// "leave as is".
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Postcode *string
	Address  *string
	Language *string
}

// AccountService covers registration, login, profile and account deletion.
type AccountService struct {
	db         *gorm.DB
	users      *repository.UserRepo
	agencies   *repository.AgencyRepo
	resets     *repository.ResetRepo
	tokenRepo  *repository.TokenRepo
	tokens     *TokenService
	bcryptCost int
	log        *zap.Logger
	now        func() time.Time
}

func NewAccountService(db *gorm.DB, tokens *TokenService, bcryptCost int, log *zap.Logger) *AccountService {
	return &AccountService{
		db:         db,
		users:      repository.NewUserRepo(db),
		agencies:   repository.NewAgencyRepo(db),
		resets:     repository.NewResetRepo(db),
		tokenRepo:  repository.NewTokenRepo(db),
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
		now:        time.Now,
	}
}

func parseLanguage(s string) (model.Language, error) {
	switch model.Language(strings.ToUpper(s)) {
	case "", model.LanguageEnGB:
		return model.LanguageEnGB, nil
	case model.LanguagePtBR:
		return model.LanguagePtBR, nil
	}
	return "", validationf("unsupported language %q", s)
}

// Register creates a CUSTOMER account. A taken email is ErrConflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	lang, err := parseLanguage(in.Language)
	if err != nil {
		return model.User{}, err
	}
	if in.AgencyID != nil && *in.AgencyID != "" {
		if _, err := s.agencies.GetByID(ctx, *in.AgencyID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.User{}, validationf("agency %s does not exist", *in.AgencyID)
			}
			return model.User{}, err
		}
	} else {
		in.AgencyID = nil
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Postcode:     in.Postcode,
		Address:      in.Address,
		Language:     lang,
		Role:         model.RoleCustomer,
		IsActive:     true,
		AgencyID:     in.AgencyID,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return model.User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// Login checks credentials and issues a persisted token pair. Unknown
// email, wrong password and deactivated accounts all yield
// ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (TokenPair, model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) || u.Deleted() {
		return TokenPair{}, model.User{}, ErrInvalidCredentials
	}
	pair, err := s.tokens.IssueAndPersist(ctx, u)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID))
	return pair, u, nil
}

// Profile returns the user with the agency preloaded.
func (s *AccountService) Profile(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetWithAgency(ctx, userID)
	if err != nil {
		return model.User{}, notFound(err, "user")
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.User{}, notFound(err, "user")
	}
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Postcode != nil {
		fields["postcode"] = *in.Postcode
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.Language != nil {
		lang, err := parseLanguage(*in.Language)
		if err != nil {
			return model.User{}, err
		}
		fields["language"] = lang
	}
	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		return model.User{}, err
	}
	return s.Profile(ctx, userID)
}

// DeleteAccount soft deletes the account: it is deactivated, its email is
// anonymised, and every refresh token and pending reset is invalidated, all
// in one transaction.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if u.Deleted() {
			return validationf("account already deactivated")
		}
		if err := users.SoftDelete(ctx, userID, s.now().UTC()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return validationf("account already deactivated")
			}
			return err
		}
		if err := s.tokenRepo.WithTx(tx).RevokeAllForUser(ctx, userID); err != nil {
			return err
		}
		return s.resets.WithTx(tx).SupersedeForUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.log.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// ListUsers returns every account for the admin area.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}
