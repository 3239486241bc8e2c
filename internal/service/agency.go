package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
)

type AgencyInput struct {
	Name     string
	Phone    string
	Email    string
	Postcode string
	Address  string
}

// AgencyUpdate is a partial update; nil fields are left unchanged.
type AgencyUpdate struct {
	Name     *string
	Phone    *string
	Email    *string
	Postcode *string
	Address  *string
}

type AgencyService struct {
	agencies *repository.AgencyRepo
	users    *repository.UserRepo
	log      *zap.Logger
}

func NewAgencyService(agencies *repository.AgencyRepo, users *repository.UserRepo, log *zap.Logger) *AgencyService {
	return &AgencyService{agencies: agencies, users: users, log: log}
}

func (s *AgencyService) List(ctx context.Context, includeInactive bool) ([]repository.AgencySummary, error) {
	return s.agencies.List(ctx, includeInactive)
}

// Get returns the agency with its members.
func (s *AgencyService) Get(ctx context.Context, id string) (model.Agency, error) {
	a, err := s.agencies.GetWithUsers(ctx, id)
	if err != nil {
		return model.Agency{}, notFound(err, "agency")
	}
	return a, nil
}

func (s *AgencyService) Create(ctx context.Context, in AgencyInput) (model.Agency, error) {
	taken, err := s.agencies.EmailTaken(ctx, in.Email, "")
	if err != nil {
		return model.Agency{}, err
	}
	if taken {
		return model.Agency{}, fmt.Errorf("%w: agency email already in use", ErrConflict)
	}
	a := model.Agency{
		Name:     in.Name,
		Phone:    in.Phone,
		Email:    in.Email,
		Postcode: in.Postcode,
		Address:  in.Address,
		IsActive: true,
	}
	if err := s.agencies.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Agency{}, fmt.Errorf("%w: agency email already in use", ErrConflict)
		}
		return model.Agency{}, err
	}
	s.log.Info("agency created", zap.String("agency_id", a.ID))
	return a, nil
}

func (s *AgencyService) Update(ctx context.Context, id string, in AgencyUpdate) (model.Agency, error) {
	if _, err := s.agencies.GetByID(ctx, id); err != nil {
		return model.Agency{}, notFound(err, "agency")
	}
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = *in.Name
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
	if in.Email != nil {
		taken, err := s.agencies.EmailTaken(ctx, *in.Email, id)
		if err != nil {
			return model.Agency{}, err
		}
		if taken {
			return model.Agency{}, fmt.Errorf("%w: agency email already in use", ErrConflict)
		}
		fields["email"] = *in.Email
	}
	if err := s.agencies.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Agency{}, fmt.Errorf("%w: agency email already in use", ErrConflict)
		}
		return model.Agency{}, err
	}
	a, err := s.agencies.GetByID(ctx, id)
	return a, notFound(err, "agency")
}

// SetActive deactivates or reactivates an agency. Members keep their link.
func (s *AgencyService) SetActive(ctx context.Context, id string, active bool) (model.Agency, error) {
	if _, err := s.agencies.GetByID(ctx, id); err != nil {
		return model.Agency{}, notFound(err, "agency")
	}
	if err := s.agencies.SetActive(ctx, id, active); err != nil {
		return model.Agency{}, err
	}
	s.log.Info("agency status changed", zap.String("agency_id", id), zap.Bool("active", active))
	a, err := s.agencies.GetByID(ctx, id)
	return a, notFound(err, "agency")
}

// AssignUser links a user to an agency.
func (s *AgencyService) AssignUser(ctx context.Context, userID, agencyID string) (model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.User{}, notFound(err, "user")
	}
	if _, err := s.agencies.GetByID(ctx, agencyID); err != nil {
		return model.User{}, notFound(err, "agency")
	}
	if err := s.users.SetAgency(ctx, userID, &agencyID); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetWithAgency(ctx, userID)
	return u, notFound(err, "user")
}

// RemoveUser detaches a user from whatever agency they belong to.
func (s *AgencyService) RemoveUser(ctx context.Context, userID string) (model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.User{}, notFound(err, "user")
	}
	if err := s.users.SetAgency(ctx, userID, nil); err != nil {
		return model.User{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	return u, notFound(err, "user")
}
