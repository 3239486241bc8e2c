package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

type AgencyRepo struct{ DB *gorm.DB }

func NewAgencyRepo(db *gorm.DB) *AgencyRepo { return &AgencyRepo{DB: db} }

// AgencySummary is an agency with the number of users attached to it.
type AgencySummary struct {
	model.Agency
	UserCount int64
}

func (r *AgencyRepo) Create(ctx context.Context, a *model.Agency) error {
	a.Email = NormalizeEmail(a.Email)
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *AgencyRepo) GetByID(ctx context.Context, id string) (model.Agency, error) {
	var a model.Agency
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error
	return a, translate(err)
}

// GetWithUsers loads the agency and its members, ordered by name.
func (r *AgencyRepo) GetWithUsers(ctx context.Context, id string) (model.Agency, error) {
	var a model.Agency
	err := r.DB.WithContext(ctx).
		Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("id = ?", id).
		First(&a).Error
	return a, translate(err)
}

// EmailTaken reports whether another agency (not excludeID) uses email.
func (r *AgencyRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&model.Agency{}).Where("email = ?", NormalizeEmail(email))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, translate(err)
}

// List returns agencies ordered by name with their user counts.
func (r *AgencyRepo) List(ctx context.Context, includeInactive bool) ([]AgencySummary, error) {
	var agencies []model.Agency
	q := r.DB.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&agencies).Error; err != nil {
		return nil, translate(err)
	}
	if len(agencies) == 0 {
		return []AgencySummary{}, nil
	}

	ids := make([]string, len(agencies))
	for i, a := range agencies {
		ids[i] = a.ID
	}
	var counts []struct {
		AgencyID string
		N        int64
	}
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("agency_id, COUNT(*) AS n").
		Where("agency_id IN ?", ids).
		Group("agency_id").
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err)
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.AgencyID] = c.N
	}

	out := make([]AgencySummary, len(agencies))
	for i, a := range agencies {
		out[i] = AgencySummary{Agency: a, UserCount: byID[a.ID]}
	}
	return out, nil
}

// Update applies partial column updates. The email index still applies.
func (r *AgencyRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if v, ok := fields["email"].(string); ok {
		fields["email"] = NormalizeEmail(v)
	}
	return translate(r.DB.WithContext(ctx).Model(&model.Agency{}).Where("id = ?", id).Updates(fields).Error)
}

func (r *AgencyRepo) SetActive(ctx context.Context, id string, active bool) error {
	return translate(r.DB.WithContext(ctx).Model(&model.Agency{}).Where("id = ?", id).Update("is_active", active).Error)
}
