package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

// CatalogRepo reads categories and services. Only active rows are visible.
type CatalogRepo struct{ DB *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

func (r *CatalogRepo) WithTx(tx *gorm.DB) *CatalogRepo { return &CatalogRepo{DB: tx} }

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Find(&cats).Error
	return cats, translate(err)
}

func (r *CatalogRepo) CategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	var c model.Category
	err := r.DB.WithContext(ctx).Where("slug = ? AND is_active = ?", slug, true).First(&c).Error
	return c, translate(err)
}

// ListServices returns active services, optionally limited to one category.
func (r *CatalogRepo) ListServices(ctx context.Context, categoryID string) ([]model.Service, error) {
	var svcs []model.Service
	q := r.DB.WithContext(ctx).Preload("Category").Where("is_active = ?", true)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	err := q.Order("display_order ASC").Find(&svcs).Error
	return svcs, translate(err)
}

func (r *CatalogRepo) ServiceBySlug(ctx context.Context, slug string) (model.Service, error) {
	var s model.Service
	err := r.DB.WithContext(ctx).Preload("Category").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&s).Error
	return s, translate(err)
}

// MissingServices returns the ids in ids that do not name a service.
func (r *CatalogRepo) MissingServices(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	err := r.DB.WithContext(ctx).Model(&model.Service{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		return nil, translate(err)
	}
	seen := make(map[string]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing, nil
}
