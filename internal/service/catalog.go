package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/cleaning-booking/internal/model"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/storage"
)

// PlaceholderImage is served for services without an uploaded image.
const PlaceholderImage = "https://via.placeholder.com/400x300/4FB3D9/FFFFFF?text=Service"

type CatalogService struct {
	catalog *repository.CatalogRepo
	store   storage.Uploader
	bucket  string
}

func NewCatalogService(catalog *repository.CatalogRepo, store storage.Uploader, imageBucket string) *CatalogService {
	return &CatalogService{catalog: catalog, store: store, bucket: imageBucket}
}

func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// Services lists active services. categorySlug narrows the list unless it
// is empty, "all", or names no active category.
func (s *CatalogService) Services(ctx context.Context, categorySlug string) ([]model.Service, error) {
	var categoryID string
	if slug := strings.TrimSpace(categorySlug); slug != "" && !strings.EqualFold(slug, "all") {
		cat, err := s.catalog.CategoryBySlug(ctx, slug)
		switch {
		case err == nil:
			categoryID = cat.ID
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return s.catalog.ListServices(ctx, categoryID)
}

func (s *CatalogService) ServiceBySlug(ctx context.Context, slug string) (model.Service, error) {
	svc, err := s.catalog.ServiceBySlug(ctx, slug)
	if err != nil {
		return model.Service{}, notFound(err, "service")
	}
	return svc, nil
}

// ImageURL resolves the public URL of a service image.
func (s *CatalogService) ImageURL(svc model.Service) string {
	img := strings.TrimSpace(svc.Image)
	switch {
	case img == "":
		return PlaceholderImage
	case strings.HasPrefix(img, "http://"), strings.HasPrefix(img, "https://"):
		return img
	case s.store == nil:
		return PlaceholderImage
	}
	return s.store.PublicURL(s.bucket, img)
}
