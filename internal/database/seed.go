package database

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/cleaning-booking/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
		Order       int    `yaml:"order"`
	} `yaml:"categories"`
	Services []struct {
		Category    string `yaml:"category"`
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Short       string `yaml:"short"`
		Description string `yaml:"description"`
		Image       string `yaml:"image"`
		Order       int    `yaml:"order"`
	} `yaml:"services"`
}

// SeedResult reports how many catalog rows were written.
type SeedResult struct {
	Categories int
	Services   int
}

// SeedCatalog upserts the embedded catalog. Rows are matched by slug so the
// command can be rerun safely.
func SeedCatalog(ctx context.Context, db *gorm.DB) (SeedResult, error) {
	return SeedCatalogFrom(ctx, db, defaultCatalog)
}

// SeedCatalogFrom upserts a catalog document in the catalog.yaml format.
func SeedCatalogFrom(ctx context.Context, db *gorm.DB, doc []byte) (SeedResult, error) {
	var file catalogFile
	if err := yaml.Unmarshal(doc, &file); err != nil {
		return SeedResult{}, fmt.Errorf("parse catalog: %w", err)
	}

	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]string, len(file.Categories))
		for _, c := range file.Categories {
			row := model.Category{Name: c.Name, Slug: c.Slug, DisplayOrder: c.Order, IsActive: true}
			if c.Description != "" {
				desc := c.Description
				row.Description = &desc
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "display_order", "is_active"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("category %s: %w", c.Slug, err)
			}
			var stored model.Category
			if err := tx.Where("slug = ?", c.Slug).First(&stored).Error; err != nil {
				return err
			}
			ids[c.Slug] = stored.ID
			res.Categories++
		}

		for _, s := range file.Services {
			catID, ok := ids[s.Category]
			if !ok {
				return fmt.Errorf("service %s: unknown category %q", s.Slug, s.Category)
			}
			row := model.Service{
				CategoryID:   catID,
				Name:         s.Name,
				Slug:         s.Slug,
				Image:        s.Image,
				DisplayOrder: s.Order,
				IsActive:     true,
			}
			if s.Description != "" {
				desc := s.Description
				row.Description = &desc
			}
			if s.Short != "" {
				short := s.Short
				row.ShortDescription = &short
			}
			if row.Image == "" {
				row.Image = s.Slug + "-thumbnail.png"
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"category_id", "name", "description", "short_description", "image", "display_order", "is_active",
				}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("service %s: %w", s.Slug, err)
			}
			res.Services++
		}
		return nil
	})
	return res, err
}
