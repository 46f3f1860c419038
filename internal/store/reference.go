package store

import (
	"context"
	"strings"

	"foodgram/models"
)

// ListTags returns every tag ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.DB.WithContext(ctx).Order("name asc").Find(&tags).Error
	return tags, err
}

// CreateTag inserts a tag, defaulting the color when it is not a hex value.
func (s *Store) CreateTag(ctx context.Context, name, color, slug string) (*models.Tag, error) {
	tag := &models.Tag{
		Name:  strings.TrimSpace(name),
		Color: models.NormalizeColor(strings.TrimSpace(color)),
		Slug:  strings.TrimSpace(slug),
	}
	if err := s.DB.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, translate(err)
	}
	return tag, nil
}

// SearchIngredients returns ingredients whose name starts with prefix,
// ordered by name. An empty prefix lists everything up to limit.
func (s *Store) SearchIngredients(ctx context.Context, prefix string, limit int) ([]models.Ingredient, error) {
	query := s.DB.WithContext(ctx).Order("name asc, id asc")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where("lower(name) LIKE ?", strings.ToLower(prefix)+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ingredients []models.Ingredient
	err := query.Find(&ingredients).Error
	return ingredients, err
}
