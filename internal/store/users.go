package store

import (
	"context"

	"foodgram/models"
)

// ListUsers returns a page of users ordered by id. A zero limit returns every user.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := s.DB.WithContext(ctx).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// SetPasswordHash replaces the stored password hash of userID.
func (s *Store) SetPasswordHash(ctx context.Context, userID uint, hash string) error {
	result := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
