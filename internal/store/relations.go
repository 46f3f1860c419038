package store

import (
	"context"

	"gorm.io/gorm"

	"foodgram/models"
)

// AddFavorite marks recipeID as a favorite of userID.
func (s *Store) AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.link(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, recipeID)
}

// RemoveFavorite deletes the favorite link, failing with ErrNotFound when absent.
func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.Favorite{}, userID, recipeID)
}

// AddToCart puts recipeID into the shopping cart of userID.
func (s *Store) AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.link(ctx, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, recipeID)
}

// RemoveFromCart deletes the cart entry, failing with ErrNotFound when absent.
func (s *Store) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.unlink(ctx, &models.ShoppingCart{}, userID, recipeID)
}

// IsFavorited reports whether userID favorited recipeID.
func (s *Store) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.exists(ctx, &models.Favorite{}, userID, recipeID)
}

// IsInCart reports whether recipeID is in the cart of userID.
func (s *Store) IsInCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.exists(ctx, &models.ShoppingCart{}, userID, recipeID)
}

func (s *Store) link(ctx context.Context, row any, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Image").First(&recipe, recipeID).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Create(row).Error)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *Store) unlink(ctx context.Context, model any, userID, recipeID uint) error {
	result := s.DB.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) exists(ctx context.Context, model any, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(model).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error
	return count > 0, err
}

// Follow subscribes userID to the recipes of authorID.
func (s *Store) Follow(ctx context.Context, userID, authorID uint) (*models.User, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var author models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Create(&models.Follow{UserID: userID, FollowingID: authorID}).Error)
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// Unfollow removes the subscription of userID to authorID.
func (s *Store) Unfollow(ctx context.Context, userID, authorID uint) error {
	result := s.DB.WithContext(ctx).Where("user_id = ? AND following_id = ?", userID, authorID).Delete(&models.Follow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFollowing reports whether userID follows authorID.
func (s *Store) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// ListFollowing returns the authors userID follows, ordered by id.
func (s *Store) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var authors []models.User
	err := s.DB.WithContext(ctx).
		Where("id IN (?)", s.DB.Model(&models.Follow{}).Select("following_id").Where("user_id = ?", userID)).
		Order("id asc").
		Find(&authors).Error
	return authors, err
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FavoritedAmong returns the subset of recipeIDs that userID favorited.
func (s *Store) FavoritedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.among(ctx, &models.Favorite{}, "recipe_id", "user_id = ? AND recipe_id IN ?", userID, recipeIDs)
}

// InCartAmong returns the subset of recipeIDs in the cart of userID.
func (s *Store) InCartAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.among(ctx, &models.ShoppingCart{}, "recipe_id", "user_id = ? AND recipe_id IN ?", userID, recipeIDs)
}

// FollowingAmong returns the subset of authorIDs that userID follows.
func (s *Store) FollowingAmong(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	return s.among(ctx, &models.Follow{}, "following_id", "user_id = ? AND following_id IN ?", userID, authorIDs)
}

func (s *Store) among(ctx context.Context, model any, column, where string, userID uint, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(ids))
	if userID == 0 || len(ids) == 0 {
		return set, nil
	}
	var found []uint
	if err := s.DB.WithContext(ctx).Model(model).Where(where, userID, ids).Pluck(column, &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}
