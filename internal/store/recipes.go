package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"foodgram/models"
)

// RecipeInput carries the user-editable fields of a recipe.
type RecipeInput struct {
	Name        string
	Text        string
	Image       []byte
	ImageName   string
	CookingTime int
	TagIDs      []uint
	Ingredients []IngredientInput
}

// IngredientInput references an existing ingredient with the amount a recipe needs.
type IngredientInput struct {
	IngredientID uint
	Amount       int
}

// RecipeFilter narrows ListRecipes. Zero values disable a criterion.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    uint
	FavoritedBy uint
	InCartOf    uint
	Limit       int
	Offset      int
}

func validateRecipeInput(in RecipeInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecipe)
	}
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRecipe)
	}
	if in.CookingTime <= 0 {
		return fmt.Errorf("%w: cooking time must be greater than 0", ErrInvalidRecipe)
	}
	if len(in.Ingredients) == 0 {
		return fmt.Errorf("%w: at least one ingredient is required", ErrInvalidRecipe)
	}
	seen := make(map[uint]struct{}, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		if ing.Amount <= 0 {
			return fmt.Errorf("%w: ingredient amount must be at least 1", ErrInvalidRecipe)
		}
		if _, ok := seen[ing.IngredientID]; ok {
			return fmt.Errorf("%w: ingredient %d listed twice", ErrInvalidRecipe, ing.IngredientID)
		}
		seen[ing.IngredientID] = struct{}{}
	}
	return nil
}

// CreateRecipe persists a recipe authored by authorID with its tags and
// ingredient amounts in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        in.Text,
		Image:       in.Image,
		ImageName:   in.ImageName,
		CookingTime: in.CookingTime,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := loadTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
			return translate(err)
		}
		if len(tags) > 0 {
			if err := tx.Model(recipe).Association("Tags").Append(tags); err != nil {
				return err
			}
		}
		return replaceIngredientAmounts(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipe.ID)
}

// UpdateRecipe overwrites a recipe owned by userID. Ingredient amounts are
// deleted and re-inserted rather than diffed.
func (s *Store) UpdateRecipe(ctx context.Context, userID, recipeID uint, in RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return translate(err)
		}
		if recipe.AuthorID != userID {
			return ErrForbidden
		}

		tags, err := loadTags(tx, in.TagIDs)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"name":         strings.TrimSpace(in.Name),
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if len(in.Image) > 0 {
			updates["image"] = in.Image
			updates["image_name"] = in.ImageName
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return translate(err)
		}
		if err := replaceTags(tx, &recipe, tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientAmount{}).Error; err != nil {
			return err
		}
		return replaceIngredientAmounts(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipeID)
}

// DeleteRecipe removes a recipe owned by userID along with its ingredient
// amounts, tag links, favorites and cart entries.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return translate(err)
		}
		if recipe.AuthorID != userID {
			return ErrForbidden
		}
		return deleteRecipeRows(tx, &recipe)
	})
}

func deleteRecipeRows(tx *gorm.DB, recipe *models.Recipe) error {
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
		return err
	}
	if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
		return err
	}
	return tx.Delete(recipe).Error
}

// GetRecipe loads a recipe with its author, tags and ingredient amounts.
func (s *Store) GetRecipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.DB.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Ingredients.Ingredient").
		First(&recipe, recipeID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

// ListRecipes returns recipes matching filter, newest first.
func (s *Store) ListRecipes(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error) {
	query := s.filterRecipes(s.DB.WithContext(ctx).
		Model(&models.Recipe{}).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Ingredients.Ingredient").
		Order("created_at desc, id desc"), filter)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountRecipes returns how many recipes match filter, ignoring Limit and Offset.
func (s *Store) CountRecipes(ctx context.Context, filter RecipeFilter) (int64, error) {
	var count int64
	err := s.filterRecipes(s.DB.WithContext(ctx).Model(&models.Recipe{}), filter).Count(&count).Error
	return count, err
}

func (s *Store) filterRecipes(query *gorm.DB, filter RecipeFilter) *gorm.DB {
	if len(filter.TagSlugs) > 0 {
		query = query.Where("recipes.id IN (?)", s.DB.
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.FavoritedBy != 0 {
		query = query.Where("recipes.id IN (?)", s.DB.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
	}
	if filter.InCartOf != 0 {
		query = query.Where("recipes.id IN (?)", s.DB.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", filter.InCartOf))
	}
	return query
}

func replaceTags(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag) error {
	if len(tags) == 0 {
		return tx.Model(recipe).Association("Tags").Clear()
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("%w: unknown tag", ErrInvalidRecipe)
	}
	return tags, nil
}

func replaceIngredientAmounts(tx *gorm.DB, recipeID uint, items []IngredientInput) error {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.IngredientID)
	}

	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%w: unknown ingredient", ErrInvalidRecipe)
	}

	rows := make([]models.IngredientAmount, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.IngredientAmount{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&rows).Error
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// RecipeImage returns the stored picture bytes and file name of a recipe.
func (s *Store) RecipeImage(ctx context.Context, recipeID uint) ([]byte, string, error) {
	var recipe models.Recipe
	if err := s.DB.WithContext(ctx).Select("id", "image", "image_name").First(&recipe, recipeID).Error; err != nil {
		return nil, "", translate(err)
	}
	return recipe.Image, recipe.ImageName, nil
}
