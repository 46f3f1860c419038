package importer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "foodgram/internal/log"
	"foodgram/models"
)

// ImageSource downloads recipe images.
type ImageSource interface {
	Fetch(ctx context.Context, rawURL string) (Image, error)
}

// Saver persists RecipeRecords authored by the import user.
type Saver struct {
	db     *gorm.DB
	images ImageSource
}

// NewSaver returns a Saver writing to db and downloading pictures from images.
func NewSaver(db *gorm.DB, images ImageSource) *Saver {
	return &Saver{db: db, images: images}
}

// ResolveImportUser returns the superuser with the lowest id.
func ResolveImportUser(ctx context.Context, db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("is_superuser = ?", true).Order("id asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoImportUser
	}
	if err != nil {
		return nil, fmt.Errorf("importer: resolve import user: %w", err)
	}
	return &user, nil
}

// Save stores every record in its own transaction and returns how many
// recipes were created. Records whose name already exists are skipped.
// Image download failures abort the batch.
func (s *Saver) Save(ctx context.Context, records []RecipeRecord) (int, error) {
	author, err := ResolveImportUser(ctx, s.db)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, record := range records {
		image, err := s.images.Fetch(ctx, record.ImageURL)
		if err != nil {
			return created, err
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return saveRecord(tx, author.ID, record, image)
		})
		if errors.Is(err, ErrDuplicateRecipe) {
			applog.Info(ctx, "skipping existing recipe", "recipe", record.Name)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("importer: save recipe %q: %w", record.Name, err)
		}

		created++
		applog.Debug(ctx, "imported recipe", "recipe", record.Name, "ingredients", len(record.Ingredients))
	}

	return created, nil
}

func saveRecord(tx *gorm.DB, authorID uint, record RecipeRecord, image Image) error {
	var existing int64
	if err := tx.Model(&models.Recipe{}).Where("name = ?", record.Name).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrDuplicateRecipe
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        record.Name,
		Text:        record.Text,
		Image:       image.Data,
		ImageName:   image.Filename,
		CookingTime: record.CookingTime,
	}
	if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRecipe
		}
		return err
	}

	if err := linkTag(tx, recipe, record.TagSlug); err != nil {
		return err
	}

	merged := mergeIngredients(record.Ingredients)
	if len(merged) == 0 {
		return nil
	}

	ids, err := resolveIngredients(tx, merged)
	if err != nil {
		return err
	}

	amounts := make([]models.IngredientAmount, 0, len(merged))
	for _, item := range merged {
		amounts = append(amounts, models.IngredientAmount{
			RecipeID:     recipe.ID,
			IngredientID: ids[models.IngredientKey{Name: item.Name, MeasurementUnit: item.MeasurementUnit}],
			Amount:       item.Amount,
		})
	}
	return tx.Create(&amounts).Error
}

func linkTag(tx *gorm.DB, recipe *models.Recipe, slug string) error {
	if slug == "" {
		return nil
	}
	var tag models.Tag
	err := tx.Where("slug = ?", slug).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(recipe).Association("Tags").Append(&tag)
}

// mergeIngredients sums entries sharing a name and unit, keeping first-seen order.
func mergeIngredients(items []IngredientRecord) []IngredientRecord {
	merged := make([]IngredientRecord, 0, len(items))
	index := make(map[models.IngredientKey]int, len(items))
	for _, item := range items {
		key := models.IngredientKey{Name: item.Name, MeasurementUnit: item.MeasurementUnit}
		if pos, ok := index[key]; ok {
			merged[pos].Amount += item.Amount
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// resolveIngredients maps every (name, unit) pair to an ingredient id,
// inserting the pairs that do not exist yet. Concurrent inserts of the same
// pair are absorbed by the unique index and resolved by the final lookup.
func resolveIngredients(tx *gorm.DB, items []IngredientRecord) (map[models.IngredientKey]uint, error) {
	pairs := make([][]any, 0, len(items))
	for _, item := range items {
		pairs = append(pairs, []any{item.Name, item.MeasurementUnit})
	}

	lookup := func() (map[models.IngredientKey]uint, error) {
		var found []models.Ingredient
		if err := tx.Where("(name, measurement_unit) IN ?", pairs).Find(&found).Error; err != nil {
			return nil, err
		}
		ids := make(map[models.IngredientKey]uint, len(found))
		for _, ingredient := range found {
			ids[ingredient.Key()] = ingredient.ID
		}
		return ids, nil
	}

	ids, err := lookup()
	if err != nil {
		return nil, err
	}

	var missing []models.Ingredient
	for _, item := range items {
		key := models.IngredientKey{Name: item.Name, MeasurementUnit: item.MeasurementUnit}
		if _, ok := ids[key]; !ok {
			missing = append(missing, models.Ingredient{Name: item.Name, MeasurementUnit: item.MeasurementUnit})
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
		DoNothing: true,
	}).Create(&missing).Error
	if err != nil {
		return nil, err
	}

	if ids, err = lookup(); err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, ok := ids[models.IngredientKey{Name: item.Name, MeasurementUnit: item.MeasurementUnit}]; !ok {
			return nil, fmt.Errorf("ingredient %q (%s) could not be resolved", item.Name, item.MeasurementUnit)
		}
	}
	return ids, nil
}
