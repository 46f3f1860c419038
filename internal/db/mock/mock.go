package mock

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/models"
)

// SuperuserEmail and SuperuserPassword identify the seeded import account.
const (
	SuperuserEmail    = "admin@foodgram.app"
	SuperuserPassword = "foodgram-admin"
)

var dsnUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Open returns an empty, migrated in-memory sqlite database private to name.
func Open(ctx context.Context, name string) (*gorm.DB, error) {
	applog.Debug(ctx, "opening in-memory database", "name", name)

	database, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnUnsafe.ReplaceAllString(name, "_")))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with representative recipe data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := Open(ctx, "foodgram-mock")
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(SuperuserPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        SuperuserEmail,
		Username:     "admin",
		FirstName:    "Foodgram",
		LastName:     "Admin",
		PasswordHash: string(password),
		IsSuperuser:  true,
	}
	if err := database.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	tags := []models.Tag{
		{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
	}
	if err := database.WithContext(ctx).Create(&tags).Error; err != nil {
		return err
	}

	ingredients := []models.Ingredient{
		{Name: "картофель", MeasurementUnit: "г"},
		{Name: "соль", MeasurementUnit: "г"},
		{Name: "молоко", MeasurementUnit: "мл"},
		{Name: "яйцо", MeasurementUnit: "шт"},
	}
	if err := database.WithContext(ctx).Create(&ingredients).Error; err != nil {
		return err
	}

	recipe := models.Recipe{
		AuthorID:    admin.ID,
		Name:        "Картофельное пюре",
		Text:        "Отварить картофель, размять с молоком и солью.",
		CookingTime: 30,
		Tags:        []models.Tag{tags[1]},
	}
	if err := database.WithContext(ctx).Create(&recipe).Error; err != nil {
		return err
	}

	amounts := []models.IngredientAmount{
		{RecipeID: recipe.ID, IngredientID: ingredients[0].ID, Amount: 500},
		{RecipeID: recipe.ID, IngredientID: ingredients[1].ID, Amount: 5},
		{RecipeID: recipe.ID, IngredientID: ingredients[2].ID, Amount: 150},
	}
	if err := database.WithContext(ctx).Create(&amounts).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
