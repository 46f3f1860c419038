package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"foodgram/internal/db/mock"
	"foodgram/models"
)

type stubImages struct {
	err   error
	calls []string
}

func (s *stubImages) Fetch(_ context.Context, rawURL string) (Image, error) {
	s.calls = append(s.calls, rawURL)
	if s.err != nil {
		return Image{}, s.err
	}
	if rawURL == "" {
		return Image{}, nil
	}
	return Image{Data: []byte("jpeg"), Filename: "picture.jpg"}, nil
}

func openDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := mock.Open(context.Background(), t.Name())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedImportUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	regular := models.User{Email: "cook@example.com", Username: "cook", PasswordHash: "x"}
	admin := models.User{Email: "admin@example.com", Username: "admin", PasswordHash: "x", IsSuperuser: true}
	for _, user := range []*models.User{&regular, &admin} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	return admin
}

func TestSaveCreatesRecipesAndSkipsDuplicates(t *testing.T) {
	db := openDatabase(t)
	admin := seedImportUser(t, db)
	ctx := context.Background()

	lunch := models.Tag{Name: "Обед", Color: "#49B64E", Slug: "lunch"}
	if err := db.Create(&lunch).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	existingSalt := models.Ingredient{Name: "соль", MeasurementUnit: "г"}
	if err := db.Create(&existingSalt).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	if err := db.Create(&models.Recipe{AuthorID: admin.ID, Name: "Суп", Text: "старый", CookingTime: 10}).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	records := []RecipeRecord{
		{
			Name: "Пюре", Text: "Мять", ImageURL: "https://img.example.com/a.jpg", CookingTime: 30, TagSlug: "lunch",
			Ingredients: []IngredientRecord{
				{Name: "картофель", Amount: 500, MeasurementUnit: "г"},
				{Name: "соль", Amount: 5, MeasurementUnit: "г"},
				{Name: "картофель", Amount: 100, MeasurementUnit: "г"},
			},
		},
		{Name: "Суп", Text: "новый", CookingTime: 15, TagSlug: "lunch"},
		{
			Name: "Омлет", Text: "Взбить", CookingTime: 10, TagSlug: "unknown",
			Ingredients: []IngredientRecord{
				{Name: "яйцо", Amount: 3, MeasurementUnit: "шт"},
				{Name: "соль", Amount: 1, MeasurementUnit: "г"},
			},
		},
	}

	images := &stubImages{}
	created, err := NewSaver(db, images).Save(ctx, records)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	var ingredients []models.Ingredient
	if err := db.Order("id asc").Find(&ingredients).Error; err != nil {
		t.Fatalf("load ingredients: %v", err)
	}
	if len(ingredients) != 3 {
		t.Fatalf("expected 3 distinct ingredients, got %+v", ingredients)
	}

	var puree models.Recipe
	if err := db.Preload("Tags").Preload("Ingredients.Ingredient").Where("name = ?", "Пюре").First(&puree).Error; err != nil {
		t.Fatalf("load imported recipe: %v", err)
	}
	if puree.AuthorID != admin.ID {
		t.Fatalf("author = %d, want superuser %d", puree.AuthorID, admin.ID)
	}
	if puree.ImageName != "picture.jpg" || string(puree.Image) != "jpeg" {
		t.Fatalf("unexpected image %q (%d bytes)", puree.ImageName, len(puree.Image))
	}
	if len(puree.Tags) != 1 || puree.Tags[0].ID != lunch.ID {
		t.Fatalf("unexpected tags: %+v", puree.Tags)
	}
	amounts := map[string]int{}
	for _, amount := range puree.Ingredients {
		amounts[amount.Ingredient.Name] = amount.Amount
		if amount.Ingredient.Name == "соль" && amount.IngredientID != existingSalt.ID {
			t.Fatalf("expected existing salt to be reused, got ingredient %d", amount.IngredientID)
		}
	}
	if amounts["картофель"] != 600 || amounts["соль"] != 5 || len(amounts) != 2 {
		t.Fatalf("unexpected amounts: %v", amounts)
	}

	var soup models.Recipe
	if err := db.Where("name = ?", "Суп").First(&soup).Error; err != nil {
		t.Fatalf("load existing recipe: %v", err)
	}
	if soup.Text != "старый" {
		t.Fatalf("existing recipe was overwritten: %q", soup.Text)
	}

	var omelette models.Recipe
	if err := db.Preload("Tags").Where("name = ?", "Омлет").First(&omelette).Error; err != nil {
		t.Fatalf("load omelette: %v", err)
	}
	if len(omelette.Tags) != 0 {
		t.Fatalf("unknown tag slug should not link a tag, got %+v", omelette.Tags)
	}
}

func TestSaveRequiresImportUser(t *testing.T) {
	db := openDatabase(t)
	images := &stubImages{}

	_, err := NewSaver(db, images).Save(context.Background(), []RecipeRecord{{Name: "Пюре", Text: "x", CookingTime: 1}})
	if !errors.Is(err, ErrNoImportUser) {
		t.Fatalf("expected ErrNoImportUser, got %v", err)
	}
	if len(images.calls) != 0 {
		t.Fatalf("expected no image downloads, got %v", images.calls)
	}
}

func TestSaveStopsOnImageFailure(t *testing.T) {
	db := openDatabase(t)
	seedImportUser(t, db)

	imageErr := &ImageFetchError{FetchError{URL: "https://img.example.com/a.jpg", Status: http.StatusNotFound}}
	_, err := NewSaver(db, &stubImages{err: imageErr}).Save(context.Background(), []RecipeRecord{
		{Name: "Пюре", Text: "x", ImageURL: "https://img.example.com/a.jpg", CookingTime: 1},
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusNotFound {
		t.Fatalf("expected image failure to surface as *FetchError, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Recipe{}).Count(&count).Error; err != nil {
		t.Fatalf("count recipes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no recipes to be saved, got %d", count)
	}
}

func TestMergeIngredients(t *testing.T) {
	t.Parallel()

	merged := mergeIngredients([]IngredientRecord{
		{Name: "соль", Amount: 1, MeasurementUnit: "г"},
		{Name: "соль", Amount: 2, MeasurementUnit: "ч. л."},
		{Name: "соль", Amount: 4, MeasurementUnit: "г"},
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged entries, got %+v", merged)
	}
	if merged[0].Amount != 5 || merged[1].MeasurementUnit != "ч. л." {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

func TestResolveIngredientsAbsorbsConcurrentInsert(t *testing.T) {
	db := openDatabase(t)

	potato := models.Ingredient{Name: "картофель", MeasurementUnit: "г"}
	if err := db.Create(&potato).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}

	// Another writer inserts one of the missing pairs after the first lookup
	// and before the batch insert runs.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("test:concurrent_ingredient", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "ingredients" {
			return
		}
		raced = true
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)", "соль", "г").Error; err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	ids, err := resolveIngredients(db.WithContext(context.Background()), []IngredientRecord{
		{Name: "картофель", Amount: 300, MeasurementUnit: "г"},
		{Name: "соль", Amount: 5, MeasurementUnit: "г"},
		{Name: "перец", Amount: 2, MeasurementUnit: "г"},
	})
	if err != nil {
		t.Fatalf("resolveIngredients() error = %v", err)
	}
	if !raced {
		t.Fatal("expected the concurrent insert to run before the batch insert")
	}

	var stored []models.Ingredient
	if err := db.Order("id").Find(&stored).Error; err != nil {
		t.Fatalf("load ingredients: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 ingredients without duplicates, got %+v", stored)
	}
	for _, ingredient := range stored {
		if got := ids[ingredient.Key()]; got != ingredient.ID {
			t.Fatalf("id for %q = %d, want %d", ingredient.Name, got, ingredient.ID)
		}
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 resolved ids, got %v", ids)
	}
}

func TestImageFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	fetcher := NewImageFetcher(server.Client(), 0)

	image, err := fetcher.Fetch(context.Background(), server.URL+"/recipes/123-556x370.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if image.Filename != "123-556x370.jpg" || string(image.Data) != "image-bytes" {
		t.Fatalf("unexpected image: %q %q", image.Filename, image.Data)
	}

	empty, err := fetcher.Fetch(context.Background(), "")
	if err != nil || empty.Data != nil {
		t.Fatalf("expected empty image for blank url, got %+v, %v", empty, err)
	}

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.jpg")
	var imageErr *ImageFetchError
	if !errors.As(err, &imageErr) {
		t.Fatalf("expected *ImageFetchError, got %v", err)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusNotFound {
		t.Fatalf("expected wrapped *FetchError with 404, got %v", err)
	}
}
