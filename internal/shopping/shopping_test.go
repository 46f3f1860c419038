package shopping

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"foodgram/internal/db/mock"
	"foodgram/models"
)

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

func mustCreate(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

type cartFixture struct {
	buyer  models.User
	other  models.User
	first  models.Recipe
	second models.Recipe
}

func seedCart(t *testing.T, db *gorm.DB) cartFixture {
	t.Helper()

	f := cartFixture{
		buyer: models.User{Email: "buyer@example.com", Username: "buyer", PasswordHash: "x"},
		other: models.User{Email: "other@example.com", Username: "other", PasswordHash: "x"},
	}
	mustCreate(t, db, &f.buyer)
	mustCreate(t, db, &f.other)

	potato := models.Ingredient{Name: "Potato", MeasurementUnit: "g"}
	salt := models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	pepper := models.Ingredient{Name: "Pepper", MeasurementUnit: "g"}
	mustCreate(t, db, &potato)
	mustCreate(t, db, &salt)
	mustCreate(t, db, &pepper)

	f.first = models.Recipe{AuthorID: f.other.ID, Name: "Mash", Text: "mash", CookingTime: 20}
	f.second = models.Recipe{AuthorID: f.other.ID, Name: "Roast", Text: "roast", CookingTime: 40}
	mustCreate(t, db, &f.first)
	mustCreate(t, db, &f.second)

	mustCreate(t, db, &[]models.IngredientAmount{
		{RecipeID: f.first.ID, IngredientID: potato.ID, Amount: 200},
		{RecipeID: f.first.ID, IngredientID: salt.ID, Amount: 5},
		{RecipeID: f.second.ID, IngredientID: potato.ID, Amount: 300},
		{RecipeID: f.second.ID, IngredientID: pepper.ID, Amount: 2},
	})
	return f
}

func TestAggregateSumsMatchingIngredients(t *testing.T) {
	db := openDatabase(t)
	f := seedCart(t, db)

	mustCreate(t, db, &models.ShoppingCart{UserID: f.buyer.ID, RecipeID: f.first.ID})
	mustCreate(t, db, &models.ShoppingCart{UserID: f.buyer.ID, RecipeID: f.second.ID})
	mustCreate(t, db, &models.ShoppingCart{UserID: f.other.ID, RecipeID: f.second.ID})

	items, err := Aggregate(context.Background(), db, f.buyer.ID)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := []Item{
		{Name: "Potato", Amount: 500, MeasurementUnit: "g"},
		{Name: "Salt", Amount: 5, MeasurementUnit: "g"},
		{Name: "Pepper", Amount: 2, MeasurementUnit: "g"},
	}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("Aggregate() = %+v, want %+v", items, want)
	}
}

func TestAggregateFollowsCartOrder(t *testing.T) {
	db := openDatabase(t)
	f := seedCart(t, db)

	mustCreate(t, db, &models.ShoppingCart{UserID: f.buyer.ID, RecipeID: f.second.ID})
	mustCreate(t, db, &models.ShoppingCart{UserID: f.buyer.ID, RecipeID: f.first.ID})

	items, err := Aggregate(context.Background(), db, f.buyer.ID)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	want := []string{"Potato", "Pepper", "Salt"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("item order = %v, want %v", names, want)
	}
}

func TestAggregateOrdersByFirstCartEntryContainingIngredient(t *testing.T) {
	db := openDatabase(t)

	author := models.User{Email: "author@example.com", Username: "author", PasswordHash: "x"}
	buyer := models.User{Email: "buyer@example.com", Username: "buyer", PasswordHash: "x"}
	mustCreate(t, db, &author)
	mustCreate(t, db, &buyer)

	potato := models.Ingredient{Name: "Potato", MeasurementUnit: "g"}
	salt := models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	mustCreate(t, db, &potato)
	mustCreate(t, db, &salt)

	older := models.Recipe{AuthorID: author.ID, Name: "Boiled potato", Text: "boil", CookingTime: 25}
	newer := models.Recipe{AuthorID: author.ID, Name: "Salted potato", Text: "salt", CookingTime: 30}
	mustCreate(t, db, &older)
	mustCreate(t, db, &newer)

	mustCreate(t, db, &models.IngredientAmount{RecipeID: older.ID, IngredientID: potato.ID, Amount: 400})
	mustCreate(t, db, &[]models.IngredientAmount{
		{RecipeID: newer.ID, IngredientID: salt.ID, Amount: 5},
		{RecipeID: newer.ID, IngredientID: potato.ID, Amount: 100},
	})

	mustCreate(t, db, &models.ShoppingCart{UserID: buyer.ID, RecipeID: newer.ID})
	mustCreate(t, db, &models.ShoppingCart{UserID: buyer.ID, RecipeID: older.ID})

	items, err := Aggregate(context.Background(), db, buyer.ID)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := []Item{
		{Name: "Salt", Amount: 5, MeasurementUnit: "g"},
		{Name: "Potato", Amount: 500, MeasurementUnit: "g"},
	}
	if !reflect.DeepEqual(items, want) {
		t.Fatalf("Aggregate() = %+v, want %+v", items, want)
	}
}

func TestAggregateEmptyCart(t *testing.T) {
	db := openDatabase(t)
	f := seedCart(t, db)

	items, err := Aggregate(context.Background(), db, f.buyer.ID)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestAggregateRequiresDatabase(t *testing.T) {
	if _, err := Aggregate(context.Background(), nil, 1); err != gorm.ErrInvalidDB {
		t.Fatalf("expected gorm.ErrInvalidDB, got %v", err)
	}
}

func TestLines(t *testing.T) {
	t.Parallel()

	lines := Lines([]Item{
		{Name: "картофель", Amount: 500, MeasurementUnit: "г"},
		{Name: "яйцо", Amount: 3, MeasurementUnit: "шт"},
	})
	want := []string{"1. картофель - 500 г", "2. яйцо - 3 шт"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Lines() = %q, want %q", lines, want)
	}
	if got := Lines(nil); len(got) != 0 {
		t.Fatalf("expected no lines for empty list, got %q", got)
	}
}

func TestRenderProducesReadablePDF(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		items int
		pages int
	}{
		{"empty list", 0, 1},
		{"single page", 3, 1},
		{"overflow", 30, 2},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]Item, 0, tt.items)
			for i := 0; i < tt.items; i++ {
				items = append(items, Item{Name: fmt.Sprintf("ингредиент %d", i+1), Amount: i + 1, MeasurementUnit: "г"})
			}

			data, err := Render(items)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Fatalf("output is not a PDF document")
			}

			reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("read rendered PDF: %v", err)
			}
			if got := reader.NumPage(); got != tt.pages {
				t.Fatalf("NumPage() = %d, want %d", got, tt.pages)
			}
		})
	}
}
