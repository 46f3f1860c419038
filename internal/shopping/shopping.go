// Package shopping aggregates the ingredients of the recipes in a user's
// cart and renders them as a printable shopping list.
package shopping

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	applog "foodgram/internal/log"
)

// Item is one line of a shopping list: the total amount of an ingredient
// across every recipe in the cart.
type Item struct {
	Name            string
	Amount          int
	MeasurementUnit string
}

// Aggregate sums ingredient amounts across the recipes in the cart of userID.
// Rows sharing a name and unit collapse into one item. Items are ordered by
// first appearance: cart insertion order, then ingredient row order inside a
// recipe. An empty cart yields an empty slice.
func Aggregate(ctx context.Context, db *gorm.DB, userID uint) ([]Item, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var rows []struct {
		Name            string
		Amount          int
		MeasurementUnit string
	}
	err := db.WithContext(ctx).
		Table("ingredient_amounts").
		Select("ingredients.name AS name, ingredient_amounts.amount AS amount, ingredients.measurement_unit AS measurement_unit").
		Joins("JOIN ingredients ON ingredients.id = ingredient_amounts.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = ingredient_amounts.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Order("shopping_carts.id, ingredient_amounts.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping cart: %w", err)
	}

	type key struct{ name, unit string }
	positions := make(map[key]int, len(rows))
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		k := key{row.Name, row.MeasurementUnit}
		if i, ok := positions[k]; ok {
			items[i].Amount += row.Amount
			continue
		}
		positions[k] = len(items)
		items = append(items, Item{Name: row.Name, Amount: row.Amount, MeasurementUnit: row.MeasurementUnit})
	}

	applog.Debug(ctx, "aggregated shopping cart", "userID", userID, "items", len(items))
	return items, nil
}
