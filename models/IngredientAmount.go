package models

// IngredientAmount is the quantity of one ingredient required by one recipe.
// Rows belong to their recipe and are replaced wholesale when it changes.
type IngredientAmount struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_ingredient_amount_recipe" json:"recipe_id"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_ingredient_amount_recipe" json:"ingredient_id"`
	Amount       int         `gorm:"not null" json:"amount"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
