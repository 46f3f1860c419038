package models

// Ingredient is reference data shared by every recipe. The (name, unit) pair
// is globally unique and rows are never mutated after creation.
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

// IngredientKey identifies an ingredient by its natural key.
type IngredientKey struct {
	Name            string
	MeasurementUnit string
}

// Key returns the natural key of the ingredient.
func (i Ingredient) Key() IngredientKey {
	return IngredientKey{Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}
