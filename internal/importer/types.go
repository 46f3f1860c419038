// Package importer crawls the external recipe API, translates the payload and
// saves new recipes with deduplicated ingredients.
package importer

// RawRecipe is one entry of the recipe API "recipes" array.
type RawRecipe struct {
	Title               string          `json:"title"`
	Name                string          `json:"name"`
	Summary             string          `json:"summary"`
	Image               string          `json:"image"`
	ReadyInMinutes      int             `json:"readyInMinutes"`
	ExtendedIngredients []RawIngredient `json:"extendedIngredients"`
}

// RawIngredient is an ingredient as reported by the recipe API.
type RawIngredient struct {
	Name     string `json:"name"`
	Measures struct {
		US RawMeasure `json:"us"`
	} `json:"measures"`
}

// RawMeasure holds an amount in US units.
type RawMeasure struct {
	Amount   float64 `json:"amount"`
	UnitLong string  `json:"unitLong"`
}

// RecipeRecord is a translated, normalized recipe ready to be saved.
type RecipeRecord struct {
	Name        string
	Text        string
	ImageURL    string
	CookingTime int
	TagSlug     string
	Ingredients []IngredientRecord
}

// IngredientRecord is one normalized ingredient line of a RecipeRecord.
type IngredientRecord struct {
	Name            string
	Amount          int
	MeasurementUnit string
}
