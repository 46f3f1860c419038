package models

import "time"

type Recipe struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      *User              `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Name        string             `gorm:"uniqueIndex;not null" json:"name"`
	Image       []byte             `json:"-"`
	ImageName   string             `json:"image_name"`
	Text        string             `gorm:"type:text;not null" json:"text"`
	CookingTime int                `gorm:"not null" json:"cooking_time"`
	Tags        []Tag              `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []IngredientAmount `gorm:"foreignKey:RecipeID" json:"ingredients"`
	CreatedAt   time.Time          `gorm:"index" json:"pub_date"`
}
