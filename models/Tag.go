package models

import "regexp"

// DefaultTagColor is applied to tags created without an explicit color.
const DefaultTagColor = "#FF0000"

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Color string `gorm:"type:varchar(7);not null" json:"color"`
	Slug  string `gorm:"uniqueIndex;not null" json:"slug"`
}

// ValidColor reports whether value is a #RGB or #RRGGBB hex color.
func ValidColor(value string) bool {
	return hexColorPattern.MatchString(value)
}

// NormalizeColor falls back to DefaultTagColor for invalid values.
func NormalizeColor(value string) string {
	if ValidColor(value) {
		return value
	}
	return DefaultTagColor
}
