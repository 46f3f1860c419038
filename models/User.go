package models

import "gorm.io/gorm"

// User represents an application account that can authenticate with the platform.
// Email is the login identifier.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Username     string `gorm:"not null" json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsSuperuser  bool   `gorm:"not null;default:false" json:"-"`
}
