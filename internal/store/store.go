// Package store holds the create/read/update/delete operations on the recipe
// entities. Multi-row writes run inside a single transaction.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("store: record not found")
	ErrAlreadyExists = errors.New("store: record already exists")
	ErrSelfFollow    = errors.New("store: users cannot follow themselves")
	ErrInvalidRecipe = errors.New("store: invalid recipe")
	ErrForbidden     = errors.New("store: only the author can change a recipe")
)

// Store wraps the database handle shared by the entity operations.
type Store struct {
	DB *gorm.DB
}

// New returns a Store backed by db.
func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return err
	}
}
