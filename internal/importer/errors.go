package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoImportUser means there is no superuser to author imported recipes.
	ErrNoImportUser = errors.New("importer: no superuser available to own imported recipes")
	// ErrDuplicateRecipe marks a record whose name already exists. The saver
	// skips such records instead of failing the batch.
	ErrDuplicateRecipe = errors.New("importer: recipe already exists")
	// ErrEmptyImport is returned when a batch created no recipes.
	ErrEmptyImport = errors.New("importer: no recipes were created")
)

// FetchError describes a failed call to the recipe API or an image host.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("importer: fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("importer: fetch %s: status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("importer: fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ImageFetchError is a FetchError raised while downloading a recipe image.
type ImageFetchError struct {
	FetchError
}

func (e *ImageFetchError) Error() string {
	return "image " + e.FetchError.Error()
}

// Unwrap exposes the embedded FetchError so errors.As matches both types.
func (e *ImageFetchError) Unwrap() error { return &e.FetchError }

// TranslationError wraps a failed translation of Text.
type TranslationError struct {
	Text string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("importer: translate %q: %v", e.Text, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }
