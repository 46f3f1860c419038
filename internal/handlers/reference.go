package handlers

import (
	"net/http"

	"foodgram/models"
)

const ingredientSearchLimit = 50

// ListTags returns every tag.
func ListTags(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	tags, err := entities.ListTags(r.Context())
	if err != nil {
		writeStoreError(w, r, err, "list tags")
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// SearchIngredients returns ingredients whose name starts with the name query parameter.
func SearchIngredients(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	ingredients, err := entities.SearchIngredients(r.Context(), r.URL.Query().Get("name"), ingredientSearchLimit)
	if err != nil {
		writeStoreError(w, r, err, "search ingredients")
		return
	}
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	writeJSON(w, http.StatusOK, ingredients)
}
