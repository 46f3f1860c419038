package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/internal/shopping"
	"foodgram/internal/store"
	"foodgram/models"
)

type (
	linkFunc   func(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	unlinkFunc func(ctx context.Context, userID, recipeID uint) error
)

// AddFavorite marks the recipe in the path as a favorite of the signed-in user.
func AddFavorite(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	addRelation(w, r, entities.AddFavorite, "recipe is already in favorites")
}

// RemoveFavorite drops the recipe in the path from the user's favorites.
func RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	removeRelation(w, r, entities.RemoveFavorite, "recipe is not in favorites")
}

// AddToCart puts the recipe in the path into the user's shopping cart.
func AddToCart(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	addRelation(w, r, entities.AddToCart, "recipe is already in the shopping cart")
}

// RemoveFromCart takes the recipe in the path out of the user's shopping cart.
func RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	removeRelation(w, r, entities.RemoveFromCart, "recipe is not in the shopping cart")
}

func addRelation(w http.ResponseWriter, r *http.Request, link linkFunc, duplicate string) {
	recipeID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	recipe, err := link(r.Context(), userID, recipeID)
	if errors.Is(err, store.ErrAlreadyExists) {
		writeJSONError(w, http.StatusBadRequest, duplicate)
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "update recipe list")
		return
	}
	writeJSON(w, http.StatusCreated, projectShortRecipe(recipe))
}

func removeRelation(w http.ResponseWriter, r *http.Request, unlink unlinkFunc, missing string) {
	recipeID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	if _, err := entities.GetRecipe(r.Context(), recipeID); err != nil {
		writeStoreError(w, r, err, "update recipe list")
		return
	}

	err := unlink(r.Context(), userID, recipeID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusBadRequest, missing)
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "update recipe list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart renders the aggregated ingredients of the user's cart as a PDF.
func DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	userID, _ := currentUserID(r)

	items, err := shopping.Aggregate(r.Context(), database, userID)
	if err != nil {
		writeStoreError(w, r, err, "build shopping list")
		return
	}

	document, err := shopping.Render(items)
	if err != nil {
		applog.Error(r.Context(), "failed to render shopping list", "userID", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to build shopping list")
		return
	}

	metrics.ShoppingListDownloads.Inc()
	applog.Debug(r.Context(), "shopping list rendered", "userID", userID, "items", len(items), "bytes", len(document))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=shopping_list.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(document)))
	w.WriteHeader(http.StatusOK)
	w.Write(document)
}
