package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	applog "foodgram/internal/log"
	"foodgram/internal/store"
	"foodgram/models"
)

type subscriptionResponse struct {
	userResponse
	Recipes      []shortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type userListResponse struct {
	Count   int64          `json:"count"`
	Results []userResponse `json:"results"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// ListUsers returns a page of registered users.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}

	query := r.URL.Query()
	limit := defaultPageSize
	if value, err := strconv.Atoi(query.Get("limit")); err == nil && value > 0 {
		limit = value
	}
	offset := 0
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 {
		offset = (page - 1) * limit
	}

	count, err := entities.CountUsers(r.Context())
	if err != nil {
		writeStoreError(w, r, err, "list users")
		return
	}
	users, err := entities.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, r, err, "list users")
		return
	}

	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	following, err := entities.FollowingAmong(r.Context(), viewerID(r), ids)
	if err != nil {
		writeStoreError(w, r, err, "list users")
		return
	}

	results := make([]userResponse, 0, len(users))
	for i := range users {
		results = append(results, projectUser(&users[i], following[users[i].ID]))
	}
	writeJSON(w, http.StatusOK, userListResponse{Count: count, Results: results})
}

// GetUser returns the profile of the user in the path.
func GetUser(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	user, err := entities.GetUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "load user")
		return
	}
	subscribed, err := entities.IsFollowing(r.Context(), viewerID(r), user.ID)
	if err != nil {
		writeStoreError(w, r, err, "load user")
		return
	}
	writeJSON(w, http.StatusOK, projectUser(user, subscribed))
}

// SetPassword replaces the password of the signed-in user after checking the current one.
func SetPassword(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}

	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeJSONError(w, http.StatusBadRequest, "password must be at least 8 characters long")
		return
	}
	userID, _ := currentUserID(r)

	user, err := entities.GetUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "change password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSONError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeStoreError(w, r, err, "change password")
		return
	}
	if err := entities.SetPasswordHash(r.Context(), userID, string(hashed)); err != nil {
		writeStoreError(w, r, err, "change password")
		return
	}

	applog.Debug(r.Context(), "password changed", "userID", userID)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the profile of the signed-in user.
func Me(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	userID, _ := currentUserID(r)

	user, err := entities.GetUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "load profile")
		return
	}
	writeJSON(w, http.StatusOK, projectUser(user, false))
}

// Subscriptions lists the authors the signed-in user follows with a preview of their recipes.
func Subscriptions(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	userID, _ := currentUserID(r)

	authors, err := entities.ListFollowing(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err, "list subscriptions")
		return
	}

	results := make([]subscriptionResponse, 0, len(authors))
	for i := range authors {
		entry, err := projectSubscription(r, &authors[i])
		if err != nil {
			writeStoreError(w, r, err, "list subscriptions")
			return
		}
		results = append(results, entry)
	}
	writeJSON(w, http.StatusOK, results)
}

// Subscribe makes the signed-in user follow the author in the path.
func Subscribe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	authorID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	author, err := entities.Follow(r.Context(), userID, authorID)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		writeJSONError(w, http.StatusBadRequest, "already subscribed to this author")
		return
	case errors.Is(err, store.ErrSelfFollow):
		writeJSONError(w, http.StatusBadRequest, "cannot subscribe to yourself")
		return
	case err != nil:
		writeStoreError(w, r, err, "subscribe")
		return
	}

	entry, err := projectSubscription(r, author)
	if err != nil {
		writeStoreError(w, r, err, "subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Unsubscribe stops following the author in the path.
func Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	authorID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	if _, err := entities.GetUser(r.Context(), authorID); err != nil {
		writeStoreError(w, r, err, "unsubscribe")
		return
	}

	err := entities.Unfollow(r.Context(), userID, authorID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusBadRequest, "not subscribed to this author")
		return
	}
	if err != nil {
		writeStoreError(w, r, err, "unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectSubscription(r *http.Request, author *models.User) (subscriptionResponse, error) {
	filter := store.RecipeFilter{AuthorID: author.ID}
	if limit, err := strconv.Atoi(r.URL.Query().Get("recipes_limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	count, err := entities.CountRecipes(r.Context(), filter)
	if err != nil {
		return subscriptionResponse{}, err
	}
	recipes, err := entities.ListRecipes(r.Context(), filter)
	if err != nil {
		return subscriptionResponse{}, err
	}

	entry := subscriptionResponse{
		userResponse: projectUser(author, true),
		Recipes:      make([]shortRecipeResponse, 0, len(recipes)),
		RecipesCount: count,
	}
	for i := range recipes {
		entry.Recipes = append(entry.Recipes, projectShortRecipe(&recipes[i]))
	}
	return entry, nil
}
