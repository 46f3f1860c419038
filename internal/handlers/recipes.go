package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "foodgram/internal/log"
	"foodgram/internal/store"
	"foodgram/models"
)

const defaultPageSize = 6

type userResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type recipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           *userResponse              `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	PubDate          time.Time                  `json:"pub_date"`
}

type shortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type recipeListResponse struct {
	Count   int64            `json:"count"`
	Results []recipeResponse `json:"results"`
}

type recipeRequest struct {
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time"`
	Tags        []uint                    `json:"tags"`
	Ingredients []recipeIngredientRequest `json:"ingredients"`
}

type recipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

type viewerFlags struct {
	favorites map[uint]bool
	cart      map[uint]bool
	following map[uint]bool
}

// ListRecipes returns a page of recipes filtered by tag, author, favorites or cart.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}

	viewer := viewerID(r)
	filter, ok := parseRecipeFilter(r, viewer)
	if !ok {
		writeJSON(w, http.StatusOK, recipeListResponse{Results: []recipeResponse{}})
		return
	}

	count, err := entities.CountRecipes(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "list recipes")
		return
	}
	recipes, err := entities.ListRecipes(r.Context(), filter)
	if err != nil {
		writeStoreError(w, r, err, "list recipes")
		return
	}

	flags, err := loadViewerFlags(r, viewer, recipes)
	if err != nil {
		writeStoreError(w, r, err, "list recipes")
		return
	}

	results := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		results = append(results, projectRecipe(&recipes[i], flags))
	}
	writeJSON(w, http.StatusOK, recipeListResponse{Count: count, Results: results})
}

// parseRecipeFilter reads the listing query. It reports false when the
// viewer asked for personal collections without being signed in.
func parseRecipeFilter(r *http.Request, viewer uint) (store.RecipeFilter, bool) {
	query := r.URL.Query()
	filter := store.RecipeFilter{TagSlugs: query["tags"], Limit: defaultPageSize}

	if author, err := strconv.ParseUint(query.Get("author"), 10, 64); err == nil {
		filter.AuthorID = uint(author)
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}
	if query.Get("is_favorited") == "1" {
		if viewer == 0 {
			return filter, false
		}
		filter.FavoritedBy = viewer
	}
	if query.Get("is_in_shopping_cart") == "1" {
		if viewer == 0 {
			return filter, false
		}
		filter.InCartOf = viewer
	}
	return filter, true
}

// CreateRecipe stores a recipe authored by the signed-in user.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	userID, _ := currentUserID(r)

	input, err := readRecipeRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := entities.CreateRecipe(r.Context(), userID, input)
	if err != nil {
		writeStoreError(w, r, err, "create recipe")
		return
	}

	applog.Debug(r.Context(), "recipe created", "recipeID", recipe.ID, "userID", userID)
	respondWithRecipe(w, r, http.StatusCreated, recipe, userID)
}

// GetRecipe returns one recipe with viewer-specific flags.
func GetRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	recipeID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	recipe, err := entities.GetRecipe(r.Context(), recipeID)
	if err != nil {
		writeStoreError(w, r, err, "load recipe")
		return
	}
	respondWithRecipe(w, r, http.StatusOK, recipe, viewerID(r))
}

// UpdateRecipe replaces a recipe owned by the signed-in user.
func UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	recipeID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	input, err := readRecipeRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe, err := entities.UpdateRecipe(r.Context(), userID, recipeID, input)
	if err != nil {
		writeStoreError(w, r, err, "update recipe")
		return
	}
	respondWithRecipe(w, r, http.StatusOK, recipe, userID)
}

// DeleteRecipe removes a recipe owned by the signed-in user.
func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	recipeID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	userID, _ := currentUserID(r)

	if err := entities.DeleteRecipe(r.Context(), userID, recipeID); err != nil {
		writeStoreError(w, r, err, "delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecipeImage streams the stored picture of a recipe.
func RecipeImage(w http.ResponseWriter, r *http.Request) {
	if !requireStore(w, r) {
		return
	}
	recipeID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, name, err := entities.RecipeImage(r.Context(), recipeID)
	if err != nil {
		writeStoreError(w, r, err, "load image")
		return
	}
	if len(data) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func readRecipeRequest(r *http.Request) (store.RecipeInput, error) {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		return store.RecipeInput{}, fmt.Errorf("invalid request body")
	}

	input := store.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	for _, ingredient := range req.Ingredients {
		input.Ingredients = append(input.Ingredients, store.IngredientInput{IngredientID: ingredient.ID, Amount: ingredient.Amount})
	}

	if strings.TrimSpace(req.Image) != "" {
		data, name, err := decodeImage(req.Image)
		if err != nil {
			return store.RecipeInput{}, err
		}
		input.Image = data
		input.ImageName = name
	}
	return input, nil
}

// decodeImage accepts a base64 data URI such as "data:image/png;base64,...".
func decodeImage(value string) ([]byte, string, error) {
	header, payload, found := strings.Cut(value, ",")
	if !found || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("image must be a base64 encoded data URI")
	}
	ext := strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64")
	if ext == "jpeg" {
		ext = "jpg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", fmt.Errorf("image is not valid base64")
	}
	return data, uuid.NewString() + "." + ext, nil
}

func respondWithRecipe(w http.ResponseWriter, r *http.Request, status int, recipe *models.Recipe, viewer uint) {
	flags, err := loadViewerFlags(r, viewer, []models.Recipe{*recipe})
	if err != nil {
		writeStoreError(w, r, err, "load recipe")
		return
	}
	writeJSON(w, status, projectRecipe(recipe, flags))
}

func loadViewerFlags(r *http.Request, viewer uint, recipes []models.Recipe) (viewerFlags, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	var flags viewerFlags
	var err error
	if flags.favorites, err = entities.FavoritedAmong(r.Context(), viewer, recipeIDs); err != nil {
		return viewerFlags{}, err
	}
	if flags.cart, err = entities.InCartAmong(r.Context(), viewer, recipeIDs); err != nil {
		return viewerFlags{}, err
	}
	if flags.following, err = entities.FollowingAmong(r.Context(), viewer, authorIDs); err != nil {
		return viewerFlags{}, err
	}
	return flags, nil
}

func projectUser(user *models.User, subscribed bool) userResponse {
	return userResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func projectRecipe(recipe *models.Recipe, flags viewerFlags) recipeResponse {
	resp := recipeResponse{
		ID:               recipe.ID,
		Tags:             recipe.Tags,
		Ingredients:      make([]recipeIngredientResponse, 0, len(recipe.Ingredients)),
		IsFavorited:      flags.favorites[recipe.ID],
		IsInShoppingCart: flags.cart[recipe.ID],
		Name:             recipe.Name,
		Image:            imageURL(recipe),
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		PubDate:          recipe.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []models.Tag{}
	}
	if recipe.Author != nil {
		author := projectUser(recipe.Author, flags.following[recipe.AuthorID])
		resp.Author = &author
	}
	for _, amount := range recipe.Ingredients {
		item := recipeIngredientResponse{ID: amount.IngredientID, Amount: amount.Amount}
		if amount.Ingredient != nil {
			item.Name = amount.Ingredient.Name
			item.MeasurementUnit = amount.Ingredient.MeasurementUnit
		}
		resp.Ingredients = append(resp.Ingredients, item)
	}
	return resp
}

func projectShortRecipe(recipe *models.Recipe) shortRecipeResponse {
	return shortRecipeResponse{ID: recipe.ID, Name: recipe.Name, Image: imageURL(recipe), CookingTime: recipe.CookingTime}
}

func imageURL(recipe *models.Recipe) string {
	if recipe.ImageName == "" {
		return ""
	}
	return fmt.Sprintf("/api/recipes/%d/image", recipe.ID)
}
