package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
)

type route struct {
	pattern   string
	handler   http.HandlerFunc
	protected bool
}

var routes = []route{
	{pattern: "POST /api/auth/signup", handler: handlers.Signup},
	{pattern: "POST /api/auth/login", handler: handlers.Login},
	{pattern: "POST /api/auth/logout", handler: handlers.Logout, protected: true},

	{pattern: "GET /api/tags", handler: handlers.ListTags},
	{pattern: "GET /api/ingredients", handler: handlers.SearchIngredients},

	{pattern: "GET /api/recipes", handler: handlers.ListRecipes},
	{pattern: "POST /api/recipes", handler: handlers.CreateRecipe, protected: true},
	{pattern: "GET /api/recipes/download_shopping_cart", handler: handlers.DownloadShoppingCart, protected: true},
	{pattern: "GET /api/recipes/{id}", handler: handlers.GetRecipe},
	{pattern: "PUT /api/recipes/{id}", handler: handlers.UpdateRecipe, protected: true},
	{pattern: "DELETE /api/recipes/{id}", handler: handlers.DeleteRecipe, protected: true},
	{pattern: "GET /api/recipes/{id}/image", handler: handlers.RecipeImage},
	{pattern: "POST /api/recipes/{id}/favorite", handler: handlers.AddFavorite, protected: true},
	{pattern: "DELETE /api/recipes/{id}/favorite", handler: handlers.RemoveFavorite, protected: true},
	{pattern: "POST /api/recipes/{id}/shopping_cart", handler: handlers.AddToCart, protected: true},
	{pattern: "DELETE /api/recipes/{id}/shopping_cart", handler: handlers.RemoveFromCart, protected: true},

	{pattern: "GET /api/users", handler: handlers.ListUsers},
	{pattern: "GET /api/users/me", handler: handlers.Me, protected: true},
	{pattern: "POST /api/users/set_password", handler: handlers.SetPassword, protected: true},
	{pattern: "GET /api/users/{id}", handler: handlers.GetUser, protected: true},
	{pattern: "GET /api/users/subscriptions", handler: handlers.Subscriptions, protected: true},
	{pattern: "POST /api/users/{id}/subscribe", handler: handlers.Subscribe, protected: true},
	{pattern: "DELETE /api/users/{id}/subscribe", handler: handlers.Unsubscribe, protected: true},
}

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("GET /healthz", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	for _, r := range routes {
		var h http.Handler = r.handler
		if r.protected {
			h = handlers.RequireAuthentication(h)
		}
		mux.Handle(r.pattern, h)
		applog.Debug(context.Background(), "route registered", "pattern", r.pattern, "protected", r.protected)
	}
	return mux
}
