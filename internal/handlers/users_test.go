package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"foodgram/models"
)

func TestSubscriptionLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	f.recipe(t, f.author, "Омлет", 0, 100)
	f.recipe(t, f.author, "Рагу", 1, 200)
	f.recipe(t, f.author, "Суп", 1, 300)

	w := httptest.NewRecorder()
	Subscribe(w, withID(f.request(t, f.reader, http.MethodPost, "/api/users/subscribe", nil), f.reader.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self subscription, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	Subscribe(w, withID(f.request(t, f.reader, http.MethodPost, "/api/users/subscribe?recipes_limit=2", nil), f.author.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created subscriptionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode subscription: %v", err)
	}
	if created.ID != f.author.ID || !created.IsSubscribed || created.RecipesCount != 3 || len(created.Recipes) != 2 {
		t.Fatalf("unexpected subscription %+v", created)
	}

	w = httptest.NewRecorder()
	Subscribe(w, withID(f.request(t, f.reader, http.MethodPost, "/api/users/subscribe", nil), f.author.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate subscription, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	Subscribe(w, withID(f.request(t, f.reader, http.MethodPost, "/api/users/subscribe", nil), f.author.ID+100))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown author, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	Subscriptions(w, f.request(t, f.reader, http.MethodGet, "/api/users/subscriptions", nil))
	var list []subscriptionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode subscriptions: %v", err)
	}
	if len(list) != 1 || list[0].Username != "author" || len(list[0].Recipes) != 3 {
		t.Fatalf("unexpected subscriptions %+v", list)
	}

	w = httptest.NewRecorder()
	Unsubscribe(w, withID(f.request(t, f.reader, http.MethodDelete, "/api/users/subscribe", nil), f.author.ID))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	Unsubscribe(w, withID(f.request(t, f.reader, http.MethodDelete, "/api/users/subscribe", nil), f.author.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when not subscribed, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	Unsubscribe(w, withID(f.request(t, f.reader, http.MethodDelete, "/api/users/subscribe", nil), f.author.ID+100))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown author, got %d", w.Code)
	}
}

func TestMe(t *testing.T) {
	f := newHandlerFixture(t)

	w := httptest.NewRecorder()
	Me(w, f.request(t, f.reader, http.MethodGet, "/api/users/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if resp.ID != f.reader.ID || resp.Email != "reader@example.com" {
		t.Fatalf("unexpected profile %+v", resp)
	}
}

func TestListUsers(t *testing.T) {
	f := newHandlerFixture(t)
	for _, name := range []string{"cook1", "cook2", "cook3", "cook4", "cook5"} {
		seedUser(t, f.db, name+"@example.com", name)
	}
	if err := f.db.Create(&models.Follow{UserID: f.reader.ID, FollowingID: f.author.ID}).Error; err != nil {
		t.Fatalf("failed to seed follow: %v", err)
	}

	tests := []struct {
		name       string
		viewer     *models.User
		target     string
		wantIDs    []uint
		subscribed bool
	}{
		{"first page defaults to six", nil, "/api/users", nil, false},
		{"limit and page", f.reader, "/api/users?limit=2&page=1", []uint{f.author.ID, f.reader.ID}, true},
		{"anonymous viewer is never subscribed", nil, "/api/users?limit=1", []uint{f.author.ID}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ListUsers(w, f.request(t, tc.viewer, http.MethodGet, tc.target, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp userListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode users: %v", err)
			}
			if resp.Count != 7 {
				t.Fatalf("expected count 7, got %d", resp.Count)
			}
			if tc.wantIDs == nil {
				if len(resp.Results) != 6 {
					t.Fatalf("expected a page of 6 users, got %d", len(resp.Results))
				}
				return
			}
			if len(resp.Results) != len(tc.wantIDs) {
				t.Fatalf("expected %d users, got %+v", len(tc.wantIDs), resp.Results)
			}
			for i, id := range tc.wantIDs {
				if resp.Results[i].ID != id {
					t.Fatalf("result %d = user %d, want %d", i, resp.Results[i].ID, id)
				}
			}
			if resp.Results[0].IsSubscribed != tc.subscribed {
				t.Fatalf("is_subscribed = %t, want %t", resp.Results[0].IsSubscribed, tc.subscribed)
			}
		})
	}

	w := httptest.NewRecorder()
	ListUsers(w, f.request(t, nil, http.MethodGet, "/api/users?limit=6&page=2", nil))
	var second userListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to decode users: %v", err)
	}
	if len(second.Results) != 1 {
		t.Fatalf("expected 1 user on the second page, got %d", len(second.Results))
	}
}

func TestGetUser(t *testing.T) {
	f := newHandlerFixture(t)
	if err := f.db.Create(&models.Follow{UserID: f.reader.ID, FollowingID: f.author.ID}).Error; err != nil {
		t.Fatalf("failed to seed follow: %v", err)
	}

	w := httptest.NewRecorder()
	GetUser(w, withID(f.request(t, f.reader, http.MethodGet, "/api/users/", nil), f.author.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if resp.ID != f.author.ID || resp.Username != "author" || !resp.IsSubscribed {
		t.Fatalf("unexpected user %+v", resp)
	}

	w = httptest.NewRecorder()
	GetUser(w, withID(f.request(t, f.author, http.MethodGet, "/api/users/", nil), f.reader.ID))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if resp.IsSubscribed {
		t.Fatal("author does not follow the reader")
	}

	w = httptest.NewRecorder()
	GetUser(w, withID(f.request(t, f.reader, http.MethodGet, "/api/users/", nil), f.author.ID+100))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", w.Code)
	}
}

func TestSetPassword(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name    string
		payload setPasswordRequest
		want    int
	}{
		{"wrong current password", setPasswordRequest{CurrentPassword: "nope-nope", NewPassword: "brand-new-pass"}, http.StatusBadRequest},
		{"new password too short", setPasswordRequest{CurrentPassword: "password123", NewPassword: "short"}, http.StatusBadRequest},
		{"success", setPasswordRequest{CurrentPassword: "password123", NewPassword: "brand-new-pass"}, http.StatusNoContent},
	}

	for _, tc := range tests {
		w := httptest.NewRecorder()
		SetPassword(w, f.request(t, f.reader, http.MethodPost, "/api/users/set_password", tc.payload))
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}

	var stored models.User
	if err := f.db.First(&stored, f.reader.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-pass")); err != nil {
		t.Fatalf("expected the new password to be stored: %v", err)
	}

	w := httptest.NewRecorder()
	SetPassword(w, f.request(t, f.reader, http.MethodPost, "/api/users/set_password", "not an object"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}
