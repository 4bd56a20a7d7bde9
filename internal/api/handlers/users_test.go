package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"gorm.io/gorm"
)

func userRouter(db *gorm.DB) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/users/sync", SyncUserHandler(db))
	r.Get("/api/users/{googleID}", GetUserHandler(db))
	return r
}

func TestSyncUser_CreatesAndUpdates(t *testing.T) {
	db := newHandlerTestDB(t)
	router := userRouter(db)

	body, _ := json.Marshal(SyncUserRequest{GoogleID: "google-1", Email: "ada@example.com", Name: "Ada"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/sync", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var created models.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated internal id")
	}

	// Syncing again with fresh profile data updates in place.
	body, _ = json.Marshal(SyncUserRequest{GoogleID: "google-1", Email: "ada@example.com", Name: "Ada L."})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/sync", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected upsert into one row, got %d", count)
	}
	var user models.User
	if err := db.First(&user, "google_id = ?", "google-1").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Name != "Ada L." || user.ID != created.ID {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestSyncUser_RequiredFields(t *testing.T) {
	router := userRouter(newHandlerTestDB(t))
	body, _ := json.Marshal(SyncUserRequest{GoogleID: "google-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/sync", bytes.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetUser(t *testing.T) {
	db := newHandlerTestDB(t)
	createTestUser(t, db)
	router := userRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/google-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var user models.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/google-unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
