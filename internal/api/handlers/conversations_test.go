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

func conversationRouter(db *gorm.DB) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/conversations", func(r chi.Router) {
		r.Get("/", ListConversationsHandler(db))
		r.Post("/", CreateConversationHandler(db))
		r.Get("/{conversationID}", GetConversationHandler(db))
		r.Delete("/{conversationID}", DeleteConversationHandler(db))
		r.Patch("/{conversationID}/title", UpdateConversationTitleHandler(db))
	})
	return r
}

func seedConversation(t *testing.T, db *gorm.DB, userID, convID string) {
	t.Helper()
	if err := db.Create(&models.Conversation{ID: convID, UserID: userID, Title: "seeded"}).Error; err != nil {
		t.Fatalf("create conversation: %v", err)
	}
}

func TestListConversations(t *testing.T) {
	db := newHandlerTestDB(t)
	user := createTestUser(t, db)
	seedConversation(t, db, user.ID, "conv-1")
	seedConversation(t, db, user.ID, "conv-2")
	router := conversationRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/?user_id="+user.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var conversations []models.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conversations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
}

func TestListConversations_UnknownUserGetsEmptyList(t *testing.T) {
	router := conversationRouter(newHandlerTestDB(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/?user_id=nobody", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestListConversations_AcceptsGoogleID(t *testing.T) {
	db := newHandlerTestDB(t)
	user := createTestUser(t, db)
	seedConversation(t, db, user.ID, "conv-1")
	router := conversationRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/?user_id="+user.GoogleID, nil))
	var conversations []models.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conversations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation via google id, got %d", len(conversations))
	}
}

func TestGetConversation_WithMessages(t *testing.T) {
	db := newHandlerTestDB(t)
	user := createTestUser(t, db)
	seedConversation(t, db, user.ID, "conv-1")
	for _, msg := range []models.Message{
		{ID: "m1", ConversationID: "conv-1", Role: "user", Content: "hello"},
		{ID: "m2", ConversationID: "conv-1", Role: "assistant", Content: "hi"},
	} {
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("create message: %v", err)
		}
	}
	router := conversationRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/conv-1?user_id="+user.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var detail ConversationWithMessages
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if detail.ID != "conv-1" || len(detail.Messages) != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
}

func TestGetConversation_ScopedToOwner(t *testing.T) {
	db := newHandlerTestDB(t)
	owner := createTestUser(t, db)
	seedConversation(t, db, owner.ID, "conv-1")

	other := &models.User{ID: "99999999-8888-7777-6666-555555555555", GoogleID: "google-2", Email: "eve@example.com"}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	router := conversationRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/conv-1?user_id="+other.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("another user's conversation must be invisible, got %d", w.Code)
	}
}

func TestCreateConversation_PlaceholderUser(t *testing.T) {
	db := newHandlerTestDB(t)
	router := conversationRouter(db)

	body, _ := json.Marshal(CreateConversationRequest{Title: "Trip planning"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/conversations/?user_id=google-new", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var conv models.Conversation
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if conv.Title != "Trip planning" {
		t.Errorf("title = %q", conv.Title)
	}

	// The unknown user id got a placeholder row bound to the conversation.
	var user models.User
	if err := db.First(&user, "google_id = ?", "google-new").Error; err != nil {
		t.Fatalf("expected placeholder user: %v", err)
	}
	if conv.UserID != user.ID {
		t.Fatalf("conversation bound to %q, want %q", conv.UserID, user.ID)
	}
}

func TestDeleteConversation_RemovesMessages(t *testing.T) {
	db := newHandlerTestDB(t)
	user := createTestUser(t, db)
	seedConversation(t, db, user.ID, "conv-1")
	if err := db.Create(&models.Message{ID: "m1", ConversationID: "conv-1", Role: "user", Content: "hi"}).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
	router := conversationRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/conversations/conv-1?user_id="+user.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var convCount, msgCount int64
	db.Model(&models.Conversation{}).Count(&convCount)
	db.Model(&models.Message{}).Count(&msgCount)
	if convCount != 0 || msgCount != 0 {
		t.Fatalf("expected full cleanup, got %d conversations and %d messages", convCount, msgCount)
	}
}

func TestUpdateConversationTitle(t *testing.T) {
	db := newHandlerTestDB(t)
	user := createTestUser(t, db)
	seedConversation(t, db, user.ID, "conv-1")
	router := conversationRouter(db)

	body, _ := json.Marshal(UpdateTitleRequest{Title: "Renamed"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/conversations/conv-1/title?user_id="+user.ID, bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var conv models.Conversation
	if err := db.First(&conv, "id = ?", "conv-1").Error; err != nil {
		t.Fatalf("load conversation: %v", err)
	}
	if conv.Title != "Renamed" {
		t.Fatalf("title = %q, want Renamed", conv.Title)
	}

	// An empty title is rejected.
	body, _ = json.Marshal(UpdateTitleRequest{})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/conversations/conv-1/title?user_id="+user.ID, bytes.NewReader(body)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
