package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"gorm.io/gorm"
)

const defaultConversationLimit = 50

// ConversationWithMessages is the detail response for one conversation.
type ConversationWithMessages struct {
	models.Conversation
	Messages []models.Message `json:"messages"`
}

// ListConversationsHandler returns the user's conversations, most recent
// first. user_id may be an internal id or a Google id.
func ListConversationsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := resolveUser(database, r.URL.Query().Get("user_id"))
		if user == nil {
			respondJSON(w, http.StatusOK, []models.Conversation{})
			return
		}

		var conversations []models.Conversation
		if err := database.Where("user_id = ?", user.ID).
			Order("updated_at DESC").
			Limit(defaultConversationLimit).
			Find(&conversations).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list conversations")
			return
		}
		respondJSON(w, http.StatusOK, conversations)
	}
}

// GetConversationHandler returns one conversation with its messages in
// creation order.
func GetConversationHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := findConversation(w, r, database)
		if !ok {
			return
		}

		var messages []models.Message
		if err := database.Where("conversation_id = ?", conv.ID).
			Order("created_at").
			Find(&messages).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load messages")
			return
		}
		respondJSON(w, http.StatusOK, ConversationWithMessages{Conversation: *conv, Messages: messages})
	}
}

// CreateConversationRequest is the body of POST /api/conversations.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// CreateConversationHandler creates an empty conversation. An unknown user_id
// gets a placeholder user row so the frontend can start chatting before the
// first identity sync lands.
func CreateConversationHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		var req CreateConversationRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		if req.Title == "" {
			req.Title = "New conversation"
		}

		user := resolveUser(database, userID)
		if user == nil {
			user = &models.User{
				ID:       uuid.New().String(),
				GoogleID: userID,
				Email:    userID + "@temp.local",
				Name:     "User",
			}
			if err := database.Create(user).Error; err != nil {
				writeError(w, http.StatusInternalServerError, "failed to create user")
				return
			}
		}

		conv := models.Conversation{
			ID:     uuid.New().String(),
			UserID: user.ID,
			Title:  req.Title,
		}
		if err := database.Create(&conv).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create conversation")
			return
		}
		respondJSON(w, http.StatusOK, conv)
	}
}

// DeleteConversationHandler removes a conversation and all of its messages.
func DeleteConversationHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := findConversation(w, r, database)
		if !ok {
			return
		}

		if err := database.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete messages")
			return
		}
		if err := database.Delete(conv).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete conversation")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// UpdateTitleRequest is the body of PATCH /api/conversations/{id}/title.
type UpdateTitleRequest struct {
	Title string `json:"title"`
}

// UpdateConversationTitleHandler renames a conversation.
func UpdateConversationTitleHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := findConversation(w, r, database)
		if !ok {
			return
		}

		var req UpdateTitleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		conv.Title = req.Title
		if err := database.Save(conv).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update title")
			return
		}
		respondJSON(w, http.StatusOK, conv)
	}
}

// findConversation resolves the user and loads the conversation from the URL,
// writing the appropriate error response when either is missing.
func findConversation(w http.ResponseWriter, r *http.Request, database *gorm.DB) (*models.Conversation, bool) {
	user := resolveUser(database, r.URL.Query().Get("user_id"))
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}

	conversationID := chi.URLParam(r, "conversationID")
	var conv models.Conversation
	if err := database.First(&conv, "id = ? AND user_id = ?", conversationID, user.ID).Error; err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	return &conv, true
}
