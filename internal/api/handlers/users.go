package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"gorm.io/gorm"
)

// SyncUserRequest is the body of POST /api/users/sync.
type SyncUserRequest struct {
	GoogleID string `json:"google_id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

// SyncUserHandler upserts a user by Google id. The frontend calls this after
// sign-in so identity stays current without this service owning login.
func SyncUserHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.GoogleID == "" || req.Email == "" {
			writeError(w, http.StatusBadRequest, "google_id and email are required")
			return
		}

		var user models.User
		err := database.First(&user, "google_id = ?", req.GoogleID).Error
		switch {
		case err == nil:
			user.Email = req.Email
			user.Name = req.Name
			user.Image = req.Image
			if err := database.Save(&user).Error; err != nil {
				writeError(w, http.StatusInternalServerError, "failed to update user")
				return
			}
			log.Printf("👤 Updated user %s", user.Email)
		case err == gorm.ErrRecordNotFound:
			user = models.User{
				ID:       uuid.New().String(),
				GoogleID: req.GoogleID,
				Email:    req.Email,
				Name:     req.Name,
				Image:    req.Image,
			}
			if err := database.Create(&user).Error; err != nil {
				writeError(w, http.StatusInternalServerError, "failed to create user")
				return
			}
			log.Printf("👤 Created user %s", user.Email)
		default:
			writeError(w, http.StatusInternalServerError, "user lookup failed")
			return
		}

		respondJSON(w, http.StatusOK, user)
	}
}

// GetUserHandler looks up a user by Google id.
func GetUserHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		googleID := chi.URLParam(r, "googleID")

		var user models.User
		if err := database.First(&user, "google_id = ?", googleID).Error; err != nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}
