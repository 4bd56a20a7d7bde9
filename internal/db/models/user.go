package models

import "time"

// User is an identity record synced from the frontend's Google sign-in.
// Rows are created on first sync and updated on later ones, never deleted here.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"` // UUID
	GoogleID  string    `gorm:"uniqueIndex" json:"google_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
