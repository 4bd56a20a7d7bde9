package models

import "time"

// UserToken stores OAuth credentials for one (user, provider) pair.
// The composite unique index guarantees at most one row per pair; refresh
// and re-authorization update the row in place.
type UserToken struct {
	ID           string `gorm:"primaryKey"` // UUID
	UserID       string `gorm:"uniqueIndex:idx_user_provider"`
	Provider     string `gorm:"uniqueIndex:idx_user_provider"` // e.g. "google_calendar"
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time // nil means no recorded expiry
	Scopes       string     // JSON array of granted scopes
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
