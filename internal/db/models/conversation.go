package models

import "time"

// Conversation groups the messages of one chat thread. Its ID doubles as the
// runtime session id, so a conversation maps to exactly one agent session.
type Conversation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one immutable entry of a conversation, ordered by CreatedAt.
type Message struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index" json:"conversation_id"`
	Role           string    `json:"role"` // "user", "assistant" or "system"
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
