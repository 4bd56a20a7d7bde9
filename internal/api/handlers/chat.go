package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"encoding/json"

	"github.com/google/uuid"
	"github.com/yutinghan/calendar-assistant/internal/agent"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"github.com/yutinghan/calendar-assistant/internal/logging"
	"github.com/yutinghan/calendar-assistant/internal/util"
	"gorm.io/gorm"
)

const titleMaxLen = 50

// ChatMessage is one client-supplied message of the request history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages"`
	UserID         string        `json:"user_id,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
}

// ChatHandler runs one turn: resolve the user, bind the conversation to a
// session, drive the agent, and stream the turn's events to the client. Any
// failure after the stream opens becomes a single terminal error record; the
// HTTP response itself always completes.
func ChatHandler(database *gorm.DB, sessions *agent.Registry, runner agent.Runner, appName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		sw, err := newStreamWriter(w)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(req.Messages) == 0 {
			sw.Error("no message provided")
			return
		}

		requestID := logging.GenerateRequestID()

		// An unresolvable user is not fatal; the turn proceeds as anonymous.
		user := resolveUser(database, req.UserID)

		sessionID := req.ConversationID
		isNew := sessionID == "" || len(req.Messages) == 1
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		runnerUserID := req.UserID
		if runnerUserID == "" {
			runnerUserID = "anonymous"
		}

		key := agent.Key{App: appName, UserID: runnerUserID, SessionID: sessionID}
		_, created := sessions.GetOrCreate(key, func() []agent.Content {
			return historyFromStore(database, sessionID)
		})
		if created {
			log.Printf("🆕 [%s] Session created: %s (user=%s)", requestID, sessionID, runnerUserID)
		}

		last := req.Messages[len(req.Messages)-1]
		input := last.Content
		if isNew && user != nil {
			// Identity rides on the first turn only; the session keeps it for
			// the rest of the conversation.
			input = fmt.Sprintf("[User Info] name=%s, email=%s\n%s", user.Name, user.Email, input)
		}

		if user != nil {
			if err := recordUserMessage(database, user.ID, sessionID, last.Content); err != nil {
				log.Printf("⚠️ Failed to persist user message for %s: %v", sessionID, err)
			}
		}

		messageID := uuid.New().String()
		sw.Start(messageID)
		sw.TextStart(messageID)

		var full strings.Builder
		ctx := logging.WithRequestID(agent.WithUserID(r.Context(), runnerUserID), requestID)
		err = runner.Run(ctx, agent.Invocation{
			AppName:   appName,
			UserID:    runnerUserID,
			SessionID: sessionID,
			Text:      input,
		}, func(ev agent.Event) {
			if ev.Text == "" {
				return
			}
			full.WriteString(ev.Text)
			sw.TextDelta(messageID, ev.Text)
		})
		if err != nil {
			log.Printf("❌ [%s] Turn failed for session %s: %v", requestID, sessionID, err)
			sw.Error(err.Error())
			return
		}

		sw.TextEnd(messageID)
		sw.Finish()

		if user != nil && full.Len() > 0 {
			if err := recordAssistantMessage(database, sessionID, full.String()); err != nil {
				log.Printf("⚠️ Failed to persist assistant message for %s: %v", sessionID, err)
			}
		}
		log.Printf("✅ [%s] Turn complete: session=%s reply=%s", requestID, sessionID, util.TruncateLog(full.String(), 120))
	}
}

// resolveUser accepts either an internal id or a Google id, trying the
// internal id first. Returns nil when nothing matches.
func resolveUser(database *gorm.DB, userID string) *models.User {
	if userID == "" || userID == "anonymous" {
		return nil
	}
	var user models.User
	if _, err := uuid.Parse(userID); err == nil {
		if err := database.First(&user, "id = ?", userID).Error; err == nil {
			return &user
		}
	}
	if err := database.First(&user, "google_id = ?", userID).Error; err == nil {
		return &user
	}
	return nil
}

// historyFromStore rehydrates a session's turn history from persisted
// messages, so conversational context survives a process restart.
func historyFromStore(database *gorm.DB, conversationID string) []agent.Content {
	var messages []models.Message
	if err := database.Where("conversation_id = ?", conversationID).Order("created_at").Find(&messages).Error; err != nil {
		log.Printf("⚠️ Failed to rehydrate session %s: %v", conversationID, err)
		return nil
	}

	history := make([]agent.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		history = append(history, agent.Content{
			Role:  role,
			Parts: []agent.Part{{Text: msg.Content}},
		})
	}
	if len(history) > 0 {
		log.Printf("💧 Rehydrated session %s from %d stored messages", conversationID, len(history))
	}
	return history
}

// recordUserMessage lazily creates the conversation row on the first turn and
// appends the user message.
func recordUserMessage(database *gorm.DB, userID, conversationID, content string) error {
	var conv models.Conversation
	err := database.First(&conv, "id = ?", conversationID).Error
	if err == gorm.ErrRecordNotFound {
		conv = models.Conversation{
			ID:     conversationID,
			UserID: userID,
			Title:  makeTitle(content),
		}
		if err := database.Create(&conv).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return appendMessage(database, conversationID, "user", content)
}

func recordAssistantMessage(database *gorm.DB, conversationID, content string) error {
	return appendMessage(database, conversationID, "assistant", content)
}

func appendMessage(database *gorm.DB, conversationID, role, content string) error {
	msg := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := database.Create(&msg).Error; err != nil {
		return err
	}
	// Each new message bumps the conversation's recency.
	return database.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
}

func makeTitle(content string) string {
	title := strings.TrimSpace(content)
	if title == "" {
		return "New conversation"
	}
	return util.TruncateRunes(title, titleMaxLen)
}
