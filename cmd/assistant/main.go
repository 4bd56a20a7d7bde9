package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yutinghan/calendar-assistant/internal/agent"
	"github.com/yutinghan/calendar-assistant/internal/agent/gemini"
	"github.com/yutinghan/calendar-assistant/internal/api/handlers"
	"github.com/yutinghan/calendar-assistant/internal/auth/google"
	"github.com/yutinghan/calendar-assistant/internal/auth/token"
	"github.com/yutinghan/calendar-assistant/internal/calendar"
	"github.com/yutinghan/calendar-assistant/internal/config"
	"github.com/yutinghan/calendar-assistant/internal/db"
	"github.com/yutinghan/calendar-assistant/internal/tools"
	"github.com/yutinghan/calendar-assistant/internal/version"
)

func main() {
	settings := config.Load()

	database, err := db.InitDB(settings.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	agentCfg, err := agent.LoadConfig(settings.AgentConfigPath)
	if err != nil {
		log.Fatalf("Failed to load agent config: %v", err)
	}

	oauthCfg := google.OAuthConfig(
		settings.GoogleClientID,
		settings.GoogleClientSecret,
		settings.BackendURL+"/auth/google/callback",
	)
	tokenService := token.NewService(database, oauthCfg)

	authURL := func(userID string) string {
		return fmt.Sprintf("%s/auth/google/calendar?user_id=%s", settings.BackendURL, userID)
	}

	registry := agent.NewToolRegistry(tools.DatetimeTools()...)
	for _, t := range tools.CalendarTools(calendar.NewClient()) {
		registry.Register(t)
	}

	invoker := agent.Chain(agent.BaseInvoker,
		agent.CalendarAuth(tokenService, google.CalendarProvider, authURL),
	)

	sessions := agent.NewRegistry()
	runner := gemini.NewRunner(gemini.Options{
		APIKey:   settings.GoogleAPIKey,
		Config:   agentCfg,
		Tools:    registry,
		Invoker:  invoker,
		Sessions: sessions,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{settings.FrontendURL, "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", handlers.HealthHandler())

	// OAuth flow for calendar access
	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/calendar", handlers.InitiateCalendarOAuth(oauthCfg))
		r.Get("/callback", handlers.OAuthCallback(tokenService, oauthCfg, settings.FrontendURL))
		r.Get("/status", handlers.CalendarStatus(tokenService))
		r.Delete("/revoke", handlers.RevokeCalendar(tokenService))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handlers.ChatHandler(database, sessions, runner, agentCfg.AppName))

		r.Route("/users", func(r chi.Router) {
			r.Post("/sync", handlers.SyncUserHandler(database))
			r.Get("/{googleID}", handlers.GetUserHandler(database))
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", handlers.ListConversationsHandler(database))
			r.Post("/", handlers.CreateConversationHandler(database))
			r.Get("/{conversationID}", handlers.GetConversationHandler(database))
			r.Delete("/{conversationID}", handlers.DeleteConversationHandler(database))
			r.Patch("/{conversationID}/title", handlers.UpdateConversationTitleHandler(database))
		})
	})

	addr := settings.Addr()
	log.Printf("🚀 Calendar assistant %s starting on http://%s", version.Version, addr)
	log.Printf("💬 Chat API: http://%s/api/chat", addr)
	log.Printf("🔑 OAuth: http://%s/auth/google/calendar", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
