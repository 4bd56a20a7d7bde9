package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Settings holds the process configuration, read from the environment with an
// optional .env file for local development.
type Settings struct {
	DBPath             string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAPIKey       string
	FrontendURL        string
	BackendURL         string
	Host               string
	Port               string
	AgentConfigPath    string
}

// Load reads settings from the environment. A missing .env file is fine;
// everything has a development default except the Google credentials.
func Load() Settings {
	if err := godotenv.Load(); err == nil {
		log.Println("📄 Loaded environment from .env")
	}

	return Settings{
		DBPath:             getenv("DB_PATH", "assistant.db"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleAPIKey:       os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY"),
		FrontendURL:        getenv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:         getenv("BACKEND_URL", "http://localhost:8000"),
		Host:               getenv("HOST", "0.0.0.0"),
		Port:               getenv("PORT", "8000"),
		AgentConfigPath:    getenv("AGENT_CONFIG", "agents.yaml"),
	}
}

// Addr returns the listen address.
func (s Settings) Addr() string {
	return s.Host + ":" + s.Port
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
