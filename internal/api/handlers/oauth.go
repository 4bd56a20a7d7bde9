package handlers

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/yutinghan/calendar-assistant/internal/auth/google"
	"github.com/yutinghan/calendar-assistant/internal/auth/token"
	"golang.org/x/oauth2"
)

// InitiateCalendarOAuth returns the Google consent URL for the given user.
func InitiateCalendarOAuth(oauthCfg *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"url": google.ConsentURL(oauthCfg, userID),
		})
	}
}

// OAuthCallback exchanges the authorization code for tokens, persists them for
// the user carried in the state parameter, and bounces back to the frontend
// with a success or error flag.
func OAuthCallback(tokens *token.Service, oauthCfg *oauth2.Config, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		userID := r.URL.Query().Get("state")
		if code == "" || userID == "" {
			redirectWithError(w, r, frontendURL, "missing code or state")
			return
		}

		tok, err := oauthCfg.Exchange(r.Context(), code)
		if err != nil {
			log.Printf("❌ Code exchange failed for user %s: %v", userID, err)
			redirectWithError(w, r, frontendURL, "token exchange failed")
			return
		}

		expiresIn := 0
		if !tok.Expiry.IsZero() {
			expiresIn = int(time.Until(tok.Expiry).Seconds())
		}
		if _, err := tokens.SaveTokens(r.Context(), userID, google.CalendarProvider, tok.AccessToken, tok.RefreshToken, expiresIn, google.CalendarScopes); err != nil {
			log.Printf("❌ Failed to store tokens for user %s: %v", userID, err)
			redirectWithError(w, r, frontendURL, "failed to store tokens")
			return
		}

		http.Redirect(w, r, frontendURL+"?calendar_connected=true", http.StatusTemporaryRedirect)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, frontendURL, message string) {
	http.Redirect(w, r, frontendURL+"?calendar_error="+url.QueryEscape(message), http.StatusTemporaryRedirect)
}

// CalendarStatus reports whether the user has usable calendar credentials.
func CalendarStatus(tokens *token.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{
			"connected": tokens.HasValidToken(userID, google.CalendarProvider),
		})
	}
}

// RevokeCalendar drops the user's stored calendar credentials.
func RevokeCalendar(tokens *token.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if err := tokens.RevokeToken(userID, google.CalendarProvider); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
